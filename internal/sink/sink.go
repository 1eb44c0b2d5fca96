// Package sink writes matches to their destinations: the line-delimited JSON
// result file, and optionally a SQL table, a Kafka topic and Redis keys.
// Fanout delivers each match to every configured sink.
package sink

//go:generate mockgen -source=sink.go -destination=mock_sink/mock_sink.go -package=mock_sink

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
)

// Sink is one destination for matches.
type Sink interface {
	Name() string
	Write(ctx context.Context, match record.Match) error
	Close() error
}

// Pinger is implemented by sinks backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
