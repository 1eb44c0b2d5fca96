package sink

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/kafka"
)

// Publisher is the subset of kafka.Producer the Kafka sink needs.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
	Ping(ctx context.Context) error
	Close() error
}

// Kafka publishes one event per match, keyed by product name.
type Kafka struct {
	pub Publisher
}

func NewKafka(pub Publisher) *Kafka {
	return &Kafka{pub: pub}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Write(ctx context.Context, match record.Match) error {
	return k.pub.Publish(ctx, kafka.Event{Key: match.ProductName, Value: match})
}

func (k *Kafka) Ping(ctx context.Context) error { return k.pub.Ping(ctx) }

func (k *Kafka) Close() error { return k.pub.Close() }
