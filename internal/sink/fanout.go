package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/metrics"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Fanout writes every match to all of its sinks concurrently. A failing
// sink does not stop the others.
type Fanout struct {
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewFanout(m *metrics.Metrics, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:   sinks,
		metrics: m,
		logger:  slog.Default().With("component", "sink-fanout"),
	}
}

// Emit writes match to every sink and joins their errors.
func (f *Fanout) Emit(ctx context.Context, match record.Match) error {
	errs := make([]error, len(f.sinks))
	var g errgroup.Group
	for i, s := range f.sinks {
		g.Go(func() error {
			if err := s.Write(ctx, match); err != nil {
				f.metrics.SinkWritesTotal.WithLabelValues(s.Name(), statusError).Inc()
				f.logger.Warn("sink write failed",
					"sink", s.Name(),
					"product_name", match.ProductName,
					"error", err,
				)
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
				return nil
			}
			f.metrics.SinkWritesTotal.WithLabelValues(s.Name(), statusOK).Inc()
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// RegisterHealth adds a readiness check for every sink that can be pinged.
func (f *Fanout) RegisterHealth(checker *health.Checker) {
	for _, s := range f.sinks {
		if p, ok := s.(Pinger); ok {
			checker.Register(s.Name(), p.Ping)
		}
	}
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
