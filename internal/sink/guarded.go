package sink

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/resilience"
)

// Guarded wraps a remote sink with a per-attempt timeout, retry with
// backoff and a circuit breaker. While the breaker is open writes fail
// fast with resilience.ErrCircuitOpen.
type Guarded struct {
	inner        Sink
	breaker      *resilience.CircuitBreaker
	retry        resilience.RetryConfig
	writeTimeout time.Duration
}

func NewGuarded(inner Sink, cfg config.ResilienceConfig, m *metrics.Metrics) *Guarded {
	gauge := m.SinkCircuitState.WithLabelValues(inner.Name())
	gauge.Set(float64(resilience.StateClosed))
	return &Guarded{
		inner: inner,
		breaker: resilience.NewCircuitBreaker(inner.Name(), resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			ResetTimeout:     cfg.ResetTimeout,
			OnStateChange: func(_ string, _, to resilience.State) {
				gauge.Set(float64(to))
			},
		}),
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.InitialDelay,
		},
		writeTimeout: cfg.WriteTimeout,
	}
}

func (g *Guarded) Name() string { return g.inner.Name() }

// State reports the breaker state.
func (g *Guarded) State() resilience.State { return g.breaker.GetState() }

func (g *Guarded) Write(ctx context.Context, match record.Match) error {
	return g.breaker.Execute(func() error {
		return resilience.Retry(ctx, g.inner.Name()+".write", g.retry, func() error {
			return resilience.WithTimeout(ctx, g.writeTimeout, g.inner.Name()+".write", func(ctx context.Context) error {
				return g.inner.Write(ctx, match)
			})
		})
	})
}

// Ping forwards to the wrapped sink when it supports pinging.
func (g *Guarded) Ping(ctx context.Context) error {
	if p, ok := g.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (g *Guarded) Close() error { return g.inner.Close() }
