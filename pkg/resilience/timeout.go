package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/errors"
)

// WithTimeout bounds one sink call. fn must honour ctx; the sink clients
// (sqlx, kafka-go, go-redis) all do. A failure after the deadline fired is
// reported as errors.ErrTimeout unless the caller's own ctx ended first.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	deadline := fmt.Errorf("%s: %w after %v", name, apperrors.ErrTimeout, timeout)
	callCtx, cancel := context.WithTimeoutCause(ctx, timeout, deadline)
	defer cancel()

	err := fn(callCtx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if context.Cause(callCtx) == deadline {
		return deadline
	}
	return err
}
