package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/errors"
)

var fastRetry = RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "flaky", fastRetry, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	sentinel := errors.New("still down")
	calls := 0
	err := Retry(context.Background(), "down", fastRetry, func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want wrapped sentinel", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	sentinel := errors.New("bad payload")
	calls := 0
	err := Retry(context.Background(), "perm", fastRetry, func() error {
		calls++
		return Permanent(sentinel)
	})
	if err != sentinel {
		t.Fatalf("error = %v, want sentinel unwrapped", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 5*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(time.Millisecond)
		return ctx.Err()
	})
	if !errors.Is(err, apperrors.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if err := WithTimeout(context.Background(), 0, "unbounded", func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("zero timeout: %v", err)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker("sink", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s, want open", cb.GetState())
	}
	err := cb.Execute(func() error { return nil })
	if !errors.Is(err, apperrors.ErrSinkUnavailable) {
		t.Fatalf("error = %v, want ErrSinkUnavailable", err)
	}

	time.Sleep(15 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open trial: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %s, want closed", cb.GetState())
	}
	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}
