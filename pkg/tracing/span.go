// Package tracing times the phases of a matching run. Spans nest through
// the context and the finished tree is written to slog in one pass.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey struct{}

// Span is one timed phase. Children are appended in start order.
type Span struct {
	Name     string
	RunID    string
	Start    time.Time
	Duration time.Duration
	Children []*Span

	mu    sync.Mutex
	attrs []any
}

// StartRun creates the root span for a run and stores it in the returned
// context.
func StartRun(ctx context.Context, name, runID string) (context.Context, *Span) {
	span := &Span{Name: name, RunID: runID, Start: time.Now()}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartPhase creates a child of the span in ctx. Without a parent the span
// is detached and only its own fields are usable.
func StartPhase(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		child.RunID = parent.RunID
		parent.mu.Lock()
		parent.Children = append(parent.Children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

// FromContext returns the current span, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

func (s *Span) End() {
	s.Duration = time.Since(s.Start)
}

// SetAttr attaches a key/value pair that is logged with the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, key, value)
	s.mu.Unlock()
}

// Log writes the span and its descendants, depth first.
func (s *Span) Log(logger *slog.Logger) {
	s.log(logger, 0)
}

func (s *Span) log(logger *slog.Logger, depth int) {
	s.mu.Lock()
	attrs := append([]any{
		"span", s.Name,
		"depth", depth,
		"duration_ms", s.Duration.Milliseconds(),
	}, s.attrs...)
	children := s.Children
	s.mu.Unlock()

	logger.Info("phase", attrs...)
	for _, child := range children {
		child.log(logger, depth+1)
	}
}
