// Package logger configures the process-wide slog logger and carries the
// run id through contexts.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type runIDKey struct{}

// Setup makes a logger writing to w the slog default and returns it.
// format is "json" or "text"; an unknown level falls back to info.
func Setup(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// FromContext returns the default logger, tagged with the run id when ctx
// carries one.
func FromContext(ctx context.Context) *slog.Logger {
	if runID, ok := ctx.Value(runIDKey{}).(string); ok {
		return slog.Default().With("run_id", runID)
	}
	return slog.Default()
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
