// Package health reports whether the matcher's remote sinks are reachable.
// Each sink registers a ping; readiness is down as soon as one ping fails.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Ping checks one dependency.
type Ping func(ctx context.Context) error

type Component struct {
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

type Report struct {
	Status     Status               `json:"status"`
	Components map[string]Component `json:"components"`
}

type Checker struct {
	mu     sync.RWMutex
	pings  map[string]Ping
	logger *slog.Logger
}

func NewChecker() *Checker {
	return &Checker{
		pings:  make(map[string]Ping),
		logger: slog.Default().With("component", "health"),
	}
}

// Register adds or replaces the ping for name.
func (c *Checker) Register(name string, ping Ping) {
	c.mu.Lock()
	c.pings[name] = ping
	c.mu.Unlock()
}

// Run pings every component concurrently.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	pings := make(map[string]Ping, len(c.pings))
	for name, ping := range c.pings {
		pings[name] = ping
	}
	c.mu.RUnlock()

	report := Report{Status: StatusUp, Components: make(map[string]Component, len(pings))}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, ping := range pings {
		wg.Go(func() {
			start := time.Now()
			err := ping(ctx)
			comp := Component{Status: StatusUp, Latency: time.Since(start).Round(time.Millisecond).String()}
			if err != nil {
				comp.Status = StatusDown
				comp.Error = err.Error()
				c.logger.Warn("component down", "name", name, "error", err)
			}
			mu.Lock()
			report.Components[name] = comp
			if err != nil {
				report.Status = StatusDown
			}
			mu.Unlock()
		})
	}
	wg.Wait()
	return report
}

// LiveHandler always answers 200 while the process is serving.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]Status{"status": StatusUp})
	}
}

// ReadyHandler answers 200 when every component is up and 503 otherwise.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		code := http.StatusOK
		if report.Status != StatusUp {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
