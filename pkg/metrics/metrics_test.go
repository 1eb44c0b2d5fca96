package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/health"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestCountersAreIndependentPerRegistry(t *testing.T) {
	a := newTestMetrics()
	b := newTestMetrics()
	a.ProductsProcessedTotal.WithLabelValues(OutcomeMatched).Inc()

	if got := testutil.ToFloat64(a.ProductsProcessedTotal.WithLabelValues(OutcomeMatched)); got != 1 {
		t.Errorf("a matched = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.ProductsProcessedTotal.WithLabelValues(OutcomeMatched)); got != 0 {
		t.Errorf("b matched = %v, want 0", got)
	}
}

func TestRouter(t *testing.T) {
	m := newTestMetrics()
	m.ListingsClaimedTotal.Add(3)
	checker := health.NewChecker()
	checker.Register("sql", func(ctx context.Context) error { return nil })
	srv := httptest.NewServer(NewRouter(m, checker))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "matcher_listings_claimed_total 3") {
		t.Errorf("scrape output missing claimed counter:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health/ready status = %d, want 200", resp.StatusCode)
	}
}
