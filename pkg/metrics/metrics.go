// Package metrics defines the Prometheus collectors for a matching run and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Product outcomes recorded in ProductsProcessedTotal.
const (
	OutcomeMatched   = "matched"
	OutcomeUnmatched = "unmatched"
	OutcomeBlank     = "blank"
)

// Metrics holds all Prometheus collectors for the matcher.
type Metrics struct {
	ListingsIndexedTotal   prometheus.Counter
	LiveListings           prometheus.Gauge
	ProductsProcessedTotal *prometheus.CounterVec
	ListingsClaimedTotal   prometheus.Counter
	MatchHits              prometheus.Histogram
	QueryLatency           prometheus.Histogram
	LoadErrorsTotal        *prometheus.CounterVec
	RecordsLoadedTotal     *prometheus.CounterVec
	SinkWritesTotal        *prometheus.CounterVec
	SinkCircuitState       *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New creates all metrics and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		ListingsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "matcher_listings_indexed_total",
				Help: "Total listings added to the index.",
			},
		),
		LiveListings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "matcher_live_listings",
				Help: "Listings still in the index (not yet claimed by a product).",
			},
		),
		ProductsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matcher_products_processed_total",
				Help: "Products processed by outcome (matched, unmatched, blank).",
			},
			[]string{"outcome"},
		),
		ListingsClaimedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "matcher_listings_claimed_total",
				Help: "Listings claimed by a product match and removed from the index.",
			},
		),
		MatchHits: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "matcher_match_hits",
				Help:    "Number of listings per emitted match.",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
		),
		QueryLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "matcher_query_latency_seconds",
				Help:    "Per-product query evaluation latency in seconds.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
		),
		LoadErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matcher_load_errors_total",
				Help: "Input records skipped by source (products, listings).",
			},
			[]string{"source"},
		),
		RecordsLoadedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matcher_records_loaded_total",
				Help: "Input records loaded by source (products, listings).",
			},
			[]string{"source"},
		),
		SinkWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matcher_sink_writes_total",
				Help: "Match writes by sink and status (ok, error).",
			},
			[]string{"sink", "status"},
		),
		SinkCircuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "matcher_sink_circuit_state",
				Help: "Sink circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"sink"},
		),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.ListingsIndexedTotal,
		m.LiveListings,
		m.ProductsProcessedTotal,
		m.ListingsClaimedTotal,
		m.MatchHits,
		m.QueryLatency,
		m.LoadErrorsTotal,
		m.RecordsLoadedTotal,
		m.SinkWritesTotal,
		m.SinkCircuitState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
