// Package matcher drives a matching run: it owns the listing index, walks
// the products in input order, and hands each product's claimed listings to
// an Emitter. A listing claimed by one product is deleted from the index
// before the next product is looked at, so no listing is ever emitted twice.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/matcher/index"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/matcher/query"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/metrics"
)

// Emitter receives every match in product order.
type Emitter interface {
	Emit(ctx context.Context, match record.Match) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, match record.Match) error

func (f EmitterFunc) Emit(ctx context.Context, match record.Match) error {
	return f(ctx, match)
}

// Stats summarises a run.
type Stats struct {
	Products        int
	Matched         int
	Unmatched       int
	Blank           int
	ListingsClaimed int
	LiveListings    int
	EmitErrors      int
}

type Engine struct {
	idx     *index.Index
	eval    *query.Evaluator
	cfg     config.MatchingConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewEngine(cfg config.MatchingConfig, m *metrics.Metrics) *Engine {
	idx := index.New()
	return &Engine{
		idx:     idx,
		eval:    query.NewEvaluator(idx),
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "matching-engine"),
	}
}

// Index exposes the engine's listing index for inspection.
func (e *Engine) Index() *index.Index {
	return e.idx
}

// Build indexes the listing corpus. It must be called once before Run.
func (e *Engine) Build(listings []record.Listing) error {
	if err := e.idx.Build(listings); err != nil {
		return fmt.Errorf("building listing index: %w", err)
	}
	e.metrics.ListingsIndexedTotal.Add(float64(len(listings)))
	e.metrics.LiveListings.Set(float64(e.idx.LiveCount()))
	return nil
}

type evaluation struct {
	ids   []int
	blank bool
}

// Run matches every product in order. Emit failures are logged and counted
// and the run goes on; only cancellation or an unbuilt index stop it.
func (e *Engine) Run(ctx context.Context, products []record.Product, out Emitter) (Stats, error) {
	var stats Stats
	if !e.idx.Built() {
		return stats, apperrors.New(apperrors.ErrIndexNotBuilt, "match run", "Build must be called before Run")
	}

	var prefetched []evaluation
	if e.cfg.Workers > 1 {
		var err error
		prefetched, err = e.prefetch(ctx, products)
		if err != nil {
			return stats, err
		}
	}

	start := time.Now()
	for i, product := range products {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("match run cancelled", "processed", stats.Products, "remaining", len(products)-i)
			return stats, err
		}
		var ev evaluation
		if prefetched != nil {
			// Speculative results were computed against the full index;
			// anything claimed since then is filtered out here.
			ev = evaluation{ids: e.filterLive(prefetched[i].ids), blank: prefetched[i].blank}
		} else {
			var err error
			ev, err = e.evaluate(product)
			if err != nil {
				return stats, err
			}
		}
		stats.Products++

		match, ok := e.claim(product, ev.ids)
		switch {
		case ev.blank:
			stats.Blank++
			e.metrics.ProductsProcessedTotal.WithLabelValues(metrics.OutcomeBlank).Inc()
			continue
		case !ok:
			stats.Unmatched++
			e.metrics.ProductsProcessedTotal.WithLabelValues(metrics.OutcomeUnmatched).Inc()
			continue
		}
		stats.Matched++
		stats.ListingsClaimed += len(match.Listings)
		e.metrics.ProductsProcessedTotal.WithLabelValues(metrics.OutcomeMatched).Inc()

		if err := out.Emit(ctx, match); err != nil {
			stats.EmitErrors++
			e.logger.Error("emitting match failed",
				"product_name", product.ProductName,
				"listings", len(match.Listings),
				"error", err,
			)
		}
	}
	stats.LiveListings = e.idx.LiveCount()
	e.logger.Info("match run complete",
		"products", stats.Products,
		"matched", stats.Matched,
		"unmatched", stats.Unmatched,
		"blank", stats.Blank,
		"listings_claimed", stats.ListingsClaimed,
		"listings_unclaimed", stats.LiveListings,
		"elapsed", time.Since(start),
	)
	return stats, nil
}

func (e *Engine) evaluate(product record.Product) (evaluation, error) {
	start := time.Now()
	plan := query.Parse(product.Manufacturer, product.Model)
	ids, err := e.eval.Evaluate(plan)
	e.metrics.QueryLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return evaluation{}, fmt.Errorf("evaluating product %q: %w", product.ProductName, err)
	}
	return evaluation{ids: ids, blank: !plan.Satisfiable()}, nil
}

// prefetch evaluates every product concurrently against the index as built.
// It must run before any listing is claimed.
func (e *Engine) prefetch(ctx context.Context, products []record.Product) ([]evaluation, error) {
	results := make([]evaluation, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, product := range products {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := e.evaluate(product)
			if err != nil {
				return err
			}
			results[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("queries prefetched", "products", len(products), "workers", e.cfg.Workers)
	return results, nil
}

func (e *Engine) filterLive(ids []int) []int {
	live := make([]int, 0, len(ids))
	for _, id := range ids {
		if e.idx.IsLive(id) {
			live = append(live, id)
		}
	}
	return live
}

// claim snapshots the hits, then deletes them from the index. Hits beyond
// MaxHitsPerProduct stay in the index.
func (e *Engine) claim(product record.Product, ids []int) (record.Match, bool) {
	if len(ids) == 0 {
		return record.Match{}, false
	}
	if limit := e.cfg.MaxHitsPerProduct; limit > 0 && len(ids) > limit {
		e.logger.Warn("hit cap reached, extra listings left unclaimed",
			"product_name", product.ProductName,
			"hits", len(ids),
			"cap", limit,
		)
		ids = ids[:limit]
	}
	match := record.Match{
		ProductName: product.ProductName,
		Listings:    make([]record.ListingSnapshot, 0, len(ids)),
	}
	for _, id := range ids {
		snapshot, ok := e.idx.Stored(id)
		if !ok {
			continue
		}
		match.Listings = append(match.Listings, snapshot)
	}
	for _, id := range ids {
		e.idx.Delete(id)
	}
	if len(match.Listings) == 0 {
		return record.Match{}, false
	}
	e.metrics.ListingsClaimedTotal.Add(float64(len(match.Listings)))
	e.metrics.MatchHits.Observe(float64(len(match.Listings)))
	e.metrics.LiveListings.Set(float64(e.idx.LiveCount()))
	e.logger.Debug("product matched",
		"product_name", product.ProductName,
		"listings", len(match.Listings),
	)
	return match, true
}
