// Command matcher links free-text listings to canonical products.
//
// Usage:
//
//	matcher <products.txt> <listings.txt>
//
// Both inputs hold one JSON object per line. Matches are written to
// result.jsonl in product order, one line per product that claimed at
// least one listing.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/matcher"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/matcher/index"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/sqldb"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/tracing"
)

const usage = "usage: matcher <products.txt> <listings.txt>"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	if len(args) != 2 {
		err := apperrors.Newf(apperrors.ErrUsage, "matcher", "expected 2 arguments, got %d", len(args))
		fmt.Fprintf(stderr, "%v\n%s\n", err, usage)
		return apperrors.ExitCode(err)
	}
	productsPath, listingsPath := args[0], args[1]

	cfg, warnings := config.Load(config.DefaultPath)

	logger.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format)
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)
	for _, w := range warnings {
		log.Warn("ignoring configuration", "error", w)
	}
	ctx, runSpan := tracing.StartRun(ctx, "match-run", runID)
	defer func() {
		runSpan.End()
		runSpan.Log(log)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWithRegistry(reg, reg)
	checker := health.NewChecker()

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, m, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	log.Info("starting matcher",
		"products", productsPath,
		"listings", listingsPath,
		"output", cfg.Output.Path,
		"workers", cfg.Matching.Workers,
	)

	_, phase := tracing.StartPhase(ctx, "load")
	inputs, err := loader.New(m).LoadAll(ctx, productsPath, listingsPath)
	phase.End()
	if err != nil {
		log.Error("loading inputs", "error", err)
		return apperrors.ExitCode(err)
	}
	phase.SetAttr("products", len(inputs.Products))
	phase.SetAttr("listings", len(inputs.Listings))

	_, phase = tracing.StartPhase(ctx, "build")
	engine := matcher.NewEngine(cfg.Matching, m)
	err = engine.Build(inputs.Listings)
	phase.End()
	if err != nil {
		log.Error("building index", "error", err)
		return apperrors.ExitCode(err)
	}
	phase.SetAttr("terms_title", engine.Index().TermCount(index.FieldTitle))
	phase.SetAttr("terms_manufacturer", engine.Index().TermCount(index.FieldManufacturer))

	sinks, err := openSinks(ctx, cfg, m)
	if err != nil {
		log.Error("opening sinks", "error", err)
		return apperrors.ExitCode(err)
	}
	fanout := sink.NewFanout(m, sinks...)
	defer func() {
		if err := fanout.Close(); err != nil {
			log.Warn("closing sinks", "error", err)
		}
	}()
	fanout.RegisterHealth(checker)

	_, phase = tracing.StartPhase(ctx, "match")
	stats, err := engine.Run(ctx, inputs.Products, fanout)
	phase.End()
	phase.SetAttr("matched", stats.Matched)
	if err != nil {
		log.Error("matching run failed", "error", err, "products_done", stats.Products)
		return apperrors.ExitCode(err)
	}

	log.Info("matching complete",
		"products", stats.Products,
		"matched", stats.Matched,
		"unmatched", stats.Unmatched,
		"blank", stats.Blank,
		"listings_claimed", stats.ListingsClaimed,
		"listings_unclaimed", stats.LiveListings,
		"emit_errors", stats.EmitErrors,
	)
	return apperrors.ExitOK
}

// openSinks opens the result file and every enabled remote sink. A remote
// sink that cannot be reached is skipped with a warning; the result file is
// mandatory.
func openSinks(ctx context.Context, cfg *config.Config, m *metrics.Metrics) ([]sink.Sink, error) {
	jsonl, err := sink.OpenJSONL(cfg.Output.Path, cfg.Output.Truncate)
	if err != nil {
		return nil, err
	}
	sinks := []sink.Sink{jsonl}

	if c := cfg.Sinks.SQL; c.Enabled {
		if client, err := sqldb.Open(c); err != nil {
			slog.Warn("sql sink unavailable, skipping", "driver", c.Driver, "error", err)
		} else if s, err := sink.NewSQL(ctx, client, c.Table); err != nil {
			client.Close()
			slog.Warn("sql sink unavailable, skipping", "table", c.Table, "error", err)
		} else {
			sinks = append(sinks, sink.NewGuarded(s, cfg.Resilience, m))
			slog.Info("sql sink enabled", "driver", c.Driver, "table", c.Table)
		}
	}

	if c := cfg.Sinks.Kafka; c.Enabled {
		producer := kafka.NewProducer(c)
		if err := producer.Ping(ctx); err != nil {
			producer.Close()
			slog.Warn("kafka sink unavailable, skipping", "brokers", c.Brokers, "error", err)
		} else {
			sinks = append(sinks, sink.NewGuarded(sink.NewKafka(producer), cfg.Resilience, m))
			slog.Info("kafka sink enabled", "topic", c.Topic)
		}
	}

	if c := cfg.Sinks.Redis; c.Enabled {
		client, err := pkgredis.NewClient(c)
		if err != nil {
			slog.Warn("redis sink unavailable, skipping", "addr", c.Addr, "error", err)
		} else {
			sinks = append(sinks, sink.NewGuarded(sink.NewRedis(client, c.KeyPrefix, c.TTL), cfg.Resilience, m))
			slog.Info("redis sink enabled", "addr", c.Addr, "ttl", c.TTL)
		}
	}

	return sinks, nil
}
