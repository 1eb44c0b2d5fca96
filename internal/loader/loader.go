// Package loader reads line-delimited JSON product and listing files into
// records. Loading is best-effort: an unreadable file or a malformed line is
// logged and counted, and loading carries on with whatever else it can read.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/loader/validator"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/metrics"
)

const (
	SourceProducts = "products"
	SourceListings = "listings"

	maxLineBytes = 4 * 1024 * 1024
)

// Inputs holds both record sets of a run, each in file order.
type Inputs struct {
	Products []record.Product
	Listings []record.Listing
}

type Loader struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(m *metrics.Metrics) *Loader {
	return &Loader{
		metrics: m,
		logger:  slog.Default().With("component", "loader"),
	}
}

// LoadAll reads the products and listings files concurrently. It only
// returns an error when ctx is cancelled.
func (l *Loader) LoadAll(ctx context.Context, productsPath, listingsPath string) (*Inputs, error) {
	in := &Inputs{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := l.LoadProducts(gctx, productsPath)
		in.Products = products
		return err
	})
	g.Go(func() error {
		listings, err := l.LoadListings(gctx, listingsPath)
		in.Listings = listings
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.logger.Info("inputs loaded",
		"products", len(in.Products),
		"listings", len(in.Listings),
	)
	return in, nil
}

func (l *Loader) LoadProducts(ctx context.Context, path string) ([]record.Product, error) {
	return loadFile(ctx, l, path, SourceProducts, func(p *record.Product, line int) {
		if err := validator.ValidateProduct(p); err != nil {
			l.logger.Warn("product will not match",
				"path", path,
				"line", line,
				"product_name", p.ProductName,
				"reason", err.Error(),
			)
		}
	})
}

func (l *Loader) LoadListings(ctx context.Context, path string) ([]record.Listing, error) {
	return loadFile(ctx, l, path, SourceListings, func(rec *record.Listing, line int) {
		if err := validator.ValidateListing(rec); err != nil {
			l.logger.Debug("listing is incomplete",
				"path", path,
				"line", line,
				"reason", err.Error(),
			)
		}
	})
}

func loadFile[T any](ctx context.Context, l *Loader, path, source string, check func(*T, int)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		l.loadError(source, apperrors.Newf(apperrors.ErrInvalidRecord, "load "+source, "opening %s: %v", path, err))
		return []T{}, nil
	}
	defer f.Close()

	records, err := Decode(ctx, f, func(line int, err error) {
		l.loadError(source, apperrors.Newf(apperrors.ErrInvalidRecord, "load "+source, "%s line %d: %v", path, line, err))
	}, check)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	if err != nil {
		l.loadError(source, fmt.Errorf("reading %s: %w", path, err))
	}
	l.metrics.RecordsLoadedTotal.WithLabelValues(source).Add(float64(len(records)))
	return records, nil
}

func (l *Loader) loadError(source string, err error) {
	l.metrics.LoadErrorsTotal.WithLabelValues(source).Inc()
	l.logger.Error("skipping input", "source", source, "error", err)
}

// Decode parses one JSON record per line from r. Blank lines are ignored;
// a line that fails to parse or is longer than maxLineBytes is reported to
// onError and skipped. check, if non-nil, is called with every decoded
// record. The returned error is a read failure or ctx cancellation; records
// read so far are returned with it.
func Decode[T any](ctx context.Context, r io.Reader, onError func(line int, err error), check func(*T, int)) ([]T, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	records := make([]T, 0, 1024)
	line := 0
	for {
		raw, tooLong, readErr := readLine(reader, maxLineBytes)
		if readErr != nil && readErr != io.EOF {
			return records, readErr
		}
		if readErr == io.EOF && len(raw) == 0 && !tooLong {
			break
		}
		line++
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return records, err
			}
		}
		if tooLong {
			if onError != nil {
				onError(line, fmt.Errorf("line exceeds %d bytes", maxLineBytes))
			}
		} else if text := bytes.TrimSpace(raw); len(text) > 0 {
			var rec T
			if err := json.Unmarshal(text, &rec); err != nil {
				if onError != nil {
					onError(line, err)
				}
			} else {
				if check != nil {
					check(&rec, line)
				}
				records = append(records, rec)
			}
		}
		if readErr == io.EOF {
			break
		}
	}
	return records, ctx.Err()
}

// readLine returns the next line including its newline. A line longer than
// limit is drained from r and reported with tooLong set and no content.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(bytes.TrimRight(chunk, "\r\n")) > limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return line, tooLong, err
	}
}
