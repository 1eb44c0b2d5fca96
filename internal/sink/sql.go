package sink

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/sqldb"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS %s (
    product_name     VARCHAR(512) NOT NULL,
    listing_position INTEGER NOT NULL,
    title            TEXT NOT NULL,
    manufacturer     TEXT NOT NULL,
    currency         TEXT NOT NULL,
    price            TEXT NOT NULL,
    PRIMARY KEY (product_name, listing_position)
)`

const (
	maxProductNameRunes = 512
	insertBatchRows     = 100
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type matchRow struct {
	Title        string `db:"title"`
	Manufacturer string `db:"manufacturer"`
	Currency     string `db:"currency"`
	Price        string `db:"price"`
}

// SQL stores one row per claimed listing. Rewriting a product replaces its
// previous rows in the same transaction.
type SQL struct {
	client  *sqldb.Client
	table   string
	builder sq.StatementBuilderType
}

// NewSQL creates the table if needed and returns the sink.
func NewSQL(ctx context.Context, client *sqldb.Client, table string) (*SQL, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if _, err := client.DB.ExecContext(ctx, fmt.Sprintf(schemaTemplate, table)); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}
	var format sq.PlaceholderFormat = sq.Question
	if client.Driver() == sqldb.DriverPostgres {
		format = sq.Dollar
	}
	return &SQL{
		client:  client,
		table:   table,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}, nil
}

func (s *SQL) Name() string { return "sql" }

func (s *SQL) Write(ctx context.Context, match record.Match) error {
	if n := utf8.RuneCountInString(match.ProductName); n > maxProductNameRunes {
		return resilience.Permanent(fmt.Errorf("product name %.40q... is %d characters, limit %d", match.ProductName, n, maxProductNameRunes))
	}
	del, delArgs, err := s.builder.Delete(s.table).
		Where(sq.Eq{"product_name": match.ProductName}).
		ToSql()
	if err != nil {
		return resilience.Permanent(fmt.Errorf("building delete: %w", err))
	}
	inserts, err := s.insertBatches(match)
	if err != nil {
		return resilience.Permanent(err)
	}

	return s.client.InTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
			return fmt.Errorf("clearing rows for %q: %w", match.ProductName, err)
		}
		for _, ins := range inserts {
			if _, err := tx.ExecContext(ctx, ins.query, ins.args...); err != nil {
				return fmt.Errorf("inserting rows for %q: %w", match.ProductName, err)
			}
		}
		return nil
	})
}

type statement struct {
	query string
	args  []any
}

// insertBatches splits the match's rows into INSERTs of at most
// insertBatchRows rows each, keeping every statement under the drivers'
// bind variable limits.
func (s *SQL) insertBatches(match record.Match) ([]statement, error) {
	var batches []statement
	for start := 0; start < len(match.Listings); start += insertBatchRows {
		end := min(start+insertBatchRows, len(match.Listings))
		insert := s.builder.Insert(s.table).
			Columns("product_name", "listing_position", "title", "manufacturer", "currency", "price")
		for i := start; i < end; i++ {
			l := match.Listings[i]
			insert = insert.Values(match.ProductName, i, l.Title, l.Manufacturer, l.Currency, l.Price)
		}
		q, args, err := insert.ToSql()
		if err != nil {
			return nil, fmt.Errorf("building insert: %w", err)
		}
		batches = append(batches, statement{query: q, args: args})
	}
	return batches, nil
}

// Matches reads back the listings stored for productName in claim order.
func (s *SQL) Matches(ctx context.Context, productName string) ([]record.ListingSnapshot, error) {
	q, args, err := s.builder.
		Select("title", "manufacturer", "currency", "price").
		From(s.table).
		Where(sq.Eq{"product_name": productName}).
		OrderBy("listing_position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	var rows []matchRow
	if err := s.client.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("reading matches for %q: %w", productName, err)
	}
	out := make([]record.ListingSnapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, record.ListingSnapshot{
			Title:        r.Title,
			Manufacturer: r.Manufacturer,
			Currency:     r.Currency,
			Price:        r.Price,
		})
	}
	return out, nil
}

func (s *SQL) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *SQL) Close() error { return s.client.Close() }
