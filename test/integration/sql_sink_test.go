//go:build integration

// Package integration runs the SQL match sink against a real PostgreSQL or
// MySQL server.
//
// Run with:
//
//	TEST_SQL_DRIVER=postgres TEST_SQL_DSN="host=localhost user=matcher password=localdev dbname=matcher_test sslmode=disable" \
//	    go test -v -tags=integration ./test/integration/...
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/sqldb"
)

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// skipIfNoDatabase skips the test when the configured server is unavailable.
func skipIfNoDatabase(t *testing.T) *sqldb.Client {
	t.Helper()
	cfg := config.SQLConfig{
		Driver:          envOrDefault("TEST_SQL_DRIVER", sqldb.DriverPostgres),
		DSN:             envOrDefault("TEST_SQL_DSN", "host=localhost port=5432 user=matcher password=localdev dbname=matcher_test sslmode=disable"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
	client, err := sqldb.Open(cfg)
	if err != nil {
		t.Skipf("skipping integration test: %s unavailable: %v", cfg.Driver, err)
	}
	return client
}

func TestSQLSinkRoundTrip(t *testing.T) {
	client := skipIfNoDatabase(t)
	ctx := context.Background()
	table := fmt.Sprintf("product_matches_it_%d", time.Now().UnixNano())

	s, err := sink.NewSQL(ctx, client, table)
	if err != nil {
		client.Close()
		t.Fatalf("NewSQL: %v", err)
	}
	t.Cleanup(func() {
		client.DB.Exec("DROP TABLE " + table)
		s.Close()
	})

	match := record.Match{
		ProductName: "Canon_PowerShot_SD500",
		Listings: []record.ListingSnapshot{
			{Title: "Canon PowerShot SD500 7MP", Manufacturer: "Canon", Currency: "USD", Price: "199.99"},
			{Title: "Canon SD500 Digital Elph", Manufacturer: "Canon Canada", Currency: "CAD", Price: "249.00"},
		},
	}
	if err := s.Write(ctx, match); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Matches(ctx, match.ProductName)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if diff := cmp.Diff(match.Listings, got); diff != "" {
		t.Errorf("listings mismatch (-want +got):\n%s", diff)
	}

	match.Listings = match.Listings[:1]
	if err := s.Write(ctx, match); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, err = s.Matches(ctx, match.ProductName)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d rows after rewrite, want 1", len(got))
	}
}
