package sqldb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/config"
)

func openMemory(t *testing.T) *Client {
	t.Helper()
	c, err := Open(config.SQLConfig{Driver: DriverSQLite, DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	if _, err := c.DB.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	return c
}

func count(t *testing.T, c *Client) int {
	t.Helper()
	var n int
	if err := c.DB.Get(&n, `SELECT COUNT(*) FROM kv`); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestInTxCommits(t *testing.T) {
	c := openMemory(t)
	err := c.InTx(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO kv (k, v) VALUES ('a', '1')`)
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if n := count(t, c); n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestInTxRollsBack(t *testing.T) {
	c := openMemory(t)
	boom := errors.New("boom")
	err := c.InTx(context.Background(), func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO kv (k, v) VALUES ('a', '1')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}
	if n := count(t, c); n != 0 {
		t.Errorf("rows = %d, want 0 after rollback", n)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(config.SQLConfig{Driver: "nope", DSN: "x"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestDriver(t *testing.T) {
	c := openMemory(t)
	if c.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q", c.Driver())
	}
}

func TestInTxRollbackFailureKeepsCause(t *testing.T) {
	c := openMemory(t)
	boom := errors.New("boom")
	err := c.InTx(context.Background(), func(tx *sqlx.Tx) error {
		if err := tx.Rollback(); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx error = %v, want boom", err)
	}
	if !strings.HasPrefix(err.Error(), "boom (rollback: ") {
		t.Errorf("error = %q, want cause first and rollback failure second", err)
	}
}
