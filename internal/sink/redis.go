package sink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	pkgredis "github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/redis"
)

// KeyValueStore is the subset of redis.Client the Redis sink needs.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Redis stores each match as JSON under prefix + sha256(product name).
type Redis struct {
	store  KeyValueStore
	prefix string
	ttl    time.Duration
}

func NewRedis(store KeyValueStore, prefix string, ttl time.Duration) *Redis {
	return &Redis{store: store, prefix: prefix, ttl: ttl}
}

func (r *Redis) Name() string { return "redis" }

// Key returns the key a product's match is stored under.
func (r *Redis) Key(productName string) string {
	sum := sha256.Sum256([]byte(productName))
	return r.prefix + hex.EncodeToString(sum[:])
}

func (r *Redis) Write(ctx context.Context, match record.Match) error {
	value, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("encoding match %q: %w", match.ProductName, err)
	}
	if err := r.store.Set(ctx, r.Key(match.ProductName), value, r.ttl); err != nil {
		return fmt.Errorf("storing match %q: %w", match.ProductName, err)
	}
	return nil
}

// Match reads back the match stored for productName. The boolean is false
// when the key is missing or has expired.
func (r *Redis) Match(ctx context.Context, productName string) (record.Match, bool, error) {
	value, err := r.store.Get(ctx, r.Key(productName))
	if pkgredis.IsNilError(err) {
		return record.Match{}, false, nil
	}
	if err != nil {
		return record.Match{}, false, fmt.Errorf("reading match %q: %w", productName, err)
	}
	var match record.Match
	if err := json.Unmarshal([]byte(value), &match); err != nil {
		return record.Match{}, false, fmt.Errorf("decoding match %q: %w", productName, err)
	}
	return match, true, nil
}

func (r *Redis) Ping(ctx context.Context) error { return r.store.Ping(ctx) }

func (r *Redis) Close() error { return r.store.Close() }
