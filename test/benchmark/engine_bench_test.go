package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/matcher"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/record"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/metrics"
)

func syntheticProducts(n int) []record.Product {
	products := make([]record.Product, n)
	for i := range products {
		maker := manufacturers[i%len(manufacturers)]
		products[i] = record.Product{
			ProductName:  fmt.Sprintf("%s_Model-%d", maker, i),
			Manufacturer: maker,
			Model:        fmt.Sprintf("Model-%d", i),
		}
	}
	return products
}

var discard = matcher.EmitterFunc(func(context.Context, record.Match) error { return nil })

// BenchmarkEngineRun measures a full matching pass, sequential and with
// prefetching workers.
func BenchmarkEngineRun(b *testing.B) {
	listings := syntheticListings(20000)
	products := syntheticProducts(500)
	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				reg := prometheus.NewRegistry()
				e := matcher.NewEngine(config.MatchingConfig{Workers: workers, MaxHitsPerProduct: 1000000}, metrics.NewWithRegistry(reg, reg))
				if err := e.Build(listings); err != nil {
					b.Fatal(err)
				}
				b.StartTimer()
				if _, err := e.Run(context.Background(), products, discard); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
