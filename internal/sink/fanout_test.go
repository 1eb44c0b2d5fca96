package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	goredis "github.com/redis/go-redis/v9"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/listing-matcher/internal/sink/mock_sink"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/listing-matcher/pkg/metrics"
)

func newTestMetrics() *metrics.Metrics {
	reg := prometheus.NewRegistry()
	return metrics.NewWithRegistry(reg, reg)
}

func TestFanoutWritesToEverySink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newTestMetrics()
	match := sampleMatch("Canon_SD500", "Canon SD500")

	good := mock_sink.NewMockSink(ctrl)
	good.EXPECT().Name().Return("good").AnyTimes()
	good.EXPECT().Write(gomock.Any(), match).Return(nil)

	bad := mock_sink.NewMockSink(ctrl)
	bad.EXPECT().Name().Return("bad").AnyTimes()
	bad.EXPECT().Write(gomock.Any(), match).Return(errors.New("connection refused"))

	f := NewFanout(m, good, bad)
	err := f.Emit(context.Background(), match)
	if err == nil {
		t.Fatal("expected joined error from failing sink")
	}

	if got := testutil.ToFloat64(m.SinkWritesTotal.WithLabelValues("good", statusOK)); got != 1 {
		t.Errorf("good ok writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SinkWritesTotal.WithLabelValues("bad", statusError)); got != 1 {
		t.Errorf("bad error writes = %v, want 1", got)
	}
}

func TestFanoutNoErrorWhenAllSucceed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := mock_sink.NewMockSink(ctrl)
	s.EXPECT().Name().Return("only").AnyTimes()
	s.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	f := NewFanout(newTestMetrics(), s)
	for _, name := range []string{"A", "B"} {
		if err := f.Emit(context.Background(), sampleMatch(name, "x")); err != nil {
			t.Fatalf("Emit(%s): %v", name, err)
		}
	}
}

func TestFanoutCloseClosesAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := mock_sink.NewMockSink(ctrl)
	a.EXPECT().Name().Return("a").AnyTimes()
	a.EXPECT().Close().Return(errors.New("already closed"))
	b := mock_sink.NewMockSink(ctrl)
	b.EXPECT().Name().Return("b").AnyTimes()
	b.EXPECT().Close().Return(nil)

	if err := NewFanout(newTestMetrics(), a, b).Close(); err == nil {
		t.Fatal("expected close error from sink a")
	}
}

type fakeStore struct {
	keys    map[string]string
	ttls    map[string]time.Duration
	pingErr error
	closed  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	value, ok := f.keys[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.keys[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func TestFanoutRegisterHealth(t *testing.T) {
	jsonl, err := OpenJSONL(t.TempDir()+"/result.jsonl", true)
	if err != nil {
		t.Fatal(err)
	}
	defer jsonl.Close()

	store := newFakeStore()
	store.pingErr = errors.New("dial tcp: refused")

	checker := health.NewChecker()
	NewFanout(newTestMetrics(), jsonl, NewRedis(store, "match:", time.Hour)).RegisterHealth(checker)

	report := checker.Run(context.Background())
	if _, ok := report.Components["jsonl"]; ok {
		t.Error("jsonl sink should not register a health check")
	}
	got, ok := report.Components["redis"]
	if !ok {
		t.Fatal("redis sink health check missing")
	}
	if got.Status != health.StatusDown {
		t.Errorf("redis status = %s, want down", got.Status)
	}
	if report.Status != health.StatusDown {
		t.Errorf("overall status = %s, want down", report.Status)
	}
}
