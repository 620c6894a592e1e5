package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/tsg-reader/internal/domain"
	"github.com/couchcryptid/tsg-reader/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyLoader struct {
	failures int
	calls    atomic.Int64
	stored   atomic.Int64
}

func (f *flakyLoader) LoadBatch(_ context.Context, records []domain.Record) error {
	if int(f.calls.Add(1)) <= f.failures {
		return errors.New("disk full")
	}
	f.stored.Add(int64(len(records)))
	return nil
}

func newLoadTestPipeline(sinks ...Sink) (*Pipeline, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	p := New(nil, NewTransformer(), sinks, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics, 10)
	p.loadBackoff = time.Millisecond
	return p, metrics
}

func TestLoad_RetriesUntilSuccess(t *testing.T) {
	sink := &flakyLoader{failures: 2}
	p, metrics := newLoadTestPipeline(Sink{Name: "sqlite", Loader: sink})

	ok := p.load(context.Background(), make([]domain.Record, 3))

	assert.True(t, ok)
	assert.Equal(t, int64(3), sink.calls.Load())
	assert.Equal(t, int64(3), sink.stored.Load())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.LoadErrors.WithLabelValues("sqlite")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.RecordsLoaded.WithLabelValues("sqlite")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.RecordsDropped.WithLabelValues("sqlite")), 0)
}

func TestLoad_DropsAfterMaxAttempts(t *testing.T) {
	broken := &flakyLoader{failures: maxLoadAttempts + 10}
	healthy := &flakyLoader{}
	p, metrics := newLoadTestPipeline(
		Sink{Name: "kafka", Loader: broken},
		Sink{Name: "csv", Loader: healthy},
	)

	ok := p.load(context.Background(), make([]domain.Record, 4))

	assert.True(t, ok, "one healthy sink is enough")
	assert.Equal(t, int64(maxLoadAttempts), broken.calls.Load())
	assert.Equal(t, int64(4), healthy.stored.Load())
	assert.InDelta(t, 4, testutil.ToFloat64(metrics.RecordsDropped.WithLabelValues("kafka")), 0)
	assert.InDelta(t, float64(maxLoadAttempts), testutil.ToFloat64(metrics.LoadErrors.WithLabelValues("kafka")), 0)
}

func TestLoad_AllSinksFailing(t *testing.T) {
	p, _ := newLoadTestPipeline(Sink{Name: "csv", Loader: &flakyLoader{failures: 100}})
	assert.False(t, p.load(context.Background(), make([]domain.Record, 1)))
}

func TestLoad_StopsRetryingOnCancel(t *testing.T) {
	sink := &flakyLoader{failures: 100}
	p, _ := newLoadTestPipeline(Sink{Name: "csv", Loader: sink})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, p.load(ctx, make([]domain.Record, 1)))
	assert.Equal(t, int64(1), sink.calls.Load())
}

func TestBackoffOrStop(t *testing.T) {
	backoff := time.Millisecond
	require.True(t, backoffOrStop(context.Background(), &backoff))
	assert.Equal(t, 2*time.Millisecond, backoff)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, backoffOrStop(ctx, &backoff))
	assert.Equal(t, 2*time.Millisecond, backoff, "a stopped pipeline does not advance the backoff")
}
