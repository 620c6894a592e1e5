package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/tsg-reader/internal/domain"
	"github.com/couchcryptid/tsg-reader/internal/observability"
)

// BatchExtractor reads up to batchSize raw lines from the source. A source
// that has nothing more to deliver returns an error wrapping io.EOF.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawLine, error)
}

// Transformer converts a raw line into a record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawLine) (domain.Record, error)
}

// BatchLoader writes multiple records to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.Record) error
}

// Sink is a named BatchLoader. The name labels metrics and log lines.
type Sink struct {
	Name   string
	Loader BatchLoader
}

const (
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
	maxLoadAttempts = 3
)

// Pipeline orchestrates the read-parse-store loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	sinks       []Sink
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	last        atomic.Pointer[domain.Record]
	batchSize   int

	loadBackoff time.Duration
}

// New creates a Pipeline that fans each parsed batch out to every sink.
func New(e BatchExtractor, t Transformer, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		sinks:       sinks,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		loadBackoff: initialBackoff,
	}
}

// CheckReadiness returns nil once the pipeline has stored at least one record,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not stored any records yet")
	}
	return nil
}

// LastRecord returns the most recently parsed record, if any.
func (p *Pipeline) LastRecord() (domain.Record, bool) {
	rec := p.last.Load()
	if rec == nil {
		return domain.Record{}, false
	}
	return *rec, true
}

// Run executes the batch loop until the context is cancelled or the source is
// exhausted. Both end the run without error.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one read-parse-store cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		if errors.Is(err, io.EOF) {
			p.logger.Info("source exhausted, pipeline stopping")
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.LinesRead.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	records := p.transform(ctx, rawBatch)
	if len(records) == 0 {
		return true
	}

	if p.load(ctx, records) {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return ctx.Err() == nil
}

// transform parses each line in the batch. Lines that fail to parse are logged
// and counted, then skipped.
func (p *Pipeline) transform(ctx context.Context, rawBatch []domain.RawLine) []domain.Record {
	records := make([]domain.Record, 0, len(rawBatch))
	for _, raw := range rawBatch {
		rec, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("parse failed, skipping line",
				"error", err,
				"kind", domain.ErrorKind(err),
				"line", raw.Text,
				"source", raw.Source,
				"seq", raw.Seq,
			)
			p.metrics.ParseErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
			continue
		}
		p.metrics.LinesParsed.WithLabelValues(rec.Format.String()).Inc()
		p.metrics.LastSalinity.Set(rec.Salinity)
		p.metrics.LastTemperature.Set(rec.Temp)
		records = append(records, rec)
	}
	if n := len(records); n > 0 {
		last := records[n-1]
		p.last.Store(&last)
	}
	return records
}

// load hands the records to every sink. A sink that keeps failing drops the
// batch without holding back the others. Returns true if any sink stored the
// batch, or if there are no sinks.
func (p *Pipeline) load(ctx context.Context, records []domain.Record) bool {
	if len(p.sinks) == 0 {
		return true
	}
	stored := false
	for _, sink := range p.sinks {
		if p.loadSink(ctx, sink, records) {
			stored = true
		}
	}
	return stored
}

func (p *Pipeline) loadSink(ctx context.Context, sink Sink, records []domain.Record) bool {
	backoff := p.loadBackoff
	for attempt := 1; attempt <= maxLoadAttempts; attempt++ {
		err := sink.Loader.LoadBatch(ctx, records)
		if err == nil {
			p.metrics.RecordsLoaded.WithLabelValues(sink.Name).Add(float64(len(records)))
			return true
		}

		p.metrics.LoadErrors.WithLabelValues(sink.Name).Inc()
		p.logger.Error("load batch failed",
			"sink", sink.Name,
			"error", err,
			"attempt", attempt,
			"batch_size", len(records),
		)
		if attempt == maxLoadAttempts || !backoffOrStop(ctx, &backoff) {
			break
		}
	}

	p.metrics.RecordsDropped.WithLabelValues(sink.Name).Add(float64(len(records)))
	p.logger.Error("dropping batch", "sink", sink.Name, "records", len(records))
	return false
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}
