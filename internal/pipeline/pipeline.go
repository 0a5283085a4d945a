package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/observability"
)

// BatchExtractor reads up to batchSize chart request messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a chart request message into a serialized chart result.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes multiple chart results to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline consumes chart requests, computes each chart, and publishes the
// results.
//
// Delivery is at least once. A request whose chart depends on an unavailable
// upstream (ephemeris or geocoder) is retried in place with backoff and never
// committed while it is failing. A request that can never succeed, such as a
// malformed body or an unknown city, is logged and skipped. Offsets for a
// batch are committed in order only after its charts are published.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has published at least one
// chart.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any charts yet")
	}
	return nil
}

// Run processes batches until the context is cancelled. Work interrupted by
// cancellation is left uncommitted for redelivery.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	bo := newBackoff()
	for ctx.Err() == nil {
		p.runBatch(ctx, bo)
	}
	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// runBatch takes one batch from extraction to committed offsets.
func (p *Pipeline) runBatch(ctx context.Context, bo *backoff) {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("extract batch failed", "error", err, "retry_in", bo.delay)
			bo.wait(ctx)
		}
		return
	}
	if len(batch) == 0 {
		return
	}

	p.metrics.RequestsConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	bo.reset()

	charts := make([]domain.OutputEvent, 0, len(batch))
	for _, raw := range batch {
		out, publish, ok := p.compute(ctx, raw, bo)
		if !ok {
			return
		}
		if publish {
			charts = append(charts, out)
		}
	}

	if len(charts) > 0 {
		if !p.publish(ctx, charts, bo) {
			return
		}
		p.metrics.ResultsProduced.Add(float64(len(charts)))
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}

	// A commit covers every earlier offset in the partition, so skipped
	// requests are only committed once the charts before them are out.
	for _, raw := range batch {
		p.commit(ctx, raw)
	}
}

// compute transforms one request. Transient upstream failures are retried
// with backoff until the request succeeds or ctx ends. publish is false for a
// request that was rejected outright; ok is false when ctx ended first.
func (p *Pipeline) compute(ctx context.Context, raw domain.RawEvent, bo *backoff) (out domain.OutputEvent, publish, ok bool) {
	for {
		res, err := p.transformer.Transform(ctx, raw)
		switch {
		case err == nil:
			bo.reset()
			return res, true, true
		case ctx.Err() != nil:
			return domain.OutputEvent{}, false, false
		case domain.IsTransient(err):
			p.metrics.TransformRetries.Inc()
			p.logger.Warn("chart dependency unavailable, retrying request",
				append(messageAttrs(raw), "error", err, "retry_in", bo.delay)...)
			if !bo.wait(ctx) {
				return domain.OutputEvent{}, false, false
			}
		default:
			p.metrics.TransformErrors.Inc()
			p.logger.Warn("chart request rejected, skipping message",
				append(messageAttrs(raw), "error", err)...)
			return domain.OutputEvent{}, false, true
		}
	}
}

// publish writes charts, retrying the same batch until it lands. It returns
// false if ctx ends first.
func (p *Pipeline) publish(ctx context.Context, charts []domain.OutputEvent, bo *backoff) bool {
	for {
		err := p.loader.LoadBatch(ctx, charts)
		if err == nil {
			bo.reset()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(charts), "retry_in", bo.delay)
		if !bo.wait(ctx) {
			return false
		}
	}
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", append(messageAttrs(raw), "error", err)...)
	}
}

func messageAttrs(raw domain.RawEvent) []any {
	return []any{"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset}
}
