package otlp

import (
	"context"
	"sync"
	"time"

	"github.com/kzs0/flint/metric"
	"github.com/kzs0/flint/trace"
)

// BatchProcessorConfig configures the batch processor.
type BatchProcessorConfig struct {
	// MaxQueueSize is the maximum number of spans to queue.
	MaxQueueSize int
	// BatchSize is the maximum number of spans per export.
	BatchSize int
	// BatchTimeout is the maximum time to wait before exporting.
	BatchTimeout time.Duration
	// Metrics receives enqueue, export, and drop counters. Nil disables
	// counting.
	Metrics *metric.Registry
}

// DefaultBatchConfig returns default batch processor configuration.
func DefaultBatchConfig() BatchProcessorConfig {
	return BatchProcessorConfig{
		MaxQueueSize: 2048,
		BatchSize:    512,
		BatchTimeout: 5 * time.Second,
	}
}

// BatchProcessor batches spans before sending to an exporter.
type BatchProcessor struct {
	cfg      BatchProcessorConfig
	exporter *Exporter

	enqueued *metric.Counter
	exported *metric.Counter
	dropped  *metric.Counter

	mu      sync.Mutex
	queue   []*trace.Span
	timer   *time.Timer
	stopped bool
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(exporter *Exporter, cfg BatchProcessorConfig) *BatchProcessor {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 2048
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 512
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 5 * time.Second
	}

	bp := &BatchProcessor{
		cfg:      cfg,
		exporter: exporter,
		queue:    make([]*trace.Span, 0, cfg.BatchSize),
	}

	if cfg.Metrics != nil {
		bp.enqueued = cfg.Metrics.Counter("spans_enqueued_total", "spans accepted for batched export")
		bp.exported = cfg.Metrics.Counter("spans_exported_total", "spans handed to the exporter")
		bp.dropped = cfg.Metrics.Counter("spans_dropped_total", "spans dropped due to a full queue")
	}

	return bp
}

var _ trace.Exporter = (*BatchProcessor)(nil)

// ExportSpans enqueues every span for batched export. It implements
// trace.Exporter so the processor can sit in the tracer's export path
// in front of the wire exporter.
func (bp *BatchProcessor) ExportSpans(_ context.Context, spans []*trace.Span) error {
	for _, span := range spans {
		bp.EnqueueSpan(span)
	}
	return nil
}

// EnqueueSpan adds a span to the queue for batched export.
func (bp *BatchProcessor) EnqueueSpan(span *trace.Span) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.stopped {
		return
	}

	// Drop oldest spans if queue is full
	if len(bp.queue) >= bp.cfg.MaxQueueSize {
		bp.queue = bp.queue[1:]
		if bp.dropped != nil {
			bp.dropped.Inc()
		}
	}

	bp.queue = append(bp.queue, span)
	if bp.enqueued != nil {
		bp.enqueued.Inc()
	}

	// Start timer if this is the first span
	if len(bp.queue) == 1 {
		bp.timer = time.AfterFunc(bp.cfg.BatchTimeout, bp.flush)
	}

	// Export if batch is full
	if len(bp.queue) >= bp.cfg.BatchSize {
		bp.exportLocked()
	}
}

// flush exports the current batch.
func (bp *BatchProcessor) flush() {
	bp.mu.Lock()
	bp.exportLocked()
	bp.mu.Unlock()
}

// exportLocked exports spans while holding the lock.
func (bp *BatchProcessor) exportLocked() {
	if len(bp.queue) == 0 {
		return
	}

	if bp.timer != nil {
		bp.timer.Stop()
		bp.timer = nil
	}

	spans := bp.queue
	bp.queue = make([]*trace.Span, 0, bp.cfg.BatchSize)
	if bp.exported != nil {
		bp.exported.Add(uint64(len(spans)))
	}

	// Export in background
	go bp.exporter.ExportSpans(context.Background(), spans)
}

// Shutdown stops the processor and exports remaining spans.
func (bp *BatchProcessor) Shutdown(ctx context.Context) error {
	bp.mu.Lock()
	if bp.stopped {
		bp.mu.Unlock()
		return nil
	}
	bp.stopped = true

	if bp.timer != nil {
		bp.timer.Stop()
	}

	if len(bp.queue) > 0 {
		spans := bp.queue
		bp.queue = nil
		if bp.exported != nil {
			bp.exported.Add(uint64(len(spans)))
		}
		bp.mu.Unlock()
		return bp.exporter.ExportSpans(ctx, spans)
	}

	bp.mu.Unlock()
	return nil
}
