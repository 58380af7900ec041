package flint

import (
	"context"
	"log/slog"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/metric"
	"github.com/kzs0/flint/trace"
)

// StartSpan starts a span using the tracer from the context. A parent
// span already in ctx becomes the parent; use trace.WithRemoteParent to
// continue a trace extracted from a carrier.
//
// Usage:
//
//	ctx, span := flint.StartSpan(ctx, "process_user")
//	defer span.End()
func StartSpan(ctx context.Context, name string, opts ...trace.StartSpanOption) (context.Context, *trace.Span) {
	f := flintFromContext(ctx)
	return f.tracer.Start(ctx, name, opts...)
}

// Counter creates or retrieves a counter metric from the flint instance
// in context. If flint is not initialized in context, the counter is
// registered on a noop instance and never exposed.
//
// Usage:
//
//	counter := flint.Counter(ctx, "http_requests_total", "Total HTTP requests", "method")
//	counter.With(attr.String("method", "GET")).Inc()
func Counter(ctx context.Context, name, help string, labelNames ...string) *metric.Counter {
	f := flintFromContext(ctx)
	return f.metrics.Counter(name, help, labelNames...)
}

// Debug logs a debug message with the given attributes.
// Uses the flint logger from context, which includes static attributes.
func Debug(ctx context.Context, msg string, attrs ...attr.Attr) {
	f := flintFromContext(ctx)
	f.logBridge.Debug(ctx, msg, attrs...)
}

// Info logs an info message with the given attributes.
// Uses the flint logger from context, which includes static attributes.
func Info(ctx context.Context, msg string, attrs ...attr.Attr) {
	f := flintFromContext(ctx)
	f.logBridge.Info(ctx, msg, attrs...)
}

// Warn logs a warning message with the given attributes.
// Uses the flint logger from context, which includes static attributes.
func Warn(ctx context.Context, msg string, attrs ...attr.Attr) {
	f := flintFromContext(ctx)
	f.logBridge.Warn(ctx, msg, attrs...)
}

// Error logs an error message with the given attributes.
// Uses the flint logger from context, which includes static attributes.
func Error(ctx context.Context, msg string, attrs ...attr.Attr) {
	f := flintFromContext(ctx)
	f.logBridge.Error(ctx, msg, attrs...)
}

// Log logs a message at the given level with attributes.
// Uses the flint logger from context, which includes static attributes.
func Log(ctx context.Context, level slog.Level, msg string, attrs ...attr.Attr) {
	f := flintFromContext(ctx)
	f.logBridge.Log(ctx, level, msg, attrs...)
}
