package trace

import (
	"context"

	"github.com/kzs0/flint/id"
)

type contextKey int

const (
	spanContextKey contextKey = iota
)

// SpanContext is the propagatable part of a span: the identifiers and
// flags that cross process boundaries.
type SpanContext struct {
	TraceID    id.TraceID
	SpanID     id.SpanID
	Tracestate string // W3C tracestate for passthrough propagation
	IsRemote   bool   // true if extracted from an incoming carrier
	Sampled    bool   // sampled flag from the traceparent header
}

// IsValid reports whether both IDs are non-zero.
func (sc SpanContext) IsValid() bool {
	return !sc.TraceID.IsZero() && !sc.SpanID.IsZero()
}

// NewRemoteSpanContext builds a SpanContext from extracted W3C Trace
// Context values.
func NewRemoteSpanContext(traceID id.TraceID, spanID id.SpanID, tracestate string, sampled bool) SpanContext {
	return SpanContext{
		TraceID:    traceID,
		SpanID:     spanID,
		Tracestate: tracestate,
		IsRemote:   true,
		Sampled:    sampled,
	}
}

// ContextWithSpan returns a new context with the span attached.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanContextKey, span)
}

// SpanFromContext returns the span from the context, or nil if none.
func SpanFromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanContextKey).(*Span); ok {
		return span
	}
	return nil
}

// SpanContextFromContext returns the span context of the active span,
// zero if the context carries no span.
func SpanContextFromContext(ctx context.Context) SpanContext {
	span := SpanFromContext(ctx)
	if span == nil {
		return SpanContext{}
	}
	return SpanContext{
		TraceID:    span.traceID,
		SpanID:     span.spanID,
		Tracestate: span.tracestate,
		IsRemote:   false,
		Sampled:    true, // a live local span was sampled
	}
}
