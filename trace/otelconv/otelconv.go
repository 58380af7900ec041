// Package otelconv converts between flint trace identifiers and the
// OpenTelemetry API types, for interop with OTel-instrumented libraries.
package otelconv

import (
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/kzs0/flint/id"
	"github.com/kzs0/flint/trace"
)

// TraceID converts a flint trace ID to an OTel trace ID. Both are
// 16-byte values, so the conversion is a straight copy.
func TraceID(t id.TraceID) oteltrace.TraceID {
	return oteltrace.TraceID(t)
}

// FromTraceID converts an OTel trace ID to a flint trace ID.
func FromTraceID(t oteltrace.TraceID) id.TraceID {
	return id.TraceID(t)
}

// SpanID converts a flint span ID to an OTel span ID.
func SpanID(s id.SpanID) oteltrace.SpanID {
	return oteltrace.SpanID(s)
}

// FromSpanID converts an OTel span ID to a flint span ID.
func FromSpanID(s oteltrace.SpanID) id.SpanID {
	return id.SpanID(s)
}

// SpanContext converts a flint SpanContext to an OTel SpanContext. An
// invalid tracestate is dropped rather than failing the conversion.
func SpanContext(sc trace.SpanContext) oteltrace.SpanContext {
	var flags oteltrace.TraceFlags
	if sc.Sampled {
		flags = oteltrace.FlagsSampled
	}

	cfg := oteltrace.SpanContextConfig{
		TraceID:    TraceID(sc.TraceID),
		SpanID:     SpanID(sc.SpanID),
		TraceFlags: flags,
		Remote:     sc.IsRemote,
	}

	if sc.Tracestate != "" {
		if ts, err := oteltrace.ParseTraceState(sc.Tracestate); err == nil {
			cfg.TraceState = ts
		}
	}

	return oteltrace.NewSpanContext(cfg)
}

// FromSpanContext converts an OTel SpanContext to a flint SpanContext.
func FromSpanContext(sc oteltrace.SpanContext) trace.SpanContext {
	return trace.SpanContext{
		TraceID:    FromTraceID(sc.TraceID()),
		SpanID:     FromSpanID(sc.SpanID()),
		Tracestate: sc.TraceState().String(),
		IsRemote:   sc.IsRemote(),
		Sampled:    sc.IsSampled(),
	}
}
