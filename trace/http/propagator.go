// Package http propagates W3C Trace Context over HTTP headers.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kzs0/flint/trace"
	"github.com/kzs0/flint/trace/w3c"
)

const (
	traceparentHeader = "traceparent"
	tracestateHeader  = "tracestate"
)

// Propagator implements trace.Propagator for http.Header carriers using
// the W3C Trace Context header format.
//
// Per the W3C spec: header names are case-insensitive, an invalid
// traceparent means both headers are ignored, and multiple tracestate
// headers combine per RFC 7230.
type Propagator struct{}

// Extract reads traceparent and tracestate from the headers and returns
// a remote SpanContext. The carrier must be an http.Header.
func (p *Propagator) Extract(carrier any) (trace.SpanContext, error) {
	headers, ok := carrier.(http.Header)
	if !ok {
		return trace.SpanContext{}, errors.New("carrier must be http.Header")
	}

	traceparent := headers.Get(traceparentHeader)
	if traceparent == "" {
		return trace.SpanContext{}, errors.New("traceparent header not found")
	}

	traceID, parentID, flags, err := w3c.ParseTraceparent(traceparent)
	if err != nil {
		// Invalid traceparent: ignore both headers and start new trace.
		return trace.SpanContext{}, fmt.Errorf("failed to parse traceparent: %w", err)
	}

	sampled := (flags & w3c.SampledFlag) != 0

	var tracestate string
	if values := headers.Values(tracestateHeader); len(values) > 0 {
		tracestate = strings.Join(values, ",")
		if _, err := w3c.ParseTracestate(tracestate); err != nil {
			// Invalid tracestate does not invalidate the traceparent.
			tracestate = ""
		}
	}

	return trace.NewRemoteSpanContext(traceID, parentID, tracestate, sampled), nil
}

// Inject writes the active span's trace context into the headers. The
// carrier must be an http.Header. A no-op when ctx carries no recording
// span.
func (p *Propagator) Inject(ctx context.Context, carrier any) error {
	headers, ok := carrier.(http.Header)
	if !ok {
		return errors.New("carrier must be http.Header")
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return nil
	}

	// A recording span was sampled.
	headers.Set(traceparentHeader, w3c.FormatTraceparent(span.TraceID(), span.SpanID(), true))

	if ts := span.Tracestate(); ts != "" {
		headers.Set(tracestateHeader, ts)
	}

	return nil
}
