// Package grpcmeta propagates W3C Trace Context over gRPC metadata.
package grpcmeta

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/metadata"

	"github.com/kzs0/flint/trace"
	"github.com/kzs0/flint/trace/w3c"
)

const (
	traceparentKey = "traceparent"
	tracestateKey  = "tracestate"
)

// Propagator implements trace.Propagator for metadata.MD carriers using
// the W3C Trace Context format. Metadata keys are case-insensitive and
// stored lowercase; multiple tracestate values combine with commas.
//
// Server side, extract from the incoming context:
//
//	md, _ := metadata.FromIncomingContext(ctx)
//	remote, err := prop.Extract(md)
//
// Client side, inject into outgoing metadata:
//
//	md := metadata.New(nil)
//	prop.Inject(ctx, md)
//	ctx = metadata.NewOutgoingContext(ctx, md)
type Propagator struct{}

// Extract reads traceparent and tracestate from the metadata and returns
// a remote SpanContext. The carrier must be a metadata.MD.
func (p *Propagator) Extract(carrier any) (trace.SpanContext, error) {
	md, ok := carrier.(metadata.MD)
	if !ok {
		return trace.SpanContext{}, errors.New("carrier must be metadata.MD")
	}

	values := md.Get(traceparentKey)
	if len(values) == 0 {
		return trace.SpanContext{}, errors.New("traceparent not found in metadata")
	}

	traceID, parentID, flags, err := w3c.ParseTraceparent(values[0])
	if err != nil {
		// Invalid traceparent: ignore both entries and start new trace.
		return trace.SpanContext{}, fmt.Errorf("failed to parse traceparent: %w", err)
	}

	sampled := (flags & w3c.SampledFlag) != 0

	var tracestate string
	if values := md.Get(tracestateKey); len(values) > 0 {
		tracestate = strings.Join(values, ",")
		if _, err := w3c.ParseTracestate(tracestate); err != nil {
			// Invalid tracestate does not invalidate the traceparent.
			tracestate = ""
		}
	}

	return trace.NewRemoteSpanContext(traceID, parentID, tracestate, sampled), nil
}

// Inject writes the active span's trace context into the metadata. The
// carrier must be a metadata.MD. A no-op when ctx carries no recording
// span.
func (p *Propagator) Inject(ctx context.Context, carrier any) error {
	md, ok := carrier.(metadata.MD)
	if !ok {
		return errors.New("carrier must be metadata.MD")
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return nil
	}

	// A recording span was sampled.
	md.Set(traceparentKey, w3c.FormatTraceparent(span.TraceID(), span.SpanID(), true))

	if ts := span.Tracestate(); ts != "" {
		md.Set(tracestateKey, ts)
	}

	return nil
}
