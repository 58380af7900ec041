// Package transport provides an instrumented http.RoundTripper for
// advanced cases needing direct transport control. For typical usage,
// use the HTTP client functions in the root flint package instead.
package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/trace"
	httpProp "github.com/kzs0/flint/trace/http"
)

// Tracer is the interface for starting spans. This avoids an import
// cycle with the flint package.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.StartSpanOption) (context.Context, *trace.Span)
}

// Transport is an http.RoundTripper that starts a client span for each
// request and injects W3C Trace Context headers (traceparent,
// tracestate).
type Transport struct {
	// Base is the underlying http.RoundTripper.
	// If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Tracer is used to create spans. If nil, tracing is disabled.
	Tracer Tracer
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if t.Tracer == nil {
		return t.base().RoundTrip(req)
	}

	spanName := fmt.Sprintf("HTTP %s", req.Method)

	spanCtx, span := t.Tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttrs(
			attr.String("http.method", req.Method),
			attr.String("http.url", req.URL.String()),
			attr.String("http.host", req.URL.Host),
			attr.String("http.target", req.URL.Path),
		),
	)
	defer span.End()

	prop := &httpProp.Propagator{}
	_ = prop.Inject(spanCtx, req.Header)

	req = req.WithContext(spanCtx)

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(trace.StatusError, err.Error())
		return resp, err
	}

	if resp != nil {
		span.SetAttr(attr.Int("http.status_code", resp.StatusCode))

		if resp.StatusCode >= 400 {
			span.SetStatus(trace.StatusError, fmt.Sprintf("HTTP %d", resp.StatusCode))
		} else {
			span.SetStatus(trace.StatusOK, "")
		}
	}

	return resp, nil
}

// base returns the base RoundTripper, defaulting to http.DefaultTransport.
func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
