package flint

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/trace"
	httpProp "github.com/kzs0/flint/trace/http"
)

// HTTPMiddleware wraps an HTTP handler with server spans. Incoming W3C
// Trace Context headers continue the remote trace; otherwise each
// request starts a new one. It expects flint to already be in the
// context (use Init or WithFlint first).
//
// Usage:
//
//	ctx, done := flint.Init(ctx)
//	defer done()
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/users", handleUsers)
//
//	handler := flint.HTTPMiddleware(ctx, mux)
//	http.ListenAndServe(":8080", handler)
func HTTPMiddleware(ctx context.Context, handler http.Handler, opts ...MiddlewareOption) http.Handler {
	cfg := applyMiddlewareOptions(opts)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attrs := []attr.Attr{
			attr.String("http.method", r.Method),
			attr.String("http.path", r.URL.Path),
			attr.String("http.host", r.Host),
			attr.String("http.user_agent", r.UserAgent()),
		}
		if cfg.additionalAttrs != nil {
			attrs = append(attrs, cfg.additionalAttrs(r)...)
		}

		// Carry flint from the base context into the request context
		// without clobbering an instance already present.
		reqCtx := r.Context()
		baseFlint := flintFromContext(ctx)
		if flintFromContext(reqCtx).isNoop && !baseFlint.isNoop {
			reqCtx = WithFlint(reqCtx, baseFlint)
		}

		spanOpts := []trace.StartSpanOption{
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttrs(attrs...),
		}

		if cfg.tracePropagation {
			prop := &httpProp.Propagator{}
			if remote, err := prop.Extract(r.Header); err == nil && remote.IsValid() {
				spanOpts = append(spanOpts, trace.WithRemoteParent(remote))
			}
		}

		requests := baseFlint.metrics.Counter(
			"http_requests_total", "Requests served, by method and status",
			"http.method", "http.status_code",
		)

		spanCtx, span := StartSpan(reqCtx, cfg.spanName, spanOpts...)
		defer span.End()

		rw := &responseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		handler.ServeHTTP(rw, r.WithContext(spanCtx))

		span.SetAttr(attr.Int("http.status_code", rw.status))
		requests.With(
			attr.String("http.method", r.Method),
			attr.Int("http.status_code", rw.status),
		).Inc()

		failed := rw.status >= 400
		if cfg.successStatusCodes != nil {
			failed = !cfg.successStatusCodes[rw.status]
		}
		if failed {
			span.SetStatus(trace.StatusError, fmt.Sprintf("HTTP %d", rw.status))
		} else {
			span.SetStatus(trace.StatusOK, "")
		}
	})
}

// MiddlewareOption configures the HTTP middleware.
type MiddlewareOption func(*middlewareConfig)

// middlewareConfig holds HTTP middleware configuration.
type middlewareConfig struct {
	spanName           string
	additionalAttrs    func(*http.Request) []attr.Attr
	successStatusCodes map[int]bool
	tracePropagation   bool
}

// WithSpanName sets a custom server span name (default: "http.request").
func WithSpanName(name string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.spanName = name
	}
}

// WithAdditionalAttrs provides a function to extract additional attributes from the request.
func WithAdditionalAttrs(fn func(*http.Request) []attr.Attr) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.additionalAttrs = fn
	}
}

// WithSuccessCodes defines which HTTP status codes are considered successful.
// Default: 4xx and 5xx are failures, everything else is success.
func WithSuccessCodes(codes ...int) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.successStatusCodes = make(map[int]bool)
		for _, code := range codes {
			cfg.successStatusCodes[code] = true
		}
	}
}

// WithTracePropagation enables or disables W3C Trace Context propagation.
// Default: enabled (true).
func WithTracePropagation(enable bool) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.tracePropagation = enable
	}
}

// applyMiddlewareOptions applies middleware options.
func applyMiddlewareOptions(opts []MiddlewareOption) middlewareConfig {
	cfg := middlewareConfig{
		spanName:         "http.request",
		tracePropagation: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
