package flint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kzs0/flint/trace"
)

func TestHTTPMiddleware_PreservesRequestContext(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	type ctxKey string
	var capturedUserID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Context().Value(ctxKey("user_id")); userID != nil {
			capturedUserID = userID.(string)
		}
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(ctx, handler)

	req := httptest.NewRequest("GET", "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), ctxKey("user_id"), "user-123"))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if capturedUserID != "user-123" {
		t.Errorf("expected user_id 'user-123', got %q", capturedUserID)
	}
}

func TestHTTPMiddleware_AddsFlint(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	var captured *Flint
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(ctx, handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if captured == nil {
		t.Fatal("expected flint in request context")
	}
	if captured.isNoop {
		t.Error("expected real flint, not noop")
	}
}

func TestHTTPMiddleware_StartsServerSpan(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	var span *trace.Span
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span = trace.SpanFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(ctx, handler, WithSpanName("users.list"))

	req := httptest.NewRequest("GET", "/users", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if span == nil {
		t.Fatal("expected span in request context")
	}
	if span.Name() != "users.list" {
		t.Errorf("span name = %q, want users.list", span.Name())
	}
	if span.Kind() != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", span.Kind())
	}
	if span.TraceID().IsZero() {
		t.Error("expected non-zero trace ID")
	}
}

func TestHTTPMiddleware_ContinuesRemoteTrace(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	var span *trace.Span
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span = trace.SpanFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(ctx, handler)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if span == nil {
		t.Fatal("expected span in request context")
	}
	if span.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID = %s, want continuation of remote trace", span.TraceID())
	}
	if span.ParentID().String() != "00f067aa0ba902b7" {
		t.Errorf("parent ID = %s, want remote span ID", span.ParentID())
	}
	if span.SpanID().String() == "00f067aa0ba902b7" {
		t.Error("expected a fresh span ID, not the remote one")
	}
}

func TestHTTPMiddleware_PropagationDisabled(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	var span *trace.Span
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span = trace.SpanFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(ctx, handler, WithTracePropagation(false))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	if span.TraceID().String() == "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Error("expected a new trace when propagation is disabled")
	}
}

func TestHTTPMiddleware_ErrorStatus(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	var span *trace.Span
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span = trace.SpanFromContext(r.Context())
		w.WriteHeader(http.StatusInternalServerError)
	})

	wrapped := HTTPMiddleware(ctx, handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	status, msg := span.Status()
	if status != trace.StatusError {
		t.Errorf("status = %v, want error", status)
	}
	if msg != "HTTP 500" {
		t.Errorf("msg = %q, want 'HTTP 500'", msg)
	}
}

func TestHTTPMiddleware_CustomSuccessCodes(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	var span *trace.Span
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span = trace.SpanFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})

	// 404 declared a success for this route.
	wrapped := HTTPMiddleware(ctx, handler, WithSuccessCodes(http.StatusOK, http.StatusNotFound))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	status, _ := span.Status()
	if status != trace.StatusOK {
		t.Errorf("status = %v, want ok", status)
	}
}

func TestHTTPMiddleware_CountsRequests(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(ctx, handler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		wrapped.ServeHTTP(httptest.NewRecorder(), req)
	}

	var total uint64
	for _, fam := range FromContext(ctx).Metrics().Gather() {
		if fam.Name == "http_requests_total" {
			for _, m := range fam.Metrics {
				total += m.Value
			}
		}
	}
	if total != 3 {
		t.Errorf("http_requests_total = %d, want 3", total)
	}
}
