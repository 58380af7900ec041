package flint

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/trace"
)

func TestInit(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	f := FromContext(ctx)
	if f == nil {
		t.Fatal("expected flint in context")
	}

	if f.Logger() == nil {
		t.Error("expected logger")
	}
	if f.Metrics() == nil {
		t.Error("expected metrics registry")
	}
	if f.Tracer() == nil {
		t.Error("expected tracer")
	}
	if f.IsNoop() {
		t.Error("expected real instance, not noop")
	}
}

func TestStartSpan(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service"}),
	)
	defer done()

	ctx, parent := StartSpan(ctx, "parent")
	defer parent.End()

	_, child := StartSpan(ctx, "child")
	defer child.End()

	if parent.TraceID() != child.TraceID() {
		t.Error("expected same trace ID for parent and child")
	}
	if child.ParentID() != parent.SpanID() {
		t.Error("expected child parent ID to be parent span ID")
	}
	if parent.TraceID().IsZero() {
		t.Error("expected non-zero trace ID")
	}
}

func TestStartSpanWithoutInit(t *testing.T) {
	// Falls back to the noop instance; spans still carry IDs so trace
	// context can propagate, they just never export.
	ctx, span := StartSpan(context.Background(), "orphan")
	defer span.End()

	if span.TraceID().IsZero() {
		t.Error("expected non-zero trace ID from noop instance")
	}
	if got := trace.SpanFromContext(ctx); got != span {
		t.Error("expected span in context")
	}
}

func TestLoggingIncludesTraceContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service", LogOutput: &buf}),
	)
	defer done()

	ctx, span := StartSpan(ctx, "op")
	Info(ctx, "hello", attr.String("key", "value"))
	span.End()

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid log JSON: %v", err)
	}
	if record["trace_id"] != span.TraceID().String() {
		t.Errorf("trace_id = %v, want %s", record["trace_id"], span.TraceID())
	}
	if record["span_id"] != span.SpanID().String() {
		t.Errorf("span_id = %v, want %s", record["span_id"], span.SpanID())
	}
	if record["key"] != "value" {
		t.Errorf("key = %v, want value", record["key"])
	}
}

func TestCounterFacade(t *testing.T) {
	ctx, done := Init(context.Background(),
		WithConfig(Config{Service: "test-service", MetricPrefix: "svc"}),
	)
	defer done()

	Counter(ctx, "things_total", "things").Inc()

	families := FromContext(ctx).Metrics().Gather()
	if len(families) != 1 || families[0].Name != "svc_things_total" {
		t.Fatalf("unexpected families: %+v", families)
	}
	if families[0].Metrics[0].Value != 1 {
		t.Errorf("value = %d, want 1", families[0].Metrics[0].Value)
	}
}

func TestFromEnv(t *testing.T) {
	os.Setenv("FLINT_SERVICE", "env-service")
	os.Setenv("FLINT_TRACE_SAMPLE_RATE", "0.25")
	os.Setenv("FLINT_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("FLINT_SERVICE")
		os.Unsetenv("FLINT_TRACE_SAMPLE_RATE")
		os.Unsetenv("FLINT_LOG_LEVEL")
	}()

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Service != "env-service" {
		t.Errorf("Service = %q, want env-service", cfg.Service)
	}
	if cfg.TraceSampleRate != 0.25 {
		t.Errorf("TraceSampleRate = %v, want 0.25", cfg.TraceSampleRate)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Service != "unknown" {
		t.Errorf("Service = %q, want unknown", cfg.Service)
	}
	if cfg.TraceSampleRate != 1.0 {
		t.Errorf("TraceSampleRate = %v, want 1.0", cfg.TraceSampleRate)
	}
	if cfg.logLevel().String() != "INFO" {
		t.Errorf("log level = %v, want INFO", cfg.logLevel())
	}
}

func TestNoopFallback(t *testing.T) {
	f := flintFromContext(context.Background())
	if !f.IsNoop() {
		t.Error("expected noop instance")
	}
	// Logging through noop must not panic or write anywhere visible.
	Info(context.Background(), "discarded")
}

func counterValueByName(f *Flint, name string) uint64 {
	for _, family := range f.Metrics().Gather() {
		if family.Name != name {
			continue
		}
		var total uint64
		for _, m := range family.Metrics {
			total += m.Value
		}
		return total
	}
	return 0
}

func TestSpansExportThroughBatchProcessor(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Service = "batcher"
	cfg.TraceURL = srv.URL
	cfg.LogOutput = io.Discard

	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithFlint(context.Background(), f)
	for i := 0; i < 3; i++ {
		_, span := StartSpan(ctx, "op")
		span.End()
	}

	// Span export is asynchronous; wait for all three to reach the
	// batch queue before flushing.
	deadline := time.Now().Add(2 * time.Second)
	for counterValueByName(f, "spans_enqueued_total") < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("spans enqueued = %d, want 3",
				counterValueByName(f, "spans_enqueued_total"))
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := requests.Load(); got != 0 {
		t.Fatalf("got %d export requests before flush, want 0", got)
	}

	if err := f.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if got := requests.Load(); got != 1 {
		t.Errorf("got %d export requests, want 1 batched request", got)
	}
	if got := counterValueByName(f, "spans_exported_total"); got != 3 {
		t.Errorf("spans exported = %d, want 3", got)
	}
	if got := counterValueByName(f, "spans_dropped_total"); got != 0 {
		t.Errorf("spans dropped = %d, want 0", got)
	}
}
