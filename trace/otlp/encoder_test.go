package otlp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/id"
	"github.com/kzs0/flint/trace"
)

// wordSource replays a fixed sequence of 64-bit words.
type wordSource struct {
	words []uint64
	next  int
}

func (s *wordSource) Uint64() uint64 {
	w := s.words[s.next]
	s.next++
	return w
}

// finishedSpan builds an ended span through the tracer with known IDs.
func finishedSpan(t *testing.T) *trace.Span {
	t.Helper()

	gen := id.NewGenerator(&wordSource{words: []uint64{
		0x4bf92f3577b34da6, 0xa3ce929d0e0e4736, // trace id
		0x00f067aa0ba902b7, // span id
	}})
	tracer := trace.NewTracer(trace.TracerConfig{
		ServiceName: "encoder-test",
		IDGenerator: gen,
	})

	_, span := tracer.Start(context.Background(), "op",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttrs(attr.String("peer", "upstream")),
	)
	span.AddEvent("retry", attr.Int("attempt", 2))
	span.RecordError(errors.New("boom"))
	span.End()
	return span
}

func TestEncodeSpansCanonicalIDs(t *testing.T) {
	span := finishedSpan(t)

	data, err := EncodeSpans([]*trace.Span{span}, "svc", attr.EmptySet)
	if err != nil {
		t.Fatalf("EncodeSpans() error = %v", err)
	}

	var req ExportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(req.ResourceSpans) != 1 || len(req.ResourceSpans[0].ScopeSpans) != 1 {
		t.Fatal("expected one resource with one scope")
	}
	spans := req.ResourceSpans[0].ScopeSpans[0].Spans
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	got := spans[0]
	if got.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("traceId = %q, want 4bf92f3577b34da6a3ce929d0e0e4736", got.TraceID)
	}
	if got.SpanID != "00f067aa0ba902b7" {
		t.Errorf("spanId = %q, want 00f067aa0ba902b7", got.SpanID)
	}
	if got.ParentSpanID != "" {
		t.Errorf("parentSpanId = %q, want empty for root span", got.ParentSpanID)
	}
	if got.Kind != 2 {
		t.Errorf("kind = %d, want 2 (server)", got.Kind)
	}
	if got.Status.Code != 2 {
		t.Errorf("status code = %d, want 2 (error)", got.Status.Code)
	}
	if len(got.Events) == 0 {
		t.Error("expected events")
	}
}

func TestEncodeSpansResourceAttributes(t *testing.T) {
	span := finishedSpan(t)

	data, err := EncodeSpans([]*trace.Span{span}, "svc", attr.NewSet(attr.String("env", "prod")))
	if err != nil {
		t.Fatalf("EncodeSpans() error = %v", err)
	}

	var req ExportRequest
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	attrs := req.ResourceSpans[0].Resource.Attributes
	found := map[string]string{}
	for _, kv := range attrs {
		if kv.Value.StringValue != nil {
			found[kv.Key] = *kv.Value.StringValue
		}
	}
	if found["service.name"] != "svc" {
		t.Errorf("service.name = %q, want svc", found["service.name"])
	}
	if found["env"] != "prod" {
		t.Errorf("env = %q, want prod", found["env"])
	}
}

func TestEncodeSpansEmpty(t *testing.T) {
	data, err := EncodeSpans(nil, "svc", attr.EmptySet)
	if err != nil {
		t.Fatalf("EncodeSpans() error = %v", err)
	}
	if data != nil {
		t.Errorf("expected nil data for no spans, got %s", data)
	}
}
