package otlp

import (
	"encoding/json"
	"time"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/trace"
)

// ExportRequest represents an OTLP trace export request.
type ExportRequest struct {
	ResourceSpans []ResourceSpans `json:"resourceSpans"`
}

// ResourceSpans groups spans by resource.
type ResourceSpans struct {
	Resource   Resource     `json:"resource"`
	ScopeSpans []ScopeSpans `json:"scopeSpans"`
}

// Resource represents a resource with attributes.
type Resource struct {
	Attributes []KeyValue `json:"attributes"`
}

// ScopeSpans groups spans by instrumentation scope.
type ScopeSpans struct {
	Scope InstrumentationScope `json:"scope"`
	Spans []Span               `json:"spans"`
}

// InstrumentationScope identifies the instrumentation library.
type InstrumentationScope struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Span represents an OTLP span. TraceID and SpanID are the canonical
// lowercase hex forms (32 and 16 characters respectively).
type Span struct {
	TraceID           string     `json:"traceId"`
	SpanID            string     `json:"spanId"`
	ParentSpanID      string     `json:"parentSpanId,omitempty"`
	Name              string     `json:"name"`
	Kind              int        `json:"kind"`
	StartTimeUnixNano uint64     `json:"startTimeUnixNano,string"`
	EndTimeUnixNano   uint64     `json:"endTimeUnixNano,string"`
	Attributes        []KeyValue `json:"attributes,omitempty"`
	Events            []Event    `json:"events,omitempty"`
	Status            Status     `json:"status,omitempty"`
}

// KeyValue represents a key-value attribute.
type KeyValue struct {
	Key   string   `json:"key"`
	Value AnyValue `json:"value"`
}

// AnyValue represents any attribute value.
type AnyValue struct {
	StringValue *string  `json:"stringValue,omitempty"`
	IntValue    *int64   `json:"intValue,string,omitempty"`
	DoubleValue *float64 `json:"doubleValue,omitempty"`
	BoolValue   *bool    `json:"boolValue,omitempty"`
}

// Event represents a span event.
type Event struct {
	TimeUnixNano uint64     `json:"timeUnixNano,string"`
	Name         string     `json:"name"`
	Attributes   []KeyValue `json:"attributes,omitempty"`
}

// Status represents the span status.
type Status struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// EncodeSpans encodes spans to OTLP JSON format.
func EncodeSpans(spans []*trace.Span, serviceName string, resource attr.Set) ([]byte, error) {
	if len(spans) == 0 {
		return nil, nil
	}

	resourceAttrs := []KeyValue{
		{Key: "service.name", Value: stringValue(serviceName)},
	}
	resource.Range(func(a attr.Attr) bool {
		resourceAttrs = append(resourceAttrs, keyValue(a))
		return true
	})

	encoded := make([]Span, len(spans))
	for i, s := range spans {
		encoded[i] = encodeSpan(s)
	}

	request := ExportRequest{
		ResourceSpans: []ResourceSpans{
			{
				Resource: Resource{
					Attributes: resourceAttrs,
				},
				ScopeSpans: []ScopeSpans{
					{
						Scope: InstrumentationScope{
							Name:    "flint",
							Version: "1.0.0",
						},
						Spans: encoded,
					},
				},
			},
		},
	}

	return json.Marshal(request)
}

// encodeSpan flattens a finished span into its wire form. IDs go out
// as canonical lowercase hex, timestamps as unix nanos.
func encodeSpan(s *trace.Span) Span {
	out := Span{
		TraceID:           s.TraceID().String(),
		SpanID:            s.SpanID().String(),
		Name:              s.Name(),
		Kind:              encodeKind(s.Kind()),
		StartTimeUnixNano: uint64(s.StartTime().UnixNano()),
		EndTimeUnixNano:   uint64(s.EndTime().UnixNano()),
	}

	if !s.ParentID().IsZero() {
		out.ParentSpanID = s.ParentID().String()
	}

	s.Attrs().Range(func(a attr.Attr) bool {
		out.Attributes = append(out.Attributes, keyValue(a))
		return true
	})

	events := s.Events()
	if len(events) > 0 {
		out.Events = make([]Event, 0, len(events))
	}
	for _, e := range events {
		ev := Event{
			TimeUnixNano: uint64(e.Time.UnixNano()),
			Name:         e.Name,
		}
		e.Attrs.Range(func(a attr.Attr) bool {
			ev.Attributes = append(ev.Attributes, keyValue(a))
			return true
		})
		out.Events = append(out.Events, ev)
	}

	status, msg := s.Status()
	if status != trace.StatusUnset {
		out.Status = Status{
			Code:    encodeStatus(status),
			Message: msg,
		}
	}

	return out
}

// encodeKind maps trace.SpanKind onto the OTLP kind enum.
func encodeKind(kind trace.SpanKind) int {
	switch kind {
	case trace.SpanKindInternal:
		return 1
	case trace.SpanKindServer:
		return 2
	case trace.SpanKindClient:
		return 3
	case trace.SpanKindProducer:
		return 4
	case trace.SpanKindConsumer:
		return 5
	default:
		return 0
	}
}

// encodeStatus maps trace.SpanStatus onto the OTLP status enum.
func encodeStatus(status trace.SpanStatus) int {
	switch status {
	case trace.StatusOK:
		return 1
	case trace.StatusError:
		return 2
	default:
		return 0
	}
}

// keyValue converts an attr.Attr to its OTLP wire form. Durations
// travel as integer nanoseconds, times as RFC 3339 strings.
func keyValue(a attr.Attr) KeyValue {
	kv := KeyValue{Key: a.Key}
	v := a.Value
	switch v.Kind() {
	case attr.KindString:
		s := v.AsString()
		kv.Value = AnyValue{StringValue: &s}
	case attr.KindInt64:
		i := v.AsInt64()
		kv.Value = AnyValue{IntValue: &i}
	case attr.KindUint64:
		i := int64(v.AsUint64())
		kv.Value = AnyValue{IntValue: &i}
	case attr.KindFloat64:
		f := v.AsFloat64()
		kv.Value = AnyValue{DoubleValue: &f}
	case attr.KindBool:
		b := v.AsBool()
		kv.Value = AnyValue{BoolValue: &b}
	case attr.KindDuration:
		i := int64(v.AsDuration())
		kv.Value = AnyValue{IntValue: &i}
	case attr.KindTime:
		s := v.AsTime().Format(time.RFC3339Nano)
		kv.Value = AnyValue{StringValue: &s}
	default:
		s := v.String()
		kv.Value = AnyValue{StringValue: &s}
	}
	return kv
}

// stringValue creates an AnyValue from a string.
func stringValue(s string) AnyValue {
	return AnyValue{StringValue: &s}
}
