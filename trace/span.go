package trace

import (
	"sync"
	"time"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/id"
)

// SpanKind represents the role of a span in a trace.
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

// SpanStatus represents the status of a span.
type SpanStatus int

const (
	StatusUnset SpanStatus = iota
	StatusOK
	StatusError
)

// Span represents a single operation within a trace. All spans of one
// trace share a trace ID; each span carries its own span ID.
type Span struct {
	mu sync.Mutex

	name       string
	traceID    id.TraceID
	spanID     id.SpanID
	parentID   id.SpanID
	kind       SpanKind
	startTime  time.Time
	endTime    time.Time
	attrs      attr.Set
	events     []Event
	status     SpanStatus
	statusMsg  string
	tracestate string // carried through from a remote parent

	tracer *Tracer
	ended  bool
}

// Event is a timestamped occurrence within a span.
type Event struct {
	Name  string
	Time  time.Time
	Attrs attr.Set
}

// TraceID returns the trace ID shared by every span in this trace.
func (s *Span) TraceID() id.TraceID {
	return s.traceID
}

// SpanID returns the span's own ID.
func (s *Span) SpanID() id.SpanID {
	return s.spanID
}

// ParentID returns the parent span ID, zero for a root span.
func (s *Span) ParentID() id.SpanID {
	return s.parentID
}

// Name returns the span name.
func (s *Span) Name() string {
	return s.name
}

// Kind returns the span kind.
func (s *Span) Kind() SpanKind {
	return s.kind
}

// StartTime returns the span start time.
func (s *Span) StartTime() time.Time {
	return s.startTime
}

// EndTime returns the span end time, zero while the span is running.
func (s *Span) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endTime
}

// Tracestate returns the W3C tracestate inherited from a remote parent,
// empty for local roots.
func (s *Span) Tracestate() string {
	return s.tracestate
}

// Attrs returns the span attributes.
func (s *Span) Attrs() attr.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attrs
}

// Events returns a copy of the span events.
func (s *Span) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// Status returns the span status and message.
func (s *Span) Status() (SpanStatus, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusMsg
}

// SetAttr adds or updates attributes on the span.
func (s *Span) SetAttr(attrs ...attr.Attr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	s.attrs = s.attrs.Merge(attrs...)
}

// AddEvent adds an event to the span.
func (s *Span) AddEvent(name string, attrs ...attr.Attr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	s.events = append(s.events, Event{
		Name:  name,
		Time:  time.Now(),
		Attrs: attr.NewSet(attrs...),
	})
}

// RecordError records an error as an exception event and marks the span
// status as error.
func (s *Span) RecordError(err error, attrs ...attr.Attr) {
	if err == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}

	errAttrs := append([]attr.Attr{
		attr.String("exception.type", "error"),
		attr.String("exception.message", err.Error()),
	}, attrs...)

	s.events = append(s.events, Event{
		Name:  "exception",
		Time:  time.Now(),
		Attrs: attr.NewSet(errAttrs...),
	})

	s.status = StatusError
	s.statusMsg = err.Error()
}

// SetStatus sets the span status.
func (s *Span) SetStatus(status SpanStatus, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	s.status = status
	s.statusMsg = msg
}

// End finishes the span and hands it to the tracer's exporter. End is
// idempotent.
func (s *Span) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.endTime = time.Now()
	s.ended = true
	s.mu.Unlock()

	if s.tracer != nil {
		s.tracer.export(s)
	}
}

// IsRecording reports whether the span is still accepting events.
func (s *Span) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended
}

// Duration returns the span duration, measured to now while running.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endTime.IsZero() {
		return time.Since(s.startTime)
	}
	return s.endTime.Sub(s.startTime)
}
