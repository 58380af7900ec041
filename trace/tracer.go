package trace

import (
	"context"
	"time"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/id"
)

// Exporter exports finished spans.
type Exporter interface {
	ExportSpans(ctx context.Context, spans []*Span) error
	Shutdown(ctx context.Context) error
}

// Tracer creates spans and manages trace context.
type Tracer struct {
	serviceName string
	resource    attr.Set
	sampler     Sampler
	exporter    Exporter
	ids         *id.Generator
}

// TracerConfig configures the tracer.
type TracerConfig struct {
	ServiceName string
	Resource    attr.Set
	Sampler     Sampler
	Exporter    Exporter
	// IDGenerator supplies trace and span IDs. Nil selects a
	// crypto-seeded generator; inject a seeded one for deterministic
	// IDs in tests.
	IDGenerator *id.Generator
}

// NewTracer creates a new tracer.
func NewTracer(cfg TracerConfig) *Tracer {
	sampler := cfg.Sampler
	if sampler == nil {
		sampler = AlwaysSampler{}
	}
	ids := cfg.IDGenerator
	if ids == nil {
		ids = id.NewGenerator(nil)
	}

	return &Tracer{
		serviceName: cfg.ServiceName,
		resource:    cfg.Resource,
		sampler:     sampler,
		exporter:    cfg.Exporter,
		ids:         ids,
	}
}

// StartSpanOptions configures span creation.
type StartSpanOptions struct {
	Kind   SpanKind
	Attrs  []attr.Attr
	Parent *Span
	Remote SpanContext
}

// Start creates a new span. A local parent is taken from ctx unless one
// is supplied explicitly; a remote parent (from extracted trace context)
// takes precedence over both and continues the remote trace.
func (t *Tracer) Start(ctx context.Context, name string, opts ...StartSpanOption) (context.Context, *Span) {
	var options StartSpanOptions
	for _, opt := range opts {
		opt(&options)
	}

	parent := options.Parent
	if parent == nil {
		parent = SpanFromContext(ctx)
	}

	var traceID id.TraceID
	var parentID id.SpanID
	var tracestate string
	var parentSampled bool

	switch {
	case options.Remote.IsValid():
		traceID = options.Remote.TraceID
		parentID = options.Remote.SpanID
		tracestate = options.Remote.Tracestate
		parentSampled = options.Remote.Sampled
	case parent != nil:
		traceID = parent.traceID
		parentID = parent.spanID
		tracestate = parent.tracestate
		parentSampled = true // a retained parent was sampled
	default:
		traceID = t.ids.TraceID()
	}

	result := t.sampler.ShouldSample(traceID, name, parentSampled)
	if result.Decision == SamplingDecisionDrop {
		// Dropped spans still occupy a slot in the trace tree so that
		// children keep a consistent trace ID, but they never export.
		noopSpan := &Span{
			name:       name,
			traceID:    traceID,
			spanID:     t.ids.SpanID(),
			parentID:   parentID,
			tracestate: tracestate,
			startTime:  time.Now(),
			ended:      true,
		}
		return ContextWithSpan(ctx, noopSpan), noopSpan
	}

	span := &Span{
		name:       name,
		traceID:    traceID,
		spanID:     t.ids.SpanID(),
		parentID:   parentID,
		tracestate: tracestate,
		kind:       options.Kind,
		startTime:  time.Now(),
		attrs:      attr.NewSet(options.Attrs...),
		tracer:     t,
	}

	return ContextWithSpan(ctx, span), span
}

// export sends a completed span to the exporter.
func (t *Tracer) export(span *Span) {
	if t.exporter == nil {
		return
	}
	// Export asynchronously to not block the caller.
	go t.exporter.ExportSpans(context.Background(), []*Span{span})
}

// Shutdown shuts down the tracer and flushes any pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.exporter != nil {
		return t.exporter.Shutdown(ctx)
	}
	return nil
}

// ServiceName returns the service name.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// Resource returns the resource attributes.
func (t *Tracer) Resource() attr.Set {
	return t.resource
}

// StartSpanOption configures span creation.
type StartSpanOption func(*StartSpanOptions)

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) StartSpanOption {
	return func(o *StartSpanOptions) {
		o.Kind = kind
	}
}

// WithAttrs sets the initial span attributes.
func WithAttrs(attrs ...attr.Attr) StartSpanOption {
	return func(o *StartSpanOptions) {
		o.Attrs = attrs
	}
}

// WithParent sets an explicit local parent span.
func WithParent(parent *Span) StartSpanOption {
	return func(o *StartSpanOptions) {
		o.Parent = parent
	}
}

// WithRemoteParent continues a trace extracted from an incoming carrier.
// The new span adopts the remote trace ID and records the remote span as
// its parent.
func WithRemoteParent(sc SpanContext) StartSpanOption {
	return func(o *StartSpanOptions) {
		o.Remote = sc
	}
}
