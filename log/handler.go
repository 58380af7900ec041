// Package log bridges flint attributes and trace context into log/slog.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/kzs0/flint/attr"
	"github.com/kzs0/flint/trace"
)

// Handler is a slog.Handler that stamps the active span's trace and
// span IDs, in canonical hex form, onto every record logged with a
// span-carrying context.
type Handler struct {
	inner  slog.Handler
	groups []string
}

// HandlerOptions configures the Handler.
type HandlerOptions struct {
	// Level is the minimum log level to output.
	Level slog.Leveler
	// AddSource adds source code position to log output.
	AddSource bool
	// Output is the writer to write logs to. Defaults to os.Stderr.
	Output io.Writer
	// Format is the output format ("json" or "text"). Defaults to "json".
	Format string
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	var inner slog.Handler
	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	if opts.Format == "text" {
		inner = slog.NewTextHandler(output, handlerOpts)
	} else {
		inner = slog.NewJSONHandler(output, handlerOpts)
	}

	return &Handler{
		inner: inner,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle handles the Record, adding trace correlation attributes when
// ctx carries an active span.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span != nil {
		r.AddAttrs(
			slog.String("trace_id", span.TraceID().String()),
			slog.String("span_id", span.SpanID().String()),
		)
	}

	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new Handler with the given attributes added.
// The attributes live on the inner handler only, so each one is
// emitted exactly once per record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner:  h.inner.WithAttrs(attrs),
		groups: h.groups,
	}
}

// WithGroup returns a new Handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)

	return &Handler{
		inner:  h.inner.WithGroup(name),
		groups: newGroups,
	}
}

// AttrToSlog converts a flint attr.Attr to a slog.Attr.
func AttrToSlog(a attr.Attr) slog.Attr {
	switch a.Value.Kind() {
	case attr.KindString:
		return slog.String(a.Key, a.Value.AsString())
	case attr.KindInt64:
		return slog.Int64(a.Key, a.Value.AsInt64())
	case attr.KindUint64:
		return slog.Uint64(a.Key, a.Value.AsUint64())
	case attr.KindFloat64:
		return slog.Float64(a.Key, a.Value.AsFloat64())
	case attr.KindBool:
		return slog.Bool(a.Key, a.Value.AsBool())
	case attr.KindDuration:
		return slog.Duration(a.Key, a.Value.AsDuration())
	case attr.KindTime:
		return slog.Time(a.Key, a.Value.AsTime())
	default:
		return slog.Any(a.Key, a.Value.AsAny())
	}
}

// AttrsToSlog converts a slice of flint attrs to slog attrs.
func AttrsToSlog(attrs []attr.Attr) []slog.Attr {
	slogAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		slogAttrs[i] = AttrToSlog(a)
	}
	return slogAttrs
}
