package flint

import (
	"context"
)

type contextKey int

const flintKey contextKey = iota

// WithFlint returns a context with the flint instance attached.
// This is the primary way to propagate flint through your application.
func WithFlint(ctx context.Context, f *Flint) context.Context {
	return context.WithValue(ctx, flintKey, f)
}

// flintFromContext returns the flint instance from the context.
// If none exists, returns a noop instance.
func flintFromContext(ctx context.Context) *Flint {
	if f, ok := ctx.Value(flintKey).(*Flint); ok {
		return f
	}
	return noopFlint()
}

// FromContext returns the flint instance from the context.
// Returns nil if no flint instance exists (use this for optional access).
func FromContext(ctx context.Context) *Flint {
	f, _ := ctx.Value(flintKey).(*Flint)
	return f
}
