package trace

import "context"

// Propagator extracts and injects trace context across process
// boundaries. Implementations read and write a transport-specific
// carrier: http.Header for HTTP, metadata.MD for gRPC, message headers
// for queues.
type Propagator interface {
	// Extract reads trace context from the carrier and returns a remote
	// SpanContext (IsRemote=true). An error means the carrier held no
	// usable trace context; callers should start a fresh trace.
	Extract(carrier any) (SpanContext, error)

	// Inject writes the active span's context from ctx into the
	// carrier. A no-op when ctx carries no recording span.
	Inject(ctx context.Context, carrier any) error
}
