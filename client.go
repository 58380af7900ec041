package flint

import (
	"context"
	"io"
	"net/http"

	"github.com/kzs0/flint/transport"
)

// instrumentedTransport wraps a base RoundTripper and gets the tracer from context.
type instrumentedTransport struct {
	base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f := FromContext(req.Context())

	tr := &transport.Transport{
		Base: t.base,
	}
	if f != nil && !f.IsNoop() {
		tr.Tracer = f.Tracer()
	}

	return tr.RoundTrip(req)
}

// NewClient creates an http.Client that starts a client span for each
// request and injects W3C Trace Context headers. The tracer is obtained
// from the request context when requests are made.
//
// Usage:
//
//	client := flint.NewClient(nil)
//	resp, err := client.Get("https://api.example.com/users")
func NewClient(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}

	return &http.Client{
		Transport:     &instrumentedTransport{base: base.Transport},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}
}

// Do executes an HTTP request with trace instrumentation. For multiple
// requests, create a client once with NewClient and reuse it.
//
// Usage:
//
//	req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)
//	resp, err := flint.Do(ctx, req)
func Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	f := FromContext(ctx)

	tr := &transport.Transport{}
	if f != nil && !f.IsNoop() {
		tr.Tracer = f.Tracer()
	}

	return tr.RoundTrip(req)
}

// Get is a convenience function for instrumented GET requests.
func Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return Do(ctx, req)
}

// Post is a convenience function for instrumented POST requests.
func Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return Do(ctx, req)
}
