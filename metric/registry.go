// Package metric provides lightweight counters for internal telemetry.
package metric

import (
	"strings"
	"sync"

	"github.com/kzs0/flint/attr"
)

// Registry is a thread-safe registry for counters.
type Registry struct {
	mu       sync.RWMutex
	prefix   string
	counters map[string]*Counter
}

// NewRegistry creates a new metric registry with an optional prefix.
// The prefix is prepended to all metric names (e.g., prefix="myapp"
// creates "myapp_metric_name"). If prefix is empty, no prefix is added.
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix:   prefix,
		counters: make(map[string]*Counter),
	}
}

// Counter returns or creates a counter with the given name.
func (r *Registry) Counter(name, help string, labelNames ...string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prefix != "" {
		name = r.prefix + "_" + name
	}

	name = sanitizeName(name)

	if c, ok := r.counters[name]; ok {
		return c
	}

	sanitizedLabels := make(map[string]struct{}, len(labelNames))
	for _, label := range labelNames {
		sanitizedLabels[sanitizeName(label)] = struct{}{}
	}

	c := &Counter{
		name:       name,
		help:       help,
		labelNames: sanitizedLabels,
		values:     make(map[string]*counterValue),
	}
	r.counters[name] = c
	return c
}

// Gather collects all metrics for exposition.
func (r *Registry) Gather() []MetricFamily {
	r.mu.RLock()
	defer r.mu.RUnlock()

	families := make([]MetricFamily, 0, len(r.counters))
	for _, c := range r.counters {
		families = append(families, c.collect())
	}
	return families
}

// MetricFamily represents a collection of metrics with the same name.
type MetricFamily struct {
	Name    string
	Help    string
	Metrics []Metric
}

// Metric represents a single metric with labels and a value.
type Metric struct {
	Labels attr.Set
	Value  uint64
}

// sanitizeName converts metric and label names to [a-zA-Z0-9_:]+ form,
// replacing dots and other invalid characters with underscores.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, ".", "_")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == ':' {
			return r
		}
		return '_'
	}, name)
}
