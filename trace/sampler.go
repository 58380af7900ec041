package trace

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sync"

	"github.com/kzs0/flint/id"
)

// SamplingDecision represents the decision made by a sampler.
type SamplingDecision int

const (
	SamplingDecisionDrop SamplingDecision = iota
	SamplingDecisionRecord
	SamplingDecisionRecordAndSample
)

// SamplingResult contains the result of a sampling decision.
type SamplingResult struct {
	Decision SamplingDecision
}

// Sampler decides whether a span should be sampled.
type Sampler interface {
	ShouldSample(traceID id.TraceID, name string, parentSampled bool) SamplingResult
}

// AlwaysSampler always samples.
type AlwaysSampler struct{}

// ShouldSample always returns RecordAndSample.
func (AlwaysSampler) ShouldSample(traceID id.TraceID, name string, parentSampled bool) SamplingResult {
	return SamplingResult{Decision: SamplingDecisionRecordAndSample}
}

// NeverSampler never samples.
type NeverSampler struct{}

// ShouldSample always returns Drop.
func (NeverSampler) ShouldSample(traceID id.TraceID, name string, parentSampled bool) SamplingResult {
	return SamplingResult{Decision: SamplingDecisionDrop}
}

// RatioSampler samples a fraction of traces using its own rng. Spans of
// the same trace may land on different sides of the coin; use
// IDRatioSampler when the decision must be consistent per trace.
type RatioSampler struct {
	ratio float64
	mu    sync.Mutex
	rng   *rand.Rand
}

// NewRatioSampler creates a sampler that samples the given fraction of
// traces. Ratio is clamped to [0, 1].
func NewRatioSampler(ratio float64) *RatioSampler {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return &RatioSampler{
		ratio: ratio,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
}

// ShouldSample samples based on the configured ratio.
func (s *RatioSampler) ShouldSample(traceID id.TraceID, name string, parentSampled bool) SamplingResult {
	s.mu.Lock()
	sample := s.rng.Float64() < s.ratio
	s.mu.Unlock()

	if sample {
		return SamplingResult{Decision: SamplingDecisionRecordAndSample}
	}
	return SamplingResult{Decision: SamplingDecisionDrop}
}

// IDRatioSampler derives the sampling decision from the trace ID itself:
// the leading 8 bytes, read big-endian, are compared against a threshold.
// Every service in a trace that uses the same ratio therefore reaches the
// same decision, with no coordination and no per-call randomness.
type IDRatioSampler struct {
	ratio     float64
	threshold uint64
}

// NewIDRatioSampler creates a deterministic per-trace sampler. Ratio is
// clamped to [0, 1].
func NewIDRatioSampler(ratio float64) *IDRatioSampler {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return &IDRatioSampler{
		ratio:     ratio,
		threshold: uint64(ratio * math.MaxUint64),
	}
}

// ShouldSample compares the trace ID's upper half against the threshold.
func (s *IDRatioSampler) ShouldSample(traceID id.TraceID, name string, parentSampled bool) SamplingResult {
	if s.ratio >= 1 {
		return SamplingResult{Decision: SamplingDecisionRecordAndSample}
	}
	upper := binary.BigEndian.Uint64(traceID[0:8])
	if upper < s.threshold {
		return SamplingResult{Decision: SamplingDecisionRecordAndSample}
	}
	return SamplingResult{Decision: SamplingDecisionDrop}
}

// ParentBasedSampler makes sampling decisions based on the parent span.
type ParentBasedSampler struct {
	root Sampler
}

// NewParentBasedSampler creates a sampler that follows the parent's
// sampling decision and delegates root spans to the given sampler.
func NewParentBasedSampler(root Sampler) *ParentBasedSampler {
	return &ParentBasedSampler{root: root}
}

// ShouldSample follows the parent's decision or delegates to the root sampler.
func (s *ParentBasedSampler) ShouldSample(traceID id.TraceID, name string, parentSampled bool) SamplingResult {
	if parentSampled {
		return SamplingResult{Decision: SamplingDecisionRecordAndSample}
	}
	if s.root != nil {
		return s.root.ShouldSample(traceID, name, parentSampled)
	}
	return SamplingResult{Decision: SamplingDecisionDrop}
}
