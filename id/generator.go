package id

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// Source produces uniformly distributed 64-bit words. It is the entropy
// capability consumed by Generator. math/rand/v2 sources satisfy it,
// which is the intended seam for deterministic generation in tests.
//
// A Source need not be safe for concurrent use; Generator serializes
// access to it.
type Source interface {
	Uint64() uint64
}

// CryptoSource draws from the process-wide cryptographically secure
// random number generator. It is safe for concurrent use and is the
// default for generators outside of tests.
type CryptoSource struct{}

// Uint64 returns the next 8 bytes of crypto/rand as a big-endian word.
func (CryptoSource) Uint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("id: crypto source unavailable: " + err.Error())
	}
	return binary.BigEndian.Uint64(b[:])
}

// Generator produces trace and span IDs from a Source.
type Generator struct {
	mu  sync.Mutex
	src Source
}

// NewGenerator creates a generator backed by src. A nil src selects
// CryptoSource.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = CryptoSource{}
	}
	return &Generator{src: src}
}

// TraceID draws two independent 64-bit words and lays them out
// big-endian: the first draw fills bytes 0-7, the second bytes 8-15.
// The upper and lower halves of the hex form therefore correspond to
// the two draws.
func (g *Generator) TraceID() TraceID {
	g.mu.Lock()
	hi := g.src.Uint64()
	lo := g.src.Uint64()
	g.mu.Unlock()

	var id TraceID
	binary.BigEndian.PutUint64(id[0:8], hi)
	binary.BigEndian.PutUint64(id[8:16], lo)
	return id
}

// SpanID draws one 64-bit word, big-endian.
func (g *Generator) SpanID() SpanID {
	g.mu.Lock()
	w := g.src.Uint64()
	g.mu.Unlock()

	var id SpanID
	binary.BigEndian.PutUint64(id[:], w)
	return id
}

var defaultGenerator = NewGenerator(nil)

// NewTraceID generates a random trace ID from the default crypto-backed
// generator.
func NewTraceID() TraceID {
	return defaultGenerator.TraceID()
}

// NewSpanID generates a random span ID from the default crypto-backed
// generator.
func NewSpanID() SpanID {
	return defaultGenerator.SpanID()
}
