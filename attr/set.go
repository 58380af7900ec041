package attr

import (
	"slices"
	"strings"
)

// Set is an immutable collection of attributes, sorted by key.
// Duplicate keys are deduplicated (last value wins).
type Set struct {
	attrs []Attr
}

// EmptySet is an empty attribute set.
var EmptySet = Set{}

// NewSet creates a new Set from the given attributes, sorting by key
// and dropping all but the last value for each duplicate key.
func NewSet(attrs ...Attr) Set {
	if len(attrs) == 0 {
		return Set{}
	}

	sorted := make([]Attr, len(attrs))
	copy(sorted, attrs)

	// Stable sort keeps the textual "last wins" order among duplicates.
	slices.SortStableFunc(sorted, func(a, b Attr) int {
		return strings.Compare(a.Key, b.Key)
	})

	deduped := sorted[:0]
	for i, a := range sorted {
		if i > 0 && sorted[i-1].Key == a.Key {
			deduped[len(deduped)-1] = a
		} else {
			deduped = append(deduped, a)
		}
	}

	return Set{attrs: deduped}
}

// Len returns the number of attributes in the set.
func (s Set) Len() int {
	return len(s.attrs)
}

// Attrs returns the underlying attributes. The returned slice must not
// be modified.
func (s Set) Attrs() []Attr {
	return s.attrs
}

// Get returns the value for the given key.
func (s Set) Get(key string) (Value, bool) {
	i, found := slices.BinarySearchFunc(s.attrs, key, func(a Attr, k string) int {
		return strings.Compare(a.Key, k)
	})
	if found {
		return s.attrs[i].Value, true
	}
	return Value{}, false
}

// Has reports whether the set contains the given key.
func (s Set) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Merge creates a new Set with the additional attributes, which override
// existing keys.
func (s Set) Merge(other ...Attr) Set {
	if len(other) == 0 {
		return s
	}
	if len(s.attrs) == 0 {
		return NewSet(other...)
	}

	combined := make([]Attr, 0, len(s.attrs)+len(other))
	combined = append(combined, s.attrs...)
	combined = append(combined, other...)
	return NewSet(combined...)
}

// MergeSet creates a new Set merged with another set, whose attributes
// override matching keys.
func (s Set) MergeSet(other Set) Set {
	if other.Len() == 0 {
		return s
	}
	if s.Len() == 0 {
		return other
	}

	combined := make([]Attr, 0, len(s.attrs)+len(other.attrs))
	combined = append(combined, s.attrs...)
	combined = append(combined, other.attrs...)
	return NewSet(combined...)
}

// Range iterates over all attributes in key order until fn returns
// false.
func (s Set) Range(fn func(Attr) bool) {
	for _, a := range s.attrs {
		if !fn(a) {
			return
		}
	}
}

// Keys returns all keys in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		keys[i] = a.Key
	}
	return keys
}
