// Package id defines the identifier types of the W3C Trace Context
// specification: a 16-byte trace ID and an 8-byte span ID, with their
// canonical lowercase-hex encoding and cryptographically seeded random
// generation.
package id

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Byte and hex-character widths of the two identifier types.
const (
	TraceIDSize    = 16
	SpanIDSize     = 8
	TraceIDHexSize = TraceIDSize * 2
	SpanIDHexSize  = SpanIDSize * 2
)

var (
	// ErrLength indicates a hex string whose length does not match the
	// identifier width.
	ErrLength = errors.New("wrong hex length")
	// ErrHexChar indicates a character outside [0-9a-fA-F].
	ErrHexChar = errors.New("invalid hex character")
)

// TraceID is a 16-byte unique identifier for a trace. It is an immutable
// value: comparison with == and use as a map key follow byte-wise
// equality. Every bit pattern is representable, including all zeros;
// layers that must reject the zero ID on the wire (trace/w3c) do so
// themselves via IsZero.
type TraceID [TraceIDSize]byte

// SpanID is an 8-byte unique identifier for a span.
type SpanID [SpanIDSize]byte

// TraceIDFromBytes stores the given bytes verbatim, in order. It never
// fails and performs no validation.
func TraceIDFromBytes(b [TraceIDSize]byte) TraceID {
	return TraceID(b)
}

// SpanIDFromBytes stores the given bytes verbatim, in order.
func SpanIDFromBytes(b [SpanIDSize]byte) SpanID {
	return SpanID(b)
}

// TraceIDFromHex parses exactly 32 hex characters into a TraceID. Both
// cases are accepted; re-encoding always yields lowercase. Malformed
// input is rejected wholesale, never truncated or zero-padded.
func TraceIDFromHex(s string) (TraceID, error) {
	var id TraceID
	if err := decodeHex(id[:], s); err != nil {
		return TraceID{}, fmt.Errorf("trace id: %w", err)
	}
	return id, nil
}

// SpanIDFromHex parses exactly 16 hex characters into a SpanID.
func SpanIDFromHex(s string) (SpanID, error) {
	var id SpanID
	if err := decodeHex(id[:], s); err != nil {
		return SpanID{}, fmt.Errorf("span id: %w", err)
	}
	return id, nil
}

// String returns the canonical form: lowercase hex, two characters per
// byte, byte 0 first, no separators, no prefix.
func (t TraceID) String() string {
	return hex.EncodeToString(t[:])
}

// String returns the canonical 16-character lowercase hex form.
func (s SpanID) String() string {
	return hex.EncodeToString(s[:])
}

// AppendHex appends the canonical hex form to dst and returns the
// extended slice. It does not allocate when dst has spare capacity.
func (t TraceID) AppendHex(dst []byte) []byte {
	var buf [TraceIDHexSize]byte
	hex.Encode(buf[:], t[:])
	return append(dst, buf[:]...)
}

// AppendHex appends the canonical hex form to dst.
func (s SpanID) AppendHex(dst []byte) []byte {
	var buf [SpanIDHexSize]byte
	hex.Encode(buf[:], s[:])
	return append(dst, buf[:]...)
}

// IsZero reports whether every byte is zero. The zero ID is a valid
// value of the type but is invalid in a traceparent header.
func (t TraceID) IsZero() bool {
	return t == TraceID{}
}

// IsZero reports whether every byte is zero.
func (s SpanID) IsZero() bool {
	return s == SpanID{}
}

// MarshalText implements encoding.TextMarshaler using the canonical hex
// form, so JSON and text encoders emit the wire representation.
func (t TraceID) MarshalText() ([]byte, error) {
	return t.AppendHex(nil), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The receiver is
// left untouched on error.
func (t *TraceID) UnmarshalText(b []byte) error {
	id, err := TraceIDFromHex(string(b))
	if err != nil {
		return err
	}
	*t = id
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s SpanID) MarshalText() ([]byte, error) {
	return s.AppendHex(nil), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SpanID) UnmarshalText(b []byte) error {
	id, err := SpanIDFromHex(string(b))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// decodeHex decodes s into dst, requiring exactly len(dst)*2 characters.
// Errors carry the offending character and its position.
func decodeHex(dst []byte, s string) error {
	if len(s) != len(dst)*2 {
		return fmt.Errorf("%w: got %d characters, want %d", ErrLength, len(s), len(dst)*2)
	}
	for i := range dst {
		hi, ok := fromHexChar(s[2*i])
		if !ok {
			return fmt.Errorf("%w %q at position %d", ErrHexChar, s[2*i], 2*i)
		}
		lo, ok := fromHexChar(s[2*i+1])
		if !ok {
			return fmt.Errorf("%w %q at position %d", ErrHexChar, s[2*i+1], 2*i+1)
		}
		dst[i] = hi<<4 | lo
	}
	return nil
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
