// Package w3c implements the header grammar of the W3C Trace Context
// specification (https://www.w3.org/TR/trace-context/): parsing and
// formatting of the traceparent and tracestate values.
//
// The grammar is carrier-agnostic. While designed for HTTP, the same
// format travels in gRPC metadata, message-queue headers, and any other
// string-valued carrier.
package w3c

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kzs0/flint/id"
)

// Traceparent format: version-trace-id-parent-id-trace-flags
// Example: 00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01
const (
	versionLen = 2
	flagsLen   = 2
	minLength  = versionLen + 1 + id.TraceIDHexSize + 1 + id.SpanIDHexSize + 1 + flagsLen

	// SampledFlag is bit 0 of the trace-flags field.
	SampledFlag = 0x01

	// Tracestate limits per W3C Trace Context.
	MaxTracestateEntries  = 32
	MaxTracestateLen      = 512
	MaxTracestateKeyLen   = 256
	MaxTracestateValueLen = 256

	// Entries longer than this are the first to go when a tracestate
	// value must be truncated, per the W3C guidance.
	largeTracestateEntryLen = 128
)

var (
	ErrInvalidTraceparent = errors.New("invalid traceparent header")
	ErrInvalidTraceID     = errors.New("invalid trace-id: must be 32 lowercase hex characters and not all zeros")
	ErrInvalidSpanID      = errors.New("invalid parent-id: must be 16 lowercase hex characters and not all zeros")
	ErrInvalidVersion     = errors.New("invalid version: must be 2 hex characters")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrInvalidFlags       = errors.New("invalid flags: must be 2 hex characters")
	ErrInvalidTracestate  = errors.New("invalid tracestate header")
)

// Entry is a single key-value pair in tracestate.
type Entry struct {
	Key   string
	Value string
}

// ParseTraceparent parses a traceparent header value into its trace ID,
// parent span ID, and flags byte.
//
// The wire form is strict where the id package is lenient: hex must be
// lowercase, and the all-zero trace and span IDs are rejected here even
// though the id types can represent them. Unknown future versions are
// parsed best-effort, tolerating trailing fields; version 00 must be
// exactly four fields, and version ff is forbidden.
func ParseTraceparent(value string) (id.TraceID, id.SpanID, byte, error) {
	if len(value) < minLength {
		return id.TraceID{}, id.SpanID{}, 0, ErrInvalidTraceparent
	}

	fields := strings.Split(value, "-")
	if len(fields) < 4 {
		return id.TraceID{}, id.SpanID{}, 0, ErrInvalidTraceparent
	}

	if err := checkVersion(fields[0]); err != nil {
		return id.TraceID{}, id.SpanID{}, 0, err
	}

	// Version 00 is exactly four fields. Only future versions may
	// carry additional data after the flags.
	if fields[0] == "00" && len(fields) != 4 {
		return id.TraceID{}, id.SpanID{}, 0, ErrInvalidTraceparent
	}

	traceID, err := parseWireTraceID(fields[1])
	if err != nil {
		return id.TraceID{}, id.SpanID{}, 0, err
	}

	parentID, err := parseWireSpanID(fields[2])
	if err != nil {
		return id.TraceID{}, id.SpanID{}, 0, err
	}

	flags, err := parseFlags(fields[3])
	if err != nil {
		return id.TraceID{}, id.SpanID{}, 0, err
	}

	return traceID, parentID, flags, nil
}

// FormatTraceparent formats a traceparent header value, always at
// version 00.
func FormatTraceparent(traceID id.TraceID, spanID id.SpanID, sampled bool) string {
	flags := byte(0)
	if sampled {
		flags |= SampledFlag
	}

	buf := make([]byte, 0, minLength)
	buf = append(buf, "00-"...)
	buf = traceID.AppendHex(buf)
	buf = append(buf, '-')
	buf = spanID.AppendHex(buf)
	buf = append(buf, '-')
	buf = appendHexByte(buf, flags)
	return string(buf)
}

func checkVersion(version string) error {
	if len(version) != versionLen || !isHex(version) {
		return ErrInvalidVersion
	}
	// Version ff is forbidden by W3C Trace Context. Anything else,
	// including versions newer than 00, is parsed best-effort.
	if version == "ff" {
		return ErrUnsupportedVersion
	}
	return nil
}

func parseWireTraceID(s string) (id.TraceID, error) {
	if len(s) != id.TraceIDHexSize || !isLowercaseHex(s) {
		return id.TraceID{}, ErrInvalidTraceID
	}
	traceID, err := id.TraceIDFromHex(s)
	if err != nil || traceID.IsZero() {
		return id.TraceID{}, ErrInvalidTraceID
	}
	return traceID, nil
}

func parseWireSpanID(s string) (id.SpanID, error) {
	if len(s) != id.SpanIDHexSize || !isLowercaseHex(s) {
		return id.SpanID{}, ErrInvalidSpanID
	}
	spanID, err := id.SpanIDFromHex(s)
	if err != nil || spanID.IsZero() {
		return id.SpanID{}, ErrInvalidSpanID
	}
	return spanID, nil
}

func parseFlags(s string) (byte, error) {
	if len(s) != flagsLen {
		return 0, ErrInvalidFlags
	}
	hi, ok1 := fromHexChar(s[0])
	lo, ok2 := fromHexChar(s[1])
	if !ok1 || !ok2 {
		return 0, ErrInvalidFlags
	}
	return hi<<4 | lo, nil
}

// ParseTracestate parses a tracestate header value into its entries.
// Duplicate keys collapse to the last occurrence; entry order is
// otherwise preserved.
func ParseTracestate(value string) ([]Entry, error) {
	if value == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	if len(parts) > MaxTracestateEntries {
		return nil, fmt.Errorf("%w: too many entries (max %d)", ErrInvalidTracestate, MaxTracestateEntries)
	}

	entries := make([]Entry, 0, len(parts))
	seen := make(map[string]bool)

	// Walk in reverse so "last wins" falls out of the duplicate check.
	for i := len(parts) - 1; i >= 0; i-- {
		part := strings.TrimSpace(parts[i])
		if part == "" {
			continue
		}

		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: invalid entry format", ErrInvalidTracestate)
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		if !IsValidTracestateKey(key) {
			return nil, fmt.Errorf("%w: invalid key format", ErrInvalidTracestate)
		}
		if !IsValidTracestateValue(val) {
			return nil, fmt.Errorf("%w: invalid value format", ErrInvalidTracestate)
		}

		if seen[key] {
			continue
		}
		seen[key] = true

		entries = append([]Entry{{Key: key, Value: val}}, entries...)
	}

	return entries, nil
}

// FormatTracestate joins entries with commas. If the joined value
// would exceed MaxTracestateLen, entries are dropped from the tail
// (the least recently updated end), preferring entries longer than
// 128 characters, until the value fits. The W3C truncation guidance
// prescribes exactly this order.
func FormatTracestate(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}

	parts := make([]string, len(entries))
	totalLen := -1 // the first part carries no comma
	for i, entry := range entries {
		parts[i] = entry.Key + "=" + entry.Value
		totalLen += len(parts[i]) + 1
	}

	for totalLen > MaxTracestateLen && len(parts) > 0 {
		drop := len(parts) - 1
		for i := len(parts) - 1; i >= 0; i-- {
			if len(parts[i]) > largeTracestateEntryLen {
				drop = i
				break
			}
		}
		totalLen -= len(parts[drop]) + 1
		parts = append(parts[:drop], parts[drop+1:]...)
	}

	return strings.Join(parts, ",")
}

// IsValidTracestateKey validates a tracestate key: either a simple key
// (lowercase alphanumeric plus underscore, hyphen, asterisk, slash) or a
// multi-tenant key of the form tenant@system.
func IsValidTracestateKey(key string) bool {
	if key == "" || len(key) > MaxTracestateKeyLen {
		return false
	}

	if tenant, system, ok := strings.Cut(key, "@"); ok {
		if strings.Contains(system, "@") {
			return false
		}
		return isValidSimpleKey(tenant) && isValidSimpleKey(system)
	}
	return isValidSimpleKey(key)
}

// IsValidTracestateValue validates a tracestate value: printable ASCII
// (0x20-0x7E) excluding comma and equals.
func IsValidTracestateValue(value string) bool {
	if value == "" || len(value) > MaxTracestateValueLen {
		return false
	}
	for _, c := range value {
		if c < 0x20 || c > 0x7E || c == ',' || c == '=' {
			return false
		}
	}
	return true
}

func isValidSimpleKey(key string) bool {
	if key == "" {
		return false
	}
	for _, c := range key {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') &&
			c != '_' && c != '-' && c != '*' && c != '/' {
			return false
		}
	}
	return true
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if _, ok := fromHexChar(s[i]); !ok {
			return false
		}
	}
	return true
}

func isLowercaseHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
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

func appendHexByte(dst []byte, b byte) []byte {
	const digits = "0123456789abcdef"
	return append(dst, digits[b>>4], digits[b&0x0f])
}
