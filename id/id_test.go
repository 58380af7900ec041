package id

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceIDFromBytes(t *testing.T) {
	b := [16]byte{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}

	id := TraceIDFromBytes(b)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", id.String())
	assert.Equal(t, b, [16]byte(id))
}

func TestTraceIDZeroValue(t *testing.T) {
	id := TraceIDFromBytes([16]byte{})

	// All zeros is caller-discouraged but not forbidden by the type.
	assert.True(t, id.IsZero())
	assert.Equal(t, strings.Repeat("0", 32), id.String())
}

func TestTraceIDHexRoundTrip(t *testing.T) {
	inputs := [][16]byte{
		{},
		{0x01},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		{0x0a, 0xf7, 0x65, 0x19, 0x16, 0xcd, 0x43, 0xdd, 0x84, 0x48, 0xeb, 0x21, 0x1c, 0x80, 0x31, 0x9c},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	}

	for _, b := range inputs {
		id := TraceIDFromBytes(b)

		s := id.String()
		require.Len(t, s, TraceIDHexSize)

		decoded, err := TraceIDFromHex(s)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestTraceIDFromHexCaseInsensitive(t *testing.T) {
	upper, err := TraceIDFromHex("4BF92F3577B34DA6A3CE929D0E0E4736")
	require.NoError(t, err)

	lower, err := TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)

	assert.Equal(t, lower, upper)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", upper.String())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", lower.String())
}

func TestTraceIDFromHexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"too short", strings.Repeat("a", 31), ErrLength},
		{"too long", strings.Repeat("a", 33), ErrLength},
		{"empty", "", ErrLength},
		{"invalid character", "4bf92f3577b34da6a3ce929d0e0e473g", ErrHexChar},
		{"invalid character mid-string", "4bf92f3577b34dz6a3ce929d0e0e4736", ErrHexChar},
		{"separator", "4bf92f35-77b34da6-a3ce929d-0e0e47", ErrHexChar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TraceIDFromHex(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTraceIDFromHexErrorPosition(t *testing.T) {
	_, err := TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e473g")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position 31")
}

func TestTraceIDEquality(t *testing.T) {
	b := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	a := TraceIDFromBytes(b)
	c := TraceIDFromBytes(b)
	assert.True(t, a == c)

	b[15] = 0xff
	d := TraceIDFromBytes(b)
	assert.False(t, a == d)
}

func TestTraceIDAsMapKey(t *testing.T) {
	// A trace ID is its own identity: equal values must collapse to one
	// map entry.
	seen := map[TraceID]int{}

	b := [16]byte{0xde, 0xad, 0xbe, 0xef}
	seen[TraceIDFromBytes(b)]++
	seen[TraceIDFromBytes(b)]++
	seen[NewTraceID()]++

	assert.Equal(t, 2, seen[TraceIDFromBytes(b)])
	assert.Len(t, seen, 2)
}

func TestTraceIDAppendHex(t *testing.T) {
	id := TraceIDFromBytes([16]byte{0x0a, 0xf7, 0x65, 0x19, 0x16, 0xcd, 0x43, 0xdd, 0x84, 0x48, 0xeb, 0x21, 0x1c, 0x80, 0x31, 0x9c})

	buf := id.AppendHex([]byte("00-"))
	assert.Equal(t, "00-0af7651916cd43dd8448eb211c80319c", string(buf))
}

func TestTraceIDTextMarshaling(t *testing.T) {
	id, err := TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	require.NoError(t, err)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"0af7651916cd43dd8448eb211c80319c"`, string(data))

	var parsed TraceID
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, id, parsed)
}

func TestTraceIDUnmarshalTextKeepsReceiverOnError(t *testing.T) {
	id, err := TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	require.NoError(t, err)

	require.Error(t, id.UnmarshalText([]byte("not hex")))
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", id.String())
}

func TestSpanIDHexRoundTrip(t *testing.T) {
	sid, err := SpanIDFromHex("b7ad6b7169203331")
	require.NoError(t, err)
	assert.Equal(t, "b7ad6b7169203331", sid.String())
	assert.Equal(t, [8]byte{0xb7, 0xad, 0x6b, 0x71, 0x69, 0x20, 0x33, 0x31}, [8]byte(sid))

	_, err = SpanIDFromHex("b7ad6b71692033")
	assert.ErrorIs(t, err, ErrLength)

	_, err = SpanIDFromHex("b7ad6b716920333x")
	assert.ErrorIs(t, err, ErrHexChar)
}

func TestSpanIDZeroValue(t *testing.T) {
	var sid SpanID
	assert.True(t, sid.IsZero())
	assert.Equal(t, "0000000000000000", sid.String())

	sid = SpanIDFromBytes([8]byte{0, 0, 0, 0, 0, 0, 0, 1})
	assert.False(t, sid.IsZero())
}
