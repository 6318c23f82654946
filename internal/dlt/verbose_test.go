package dlt

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt/dlttest"
)

func TestDecodeArgumentIntegerBounds(t *testing.T) {
	tests := []struct {
		name string
		arg  []byte
		want string
	}{
		{name: "int8 min", arg: dlttest.Int(1, math.MinInt8), want: "-128"},
		{name: "int8 max", arg: dlttest.Int(1, math.MaxInt8), want: "127"},
		{name: "uint8 max", arg: dlttest.Uint(1, math.MaxUint8), want: "255"},
		{name: "int16 min", arg: dlttest.Int(2, math.MinInt16), want: "-32768"},
		{name: "int16 max", arg: dlttest.Int(2, math.MaxInt16), want: "32767"},
		{name: "uint16 max", arg: dlttest.Uint(2, math.MaxUint16), want: "65535"},
		{name: "int32 min", arg: dlttest.Int(4, math.MinInt32), want: "-2147483648"},
		{name: "int32 max", arg: dlttest.Int(4, math.MaxInt32), want: "2147483647"},
		{name: "uint32 max", arg: dlttest.Uint(4, math.MaxUint32), want: "4294967295"},
		{name: "int64 min", arg: dlttest.Int(8, math.MinInt64), want: "-9223372036854775808"},
		{name: "int64 max", arg: dlttest.Int(8, math.MaxInt64), want: "9223372036854775807"},
		{name: "uint64 max", arg: dlttest.Uint(8, math.MaxUint64), want: "18446744073709551615"},
		{name: "int8 minus one", arg: dlttest.Int(1, -1), want: "-1"},
		{name: "uint8 zero", arg: dlttest.Uint(1, 0), want: "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := DecodeArgument(tc.arg, EncodingASCII)
			require.NoError(t, res.Err)
			assert.Equal(t, tc.want, res.Text)
			assert.Equal(t, len(tc.arg), res.Consumed)
		})
	}
}

func TestDecodeArgumentScalarsAndStrings(t *testing.T) {
	tests := []struct {
		name string
		arg  []byte
		enc  TextEncoding
		want string
	}{
		{name: "bool true", arg: dlttest.Bool(true), want: "true"},
		{name: "bool false", arg: dlttest.Bool(false), want: "false"},
		{name: "float32", arg: dlttest.Float32(1.5), want: "1.500000"},
		{name: "float64", arg: dlttest.Float64(-0.25), want: "-0.250000"},
		{name: "ascii string", arg: dlttest.String("hello"), want: "hello"},
		{name: "empty string", arg: dlttest.String(""), want: ""},
		{name: "utf8 string", arg: dlttest.UTF8String("héllo"), want: "héllo"},
		{name: "non-ascii dropped", arg: dlttest.RawString([]byte{'a', 0xE9, 'b', 0}), want: "ab"},
		{name: "latin1", arg: dlttest.RawString([]byte{'a', 0xE9, 'b', 0}), enc: EncodingLatin1, want: "aéb"},
		{name: "raw", arg: dlttest.Raw([]byte{0xDE, 0xAD, 0x01}), want: "dead01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enc := tc.enc
			if enc == "" {
				enc = EncodingASCII
			}
			res := DecodeArgument(tc.arg, enc)
			require.NoError(t, res.Err)
			assert.Equal(t, tc.want, res.Text)
			assert.Equal(t, len(tc.arg), res.Consumed)
		})
	}
}

func TestDecodeArgumentRejects(t *testing.T) {
	overLimit := append(dlttest.TypeInfo(dlttest.TypeString), 0x01, 0x10)
	tests := []struct {
		name string
		arg  []byte
		want error
	}{
		{name: "short type info", arg: []byte{0x23, 0x00}, want: errArgShort},
		{name: "array", arg: append(dlttest.TypeInfo(dlttest.TypeArray|dlttest.TypeSigned|3), 0, 0, 0, 0), want: errArgType},
		{name: "variable info", arg: append(dlttest.TypeInfo(dlttest.TypeVariable|dlttest.TypeUnsigned|1), 0), want: errArgType},
		{name: "two primaries", arg: append(dlttest.TypeInfo(dlttest.TypeSigned|dlttest.TypeUnsigned|1), 0), want: errArgType},
		{name: "no primary", arg: dlttest.TypeInfo(3), want: errArgType},
		{name: "integer width 128", arg: append(dlttest.TypeInfo(dlttest.TypeSigned|5), make([]byte, 16)...), want: errArgWidth},
		{name: "float width 16", arg: append(dlttest.TypeInfo(dlttest.TypeFloat|2), 0, 0), want: errArgWidth},
		{name: "integer short", arg: append(dlttest.TypeInfo(dlttest.TypeUnsigned|3), 0, 0), want: errArgShort},
		{name: "bool short", arg: dlttest.TypeInfo(dlttest.TypeBool | 1), want: errArgShort},
		{name: "string length missing", arg: append(dlttest.TypeInfo(dlttest.TypeString), 5), want: errArgShort},
		{name: "string past payload", arg: append(dlttest.TypeInfo(dlttest.TypeString), 9, 0, 'a'), want: errArgShort},
		{name: "string length above limit", arg: overLimit, want: errArgLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := DecodeArgument(tc.arg, EncodingASCII)
			if !errors.Is(res.Err, tc.want) {
				t.Fatalf("expected error %v, got %v", tc.want, res.Err)
			}
		})
	}
}

func TestDecodeVerboseJoinsArguments(t *testing.T) {
	payload := bytes.Join([][]byte{
		dlttest.String("speed"),
		dlttest.Uint(2, 120),
		dlttest.Bool(true),
	}, nil)
	got := DecodeVerbose(payload, 3, EncodingASCII)
	assert.Equal(t, "speed 120 true", got.Text)
	assert.Equal(t, 3, got.Rendered)
	assert.Empty(t, got.Skips)
	assert.False(t, got.Fallback)
}

func TestDecodeVerboseSkipsCorruptSlot(t *testing.T) {
	// The single 0xFF byte makes slot 2 read a type info with several
	// primary bits; the one-byte advance then lands on the third argument.
	payload := bytes.Join([][]byte{
		dlttest.String("first"),
		{0xFF},
		dlttest.String("third"),
	}, nil)
	got := DecodeVerbose(payload, 3, EncodingASCII)
	assert.Equal(t, "first third", got.Text)
	assert.Equal(t, 2, got.Rendered)
	require.Len(t, got.Skips, 1)
	assert.Equal(t, 1, got.Skips[0].Slot)
	assert.ErrorIs(t, got.Skips[0].Reason, errArgType)
}

func TestDecodeVerboseCorruptLengthConsumesRemainingSlots(t *testing.T) {
	// Slot 2 announces 0x2000 bytes. The one-byte advance lands inside its
	// type info, so slot 3 is spent on misaligned bytes and "third" is never
	// reached.
	corrupt := append(dlttest.TypeInfo(dlttest.TypeString), 0x00, 0x20)
	payload := bytes.Join([][]byte{
		dlttest.String("first"),
		corrupt,
		dlttest.String("third"),
	}, nil)
	got := DecodeVerbose(payload, 3, EncodingASCII)
	assert.Equal(t, "first", got.Text)
	assert.Equal(t, 1, got.Rendered)
	assert.False(t, got.Fallback)
	require.Len(t, got.Skips, 2)
	assert.Equal(t, 1, got.Skips[0].Slot)
	assert.ErrorIs(t, got.Skips[0].Reason, errArgLength)
	assert.Equal(t, 2, got.Skips[1].Slot)
	assert.Equal(t, got.Skips[0].Offset+1, got.Skips[1].Offset)
	assert.ErrorIs(t, got.Skips[1].Reason, errArgType)
}

func TestDecodeVerboseStopsAtArgumentCount(t *testing.T) {
	payload := bytes.Join([][]byte{dlttest.String("a1"), dlttest.String("b2")}, nil)
	got := DecodeVerbose(payload, 1, EncodingASCII)
	assert.Equal(t, "a1", got.Text)
}

func TestDecodeVerboseStopsAtPayloadEnd(t *testing.T) {
	got := DecodeVerbose(dlttest.String("only"), 5, EncodingASCII)
	assert.Equal(t, "only", got.Text)
	assert.Equal(t, 1, got.Rendered)
}

func TestDecodeVerboseFallsBackWhenNothingDecodes(t *testing.T) {
	payload := append(dlttest.TypeInfo(dlttest.TypeString), 0x88, 0x13)
	payload = append(payload, "hello"...)
	got := DecodeVerbose(payload, 1, EncodingASCII)
	assert.True(t, got.Fallback)
	assert.Equal(t, "hello", got.Text)
	require.Len(t, got.Skips, 1)
	assert.ErrorIs(t, got.Skips[0].Reason, errArgLength)
}

func TestDecodeVerboseEmptyStringCountsAsRendered(t *testing.T) {
	got := DecodeVerbose(dlttest.String(""), 1, EncodingASCII)
	assert.False(t, got.Fallback)
	assert.Equal(t, "", got.Text)
}
