// Package dlttest builds DLT file images for tests.
package dlttest

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const (
	HTYPUseExtended = 0x01
	HTYPWithECU     = 0x04
	HTYPWithSession = 0x08
	HTYPWithTime    = 0x10

	MSINVerbose = 0x01

	TypeBool     = uint32(1) << 4
	TypeSigned   = uint32(1) << 5
	TypeUnsigned = uint32(1) << 6
	TypeFloat    = uint32(1) << 7
	TypeArray    = uint32(1) << 8
	TypeString   = uint32(1) << 9
	TypeRaw      = uint32(1) << 10
	TypeVariable = uint32(1) << 11
	TypeUTF8     = uint32(1) << 15
)

// Message describes one message to encode. When Extended is false no
// extended header is written and HTYPUseExtended is cleared.
type Message struct {
	Seconds      uint32
	Microseconds uint32
	ECU          string
	HTYP         uint8
	Counter      uint8
	Extended     bool
	MSIN         uint8
	NumArgs      uint8
	AppID        string
	ContextID    string
	// Optional standard header fields, written when the matching HTYP bit
	// is set.
	HeaderECU string
	SessionID uint32
	Tick      uint32
	Payload   []byte
	// Length overrides the standard header length when non-zero.
	Length uint16
}

// Verbose returns a LOG message from ECU1/APP1/CTX1 carrying args.
func Verbose(args ...[]byte) Message {
	return Message{
		Seconds:   1_700_000_000,
		ECU:       "ECU1",
		Extended:  true,
		MSIN:      MSINVerbose,
		NumArgs:   uint8(len(args)),
		AppID:     "APP1",
		ContextID: "CTX1",
		Payload:   bytes.Join(args, nil),
	}
}

func id4(s string) []byte {
	out := make([]byte, 4)
	copy(out, s)
	return out
}

// Encode renders m as storage header, standard header, optional fields,
// extended header and payload.
func Encode(m Message) []byte {
	htyp := m.HTYP &^ HTYPUseExtended
	if m.Extended {
		htyp |= HTYPUseExtended
	}
	var body bytes.Buffer
	if htyp&HTYPWithECU != 0 {
		body.Write(id4(m.HeaderECU))
	}
	if htyp&HTYPWithSession != 0 {
		_ = binary.Write(&body, binary.BigEndian, m.SessionID)
	}
	if htyp&HTYPWithTime != 0 {
		_ = binary.Write(&body, binary.BigEndian, m.Tick)
	}
	if m.Extended {
		body.WriteByte(m.MSIN)
		body.WriteByte(m.NumArgs)
		body.Write(id4(m.AppID))
		body.Write(id4(m.ContextID))
	}
	body.Write(m.Payload)

	var out bytes.Buffer
	out.WriteString("DLT\x01")
	_ = binary.Write(&out, binary.LittleEndian, m.Seconds)
	_ = binary.Write(&out, binary.LittleEndian, m.Microseconds)
	out.Write(id4(m.ECU))
	out.WriteByte(htyp)
	out.WriteByte(m.Counter)
	length := m.Length
	if length == 0 {
		length = uint16(4 + body.Len())
	}
	_ = binary.Write(&out, binary.BigEndian, length)
	out.Write(body.Bytes())
	return out.Bytes()
}

// File concatenates encoded messages.
func File(msgs ...Message) []byte {
	var out bytes.Buffer
	for _, m := range msgs {
		out.Write(Encode(m))
	}
	return out.Bytes()
}

// WriteFile stores data under dir and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func typeInfo(ti uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, ti)
	return out
}

// TypeInfo encodes a raw type-info word with no data.
func TypeInfo(ti uint32) []byte {
	return typeInfo(ti)
}

func lengthPrefixed(ti uint32, data []byte) []byte {
	out := typeInfo(ti)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(data)))
	return append(out, data...)
}

// String encodes an ASCII string argument; a terminating NUL is appended.
func String(s string) []byte {
	return lengthPrefixed(TypeString, append([]byte(s), 0))
}

// UTF8String encodes a string argument with the UTF-8 coding flag.
func UTF8String(s string) []byte {
	return lengthPrefixed(TypeString|TypeUTF8, append([]byte(s), 0))
}

// RawString encodes a string argument with the exact bytes given.
func RawString(b []byte) []byte {
	return lengthPrefixed(TypeString, b)
}

func Raw(b []byte) []byte {
	return lengthPrefixed(TypeRaw, b)
}

func Bool(v bool) []byte {
	out := typeInfo(TypeBool | 1)
	if v {
		return append(out, 1)
	}
	return append(out, 0)
}

func widthCode(width int) uint32 {
	switch width {
	case 1:
		return 1
	case 2:
		return 2
	case 4:
		return 3
	default:
		return 4
	}
}

// Int encodes a signed integer of width bytes (1, 2, 4 or 8).
func Int(width int, v int64) []byte {
	out := typeInfo(TypeSigned | widthCode(width))
	return appendLE(out, width, uint64(v))
}

// Uint encodes an unsigned integer of width bytes (1, 2, 4 or 8).
func Uint(width int, v uint64) []byte {
	out := typeInfo(TypeUnsigned | widthCode(width))
	return appendLE(out, width, v)
}

func appendLE(out []byte, width int, v uint64) []byte {
	for i := 0; i < width; i++ {
		out = append(out, byte(v>>(8*i)))
	}
	return out
}

func Float32(v float32) []byte {
	return binary.LittleEndian.AppendUint32(typeInfo(TypeFloat|3), math.Float32bits(v))
}

func Float64(v float64) []byte {
	return binary.LittleEndian.AppendUint64(typeInfo(TypeFloat|4), math.Float64bits(v))
}
