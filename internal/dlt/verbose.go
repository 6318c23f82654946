package dlt

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Type-info word layout of a verbose argument.
const (
	tiLengthMask = uint32(0x0F)
	tiBool       = uint32(1) << 4
	tiSigned     = uint32(1) << 5
	tiUnsigned   = uint32(1) << 6
	tiFloat      = uint32(1) << 7
	tiArray      = uint32(1) << 8
	tiString     = uint32(1) << 9
	tiRaw        = uint32(1) << 10
	tiVariable   = uint32(1) << 11
	tiFixedPoint = uint32(1) << 12
	tiTrace      = uint32(1) << 13
	tiStruct     = uint32(1) << 14
	tiCodingMask = uint32(0x7) << 15

	tiPrimaryMask     = tiBool | tiSigned | tiUnsigned | tiFloat | tiString | tiRaw
	tiUnsupportedMask = tiArray | tiVariable | tiFixedPoint | tiTrace | tiStruct

	codingUTF8 = 1

	typeInfoSize   = 4
	lengthFieldLen = 2
	maxArgLength   = 4096
)

var (
	errArgShort  = errors.New("argument runs past end of payload")
	errArgLength = errors.New("argument length above limit")
	errArgType   = errors.New("unsupported type info")
	errArgWidth  = errors.New("unsupported type length")
)

// ArgResult is the outcome of decoding one argument slot: either rendered
// text and the number of bytes consumed, or the reason the slot was skipped.
type ArgResult struct {
	Text     string
	Consumed int
	Err      error
}

// ArgSkip records a skipped argument slot.
type ArgSkip struct {
	Slot   int
	Offset int
	Reason error
}

func (s ArgSkip) String() string {
	return fmt.Sprintf("argument %d at payload offset %d: %v", s.Slot+1, s.Offset, s.Reason)
}

func skipArg(format string, args ...any) ArgResult {
	return ArgResult{Err: fmt.Errorf(format, args...)}
}

// DecodeArgument decodes the single verbose argument at the start of buf.
func DecodeArgument(buf []byte, enc TextEncoding) ArgResult {
	if len(buf) < typeInfoSize {
		return skipArg("type info: %w", errArgShort)
	}
	ti := binary.LittleEndian.Uint32(buf[:typeInfoSize])
	if ti&tiUnsupportedMask != 0 || bits.OnesCount32(ti&tiPrimaryMask) != 1 {
		return skipArg("type info 0x%08x: %w", ti, errArgType)
	}
	data := buf[typeInfoSize:]
	tyle := ti & tiLengthMask

	var res ArgResult
	switch {
	case ti&tiString != 0:
		res = decodeLengthPrefixed(data, func(raw []byte) string {
			return decodeString(raw, (ti&tiCodingMask)>>15 == codingUTF8, enc)
		})
	case ti&tiBool != 0:
		if len(data) < 1 {
			return skipArg("bool: %w", errArgShort)
		}
		res = ArgResult{Text: strconv.FormatBool(data[0] != 0), Consumed: 1}
	case ti&tiSigned != 0, ti&tiUnsigned != 0:
		res = decodeInteger(data, tyle, ti&tiSigned != 0)
	case ti&tiFloat != 0:
		res = decodeFloat(data, tyle)
	case ti&tiRaw != 0:
		res = decodeLengthPrefixed(data, hex.EncodeToString)
	}
	if res.Err != nil {
		return res
	}
	res.Consumed += typeInfoSize
	return res
}

func decodeLengthPrefixed(data []byte, render func([]byte) string) ArgResult {
	if len(data) < lengthFieldLen {
		return skipArg("length field: %w", errArgShort)
	}
	n := int(binary.LittleEndian.Uint16(data[:lengthFieldLen]))
	if n > maxArgLength {
		return skipArg("length %d: %w", n, errArgLength)
	}
	if len(data)-lengthFieldLen < n {
		return skipArg("length %d with %d bytes left: %w", n, len(data)-lengthFieldLen, errArgShort)
	}
	raw := data[lengthFieldLen : lengthFieldLen+n]
	return ArgResult{Text: render(raw), Consumed: lengthFieldLen + n}
}

func intWidth(tyle uint32) int {
	switch tyle {
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 4
	case 4:
		return 8
	default:
		return 0
	}
}

func decodeInteger(data []byte, tyle uint32, signed bool) ArgResult {
	width := intWidth(tyle)
	if width == 0 {
		return skipArg("integer type length %d: %w", tyle, errArgWidth)
	}
	if len(data) < width {
		return skipArg("integer of %d bytes: %w", width, errArgShort)
	}
	var u uint64
	switch width {
	case 1:
		u = uint64(data[0])
	case 2:
		u = uint64(binary.LittleEndian.Uint16(data))
	case 4:
		u = uint64(binary.LittleEndian.Uint32(data))
	case 8:
		u = binary.LittleEndian.Uint64(data)
	}
	if !signed {
		return ArgResult{Text: strconv.FormatUint(u, 10), Consumed: width}
	}
	// Sign-extend from the encoded width.
	shift := uint(64 - 8*width)
	v := int64(u<<shift) >> shift
	return ArgResult{Text: strconv.FormatInt(v, 10), Consumed: width}
}

func decodeFloat(data []byte, tyle uint32) ArgResult {
	switch tyle {
	case 3:
		if len(data) < 4 {
			return skipArg("float32: %w", errArgShort)
		}
		f := math.Float32frombits(binary.LittleEndian.Uint32(data))
		return ArgResult{Text: strconv.FormatFloat(float64(f), 'f', 6, 64), Consumed: 4}
	case 4:
		if len(data) < 8 {
			return skipArg("float64: %w", errArgShort)
		}
		f := math.Float64frombits(binary.LittleEndian.Uint64(data))
		return ArgResult{Text: strconv.FormatFloat(f, 'f', 6, 64), Consumed: 8}
	default:
		return skipArg("float type length %d: %w", tyle, errArgWidth)
	}
}

func decodeString(raw []byte, utf8Coded bool, enc TextEncoding) string {
	var s string
	switch {
	case utf8Coded:
		s = string(raw)
		if !utf8.ValidString(s) {
			s = strings.ToValidUTF8(s, "\uFFFD")
		}
	case enc == EncodingLatin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			s = asciiOnly(raw)
		} else {
			s = string(out)
		}
	default:
		s = asciiOnly(raw)
	}
	return strings.TrimRight(s, "\x00")
}

func asciiOnly(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c < 0x80 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// DecodeVerbose renders up to numArgs type-tagged arguments from payload. A
// slot that fails to decode moves the cursor one byte past the slot's start
// and counts against numArgs. When no slot succeeds, the whole payload is
// rendered by DecodeNonVerbose instead.
func DecodeVerbose(payload []byte, numArgs int, enc TextEncoding) Payload {
	out := Payload{Kind: PayloadVerbose}
	parts := make([]string, 0, numArgs)
	cursor := 0
	for slot := 0; slot < numArgs && cursor < len(payload); slot++ {
		res := DecodeArgument(payload[cursor:], enc)
		if res.Err != nil {
			out.Skips = append(out.Skips, ArgSkip{Slot: slot, Offset: cursor, Reason: res.Err})
			cursor++
			continue
		}
		out.Rendered++
		if res.Text != "" {
			parts = append(parts, res.Text)
		}
		cursor += res.Consumed
	}
	if out.Rendered == 0 {
		out.Fallback = true
		out.Text = DecodeNonVerbose(payload)
		return out
	}
	out.Text = strings.Join(parts, " ")
	return out
}
