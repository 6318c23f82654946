package dlt

import (
	"encoding/hex"
	"strings"
)

// PayloadKind tells how a payload was rendered.
type PayloadKind uint8

const (
	PayloadNonVerbose PayloadKind = iota
	PayloadVerbose
)

func (k PayloadKind) String() string {
	if k == PayloadVerbose {
		return "verbose"
	}
	return "non-verbose"
}

// Payload is a rendered message payload.
type Payload struct {
	Kind     PayloadKind
	Text     string
	Rendered int
	Skips    []ArgSkip
	// Fallback is set when a verbose payload rendered no argument and the
	// printable-text extraction was used instead.
	Fallback bool
}

const minTextRun = 2

// RenderPayload picks the verbose decoder when the extended header marks the
// message verbose with at least one argument, and the non-verbose fallback
// otherwise.
func RenderPayload(ext *ExtendedHeader, payload []byte, enc TextEncoding) Payload {
	if ext != nil && ext.Verbose() && ext.NumArgs > 0 {
		return DecodeVerbose(payload, int(ext.NumArgs), enc)
	}
	return Payload{Kind: PayloadNonVerbose, Text: DecodeNonVerbose(payload)}
}

// DecodeNonVerbose extracts runs of printable ASCII from untyped bytes. Runs
// are split on NUL or any other non-printable byte and only runs of at least
// two characters are kept. With no qualifying run the bytes are rendered as
// lowercase hex.
func DecodeNonVerbose(payload []byte) string {
	var tokens []string
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minTextRun {
			tokens = append(tokens, string(payload[start:end]))
		}
		start = -1
	}
	for i, c := range payload {
		if c >= 0x20 && c <= 0x7E {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(payload))
	if len(tokens) == 0 {
		return hex.EncodeToString(payload)
	}
	return strings.Join(tokens, " ")
}
