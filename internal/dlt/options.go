package dlt

import (
	"fmt"
	"strings"
	"time"
)

// TextEncoding selects how verbose string arguments without the UTF-8 coding
// flag are decoded.
type TextEncoding string

const (
	EncodingASCII  TextEncoding = "ascii"
	EncodingLatin1 TextEncoding = "latin1"
)

// ParseTextEncoding accepts the spellings used in configuration files.
func ParseTextEncoding(s string) (TextEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii", "us-ascii":
		return EncodingASCII, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	default:
		return EncodingASCII, fmt.Errorf("unsupported string encoding %q", s)
	}
}

// Options tunes decoding. The zero value decodes ASCII strings, renders local
// time and uses the default buffer sizes.
type Options struct {
	Location        *time.Location
	StringEncoding  TextEncoding
	ResyncChunkSize int
	BlockSize       int
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.StringEncoding == "" {
		o.StringEncoding = EncodingASCII
	}
	if o.ResyncChunkSize <= 0 {
		o.ResyncChunkSize = defaultResyncChunk
	}
	if o.BlockSize <= 0 {
		o.BlockSize = defaultBlockSize
	}
	return o
}

// Fingerprint identifies the options that change rendered output. Cached
// decode results are only valid for an identical fingerprint.
func (o Options) Fingerprint() string {
	o = o.withDefaults()
	return fmt.Sprintf("enc=%s;tz=%s", o.StringEncoding, o.Location.String())
}
