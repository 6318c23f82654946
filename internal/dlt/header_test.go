package dlt

import (
	"errors"
	"testing"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt/dlttest"
)

func TestDecodeFrame(t *testing.T) {
	withOptional := dlttest.Verbose(dlttest.String("hi"))
	withOptional.HTYP = dlttest.HTYPWithECU | dlttest.HTYPWithSession | dlttest.HTYPWithTime
	withOptional.HeaderECU = "HDR1"
	withOptional.SessionID = 7
	withOptional.Tick = 12345

	good := dlttest.Encode(withOptional)
	src := &memSource{data: good}
	fr, err := decodeFrame(src, 0)
	if err != nil {
		t.Fatalf("decodeFrame returned error: %v", err)
	}
	if fr.size != int64(len(good)) {
		t.Fatalf("size = %d, want %d", fr.size, len(good))
	}
	if fr.storage.ECUID != "ECU1" || fr.storage.Seconds != 1_700_000_000 {
		t.Fatalf("storage header = %+v", fr.storage)
	}
	if fr.standard.ECUID == nil || *fr.standard.ECUID != "HDR1" {
		t.Fatalf("standard ecu id = %v, want HDR1", fr.standard.ECUID)
	}
	if fr.standard.SessionID == nil || *fr.standard.SessionID != 7 {
		t.Fatalf("session id = %v, want 7", fr.standard.SessionID)
	}
	if fr.standard.Timestamp == nil || *fr.standard.Timestamp != 12345 {
		t.Fatalf("timestamp = %v, want 12345", fr.standard.Timestamp)
	}
	if fr.extended == nil || fr.extended.AppID != "APP1" || fr.extended.ContextID != "CTX1" || fr.extended.NumArgs != 1 {
		t.Fatalf("extended header = %+v", fr.extended)
	}
	if len(fr.payload) != len(dlttest.String("hi")) {
		t.Fatalf("payload length = %d", len(fr.payload))
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	plain := dlttest.Encode(dlttest.Verbose(dlttest.String("x")))

	badLength := dlttest.Verbose()
	badLength.Length = 3

	shortExt := dlttest.Verbose()
	shortExt.Length = 4 + 6

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "bad magic", data: append([]byte("XLT\x01"), plain[4:]...), want: ErrBadMagic},
		{name: "length below header", data: dlttest.Encode(badLength), want: ErrBadLength},
		{name: "extended header cut", data: dlttest.Encode(shortExt)[:20+6], want: ErrShortHeader},
		{name: "body past eof", data: plain[:len(plain)-1], want: ErrTruncated},
		{name: "lead bytes short", data: plain[:10], want: ErrTruncated},
		{name: "short garbage tail", data: []byte("abcdefg"), want: ErrBadMagic},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeFrame(&memSource{data: tc.data}, 0)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected error %v, got %v", tc.want, err)
			}
		})
	}
}

func TestASCIIID(t *testing.T) {
	tests := map[string]struct {
		raw  []byte
		want string
	}{
		"full":         {raw: []byte("ECU1"), want: "ECU1"},
		"nul padded":   {raw: []byte{'A', 'B', 0, 0}, want: "AB"},
		"space":        {raw: []byte{' ', 'A', 'B', ' '}, want: "AB"},
		"nonprintable": {raw: []byte{0x01, 'X', 0xFF, 'Y'}, want: "XY"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := asciiID(tc.raw); got != tc.want {
				t.Fatalf("asciiID = %q, want %q", got, tc.want)
			}
		})
	}
}
