package dlt

import (
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	plus2 := time.FixedZone("plus2", 2*60*60)
	tests := []struct {
		name    string
		seconds uint32
		micros  uint32
		loc     *time.Location
		want    string
	}{
		{name: "epoch", loc: time.UTC, want: "1970-01-01 00:00:00.000000"},
		{name: "micros padded", seconds: 1_700_000_000, micros: 42, loc: time.UTC, want: "2023-11-14 22:13:20.000042"},
		{name: "fixed zone", seconds: 1_700_000_000, micros: 999_999, loc: plus2, want: "2023-11-15 00:13:20.999999"},
		{name: "max seconds", seconds: 0xFFFFFFFF, loc: time.UTC, want: "2106-02-07 06:28:15.000000"},
		{name: "micros out of range", seconds: 5, micros: 2_000_000, loc: time.UTC, want: "1970-01-01 00:00:05.2000000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatTimestamp(tc.seconds, tc.micros, tc.loc); got != tc.want {
				t.Fatalf("FormatTimestamp = %q, want %q", got, tc.want)
			}
		})
	}
}
