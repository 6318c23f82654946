package dlt

import (
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders storage header seconds/microseconds as wall-clock
// time in loc. Microseconds are appended as read, padded to six digits;
// out-of-range values are printed in full rather than carried into the
// seconds.
func FormatTimestamp(seconds, micros uint32, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.Unix(int64(seconds), 0).In(loc)
	return fmt.Sprintf("%s.%06d", t.Format(timestampLayout), micros)
}
