package dlt

import (
	"bytes"
	"errors"
	"io"
)

const defaultResyncChunk = 4096

var magicBytes = []byte(magicPattern)

// findMarker scans forward from start in chunk-sized reads and returns the
// absolute offset of the next storage header marker. The trailing
// len(marker)-1 bytes of each chunk are carried into the next search so a
// marker split across two reads is still found. Memory stays bounded by one
// chunk plus the carry.
func findMarker(src dataSource, start int64, chunk []byte) (int64, error) {
	overlap := len(magicBytes) - 1
	carry := make([]byte, 0, overlap)
	window := make([]byte, 0, overlap+len(chunk))
	pos := start
	for pos < src.Size() {
		n, err := src.ReadAt(chunk, pos)
		if n == 0 {
			if err != nil && !errors.Is(err, io.EOF) {
				return -1, err
			}
			break
		}
		window = append(window[:0], carry...)
		window = append(window, chunk[:n]...)
		if i := bytes.Index(window, magicBytes); i >= 0 {
			return pos - int64(len(carry)) + int64(i), nil
		}
		keep := overlap
		if len(window) < keep {
			keep = len(window)
		}
		carry = append(carry[:0], window[len(window)-keep:]...)
		pos += int64(n)
		if err != nil && !errors.Is(err, io.EOF) {
			return -1, err
		}
	}
	return -1, ErrNoMarker
}
