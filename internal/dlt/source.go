package dlt

import (
	"errors"
	"io"
	"os"
)

const (
	defaultBlockSize = 1 << 20
	minBlockSize     = 64 << 10
)

type dataSource interface {
	Size() int64
	Slice(offset int64, length int) ([]byte, error)
	ReadAt(p []byte, offset int64) (int, error)
	Close() error
}

// blockSource serves reads from a sliding window over the file so that the
// many small header reads of one message hit memory rather than the kernel.
type blockSource struct {
	file      *os.File
	size      int64
	blockSize int
	buf       []byte
	bufStart  int64
	bufLen    int
}

func newBlockSource(f *os.File, size int64, blockSize int) *blockSource {
	if blockSize < minBlockSize {
		blockSize = minBlockSize
	}
	return &blockSource{file: f, size: size, blockSize: blockSize}
}

func (bs *blockSource) Size() int64 {
	return bs.size
}

func (bs *blockSource) Close() error {
	if bs.file == nil {
		return nil
	}
	err := bs.file.Close()
	bs.file = nil
	bs.buf = nil
	bs.bufLen = 0
	return err
}

// fill loads the window starting at offset so that at least length bytes
// (or everything up to EOF) are buffered.
func (bs *blockSource) fill(offset int64, length int) error {
	if bs.file == nil {
		return io.EOF
	}
	if offset >= bs.bufStart && offset+int64(length) <= bs.bufStart+int64(bs.bufLen) {
		return nil
	}
	if offset >= bs.size {
		bs.bufLen = 0
		return io.EOF
	}
	want := bs.blockSize
	if length > want {
		want = length
	}
	if remain := bs.size - offset; int64(want) > remain {
		want = int(remain)
	}
	if cap(bs.buf) < want {
		bs.buf = make([]byte, want)
	}
	bs.buf = bs.buf[:want]
	n, err := bs.file.ReadAt(bs.buf, offset)
	bs.bufStart = offset
	bs.bufLen = n
	if err != nil && !errors.Is(err, io.EOF) {
		bs.bufLen = 0
		return err
	}
	if n == 0 {
		return io.EOF
	}
	return nil
}

// Slice returns a view of up to length bytes at offset. The view is only valid
// until the next call. A short view is returned together with io.EOF.
func (bs *blockSource) Slice(offset int64, length int) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}
	if offset < 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if offset >= bs.size {
		return nil, io.EOF
	}
	if err := bs.fill(offset, length); err != nil {
		return nil, err
	}
	start := int(offset - bs.bufStart)
	end := start + length
	if end > bs.bufLen {
		end = bs.bufLen
	}
	view := bs.buf[start:end]
	if len(view) < length {
		return view, io.EOF
	}
	return view, nil
}

func (bs *blockSource) ReadAt(p []byte, offset int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	view, err := bs.Slice(offset, len(p))
	n := copy(p, view)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// readExact copies exactly length bytes at offset. It returns
// io.ErrUnexpectedEOF when the file ends first.
func readExact(src dataSource, offset int64, length int) ([]byte, error) {
	view, err := src.Slice(offset, length)
	if len(view) < length {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

// memSource serves an in-memory file image.
type memSource struct {
	data []byte
}

func (m *memSource) Size() int64 {
	return int64(len(m.data))
}

func (m *memSource) Close() error {
	m.data = nil
	return nil
}

func (m *memSource) Slice(offset int64, length int) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}
	if offset < 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if offset >= int64(len(m.data)) {
		return nil, io.EOF
	}
	end := offset + int64(length)
	if end > int64(len(m.data)) {
		return m.data[offset:], io.EOF
	}
	return m.data[offset:end], nil
}

func (m *memSource) ReadAt(p []byte, offset int64) (int, error) {
	view, err := m.Slice(offset, len(p))
	n := copy(p, view)
	if n < len(p) && err == nil {
		err = io.EOF
	}
	return n, err
}
