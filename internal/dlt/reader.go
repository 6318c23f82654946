package dlt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
)

// Reader iterates across a DLT file sequentially while building an index of
// message positions. Damaged regions are skipped by scanning for the next
// storage header marker; a message cut short by the end of the file ends
// iteration.
type Reader struct {
	source    dataSource
	size      int64
	offset    int64
	name      string
	opts      Options
	resyncBuf []byte

	metrics *common.Metrics
	index   FileIndex
}

// NewReader opens the file at path and prepares an iterator.
func NewReader(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	opts = opts.withDefaults()
	src := newBlockSource(f, info.Size(), opts.BlockSize)
	return newReader(src, filepath.Base(path), opts), nil
}

// NewBytesReader iterates over an in-memory file image. name is reported as
// the source file of every message.
func NewBytesReader(name string, data []byte, opts Options) *Reader {
	return newReader(&memSource{data: data}, name, opts.withDefaults())
}

func newReader(src dataSource, name string, opts Options) *Reader {
	return &Reader{
		source:    src,
		size:      src.Size(),
		name:      name,
		opts:      opts,
		resyncBuf: make([]byte, opts.ResyncChunkSize),
	}
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if r.source == nil {
		return nil
	}
	err := r.source.Close()
	r.source = nil
	return err
}

// SetMetrics attaches a metrics recorder to the reader. The caller owns the
// recorder's totals.
func (r *Reader) SetMetrics(m *common.Metrics) {
	r.metrics = m
}

// Size is the length of the underlying file.
func (r *Reader) Size() int64 {
	return r.size
}

// Name is the base name reported as SourceFile.
func (r *Reader) Name() string {
	return r.name
}

// Offset is the position of the next message to decode.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Index returns a copy of the accumulated file index.
func (r *Reader) Index() FileIndex {
	out := FileIndex{
		Messages: make([]MessageIndex, len(r.index.Messages)),
		Resyncs:  r.index.Resyncs,
	}
	copy(out.Messages, r.index.Messages)
	return out
}

// Next decodes the next message. It returns io.EOF when the file is
// exhausted, including when the remaining bytes cannot hold a complete
// message. Message.Index is left zero; numbering is up to the caller.
func (r *Reader) Next() (Message, MessageIndex, error) {
	if r.source == nil {
		return Message{}, MessageIndex{}, io.EOF
	}
	for {
		if r.offset >= r.size {
			return Message{}, MessageIndex{}, io.EOF
		}
		fr, err := decodeFrame(r.source, r.offset)
		if err != nil {
			switch {
			case errors.Is(err, ErrTruncated):
				common.Logf("%s: %v; dropping %d trailing bytes at offset %d", r.name, err, r.size-r.offset, r.offset)
				r.skipTo(r.size)
				return Message{}, MessageIndex{}, io.EOF
			case errors.Is(err, ErrBadMagic), errors.Is(err, ErrBadLength), errors.Is(err, ErrShortHeader):
				if rerr := r.resync(err); rerr != nil {
					return Message{}, MessageIndex{}, rerr
				}
				continue
			default:
				return Message{}, MessageIndex{}, fmt.Errorf("%s: read at offset %d: %w", r.name, r.offset, err)
			}
		}

		msg, idx := r.render(fr)
		r.index.Messages = append(r.index.Messages, idx)
		if r.metrics != nil {
			r.metrics.AddMessage(fr.size)
		}
		r.offset += fr.size
		return msg, idx, nil
	}
}

func (r *Reader) render(fr frame) (Message, MessageIndex) {
	payload := RenderPayload(fr.extended, fr.payload, r.opts.StringEncoding)
	msg := Message{
		Timestamp:  FormatTimestamp(fr.storage.Seconds, fr.storage.Microseconds, r.opts.Location),
		ECUID:      fr.storage.ECUID,
		Type:       TypeLog,
		Payload:    payload.Text,
		SourceFile: r.name,
	}
	idx := MessageIndex{
		Offset:      fr.offset,
		Length:      fr.size,
		Kind:        payload.Kind,
		SkippedArgs: len(payload.Skips),
	}
	if fr.extended != nil {
		msg.AppID = fr.extended.AppID
		msg.ContextID = fr.extended.ContextID
		msg.Type = fr.extended.Type()
		idx.NumArgs = fr.extended.NumArgs
	}
	for _, skip := range payload.Skips {
		common.Debugf("%s: message at offset %d: skipped %s", r.name, fr.offset, skip)
	}
	if payload.Fallback {
		common.Debugf("%s: message at offset %d: no verbose argument decoded, rendered as text", r.name, fr.offset)
	}
	if r.metrics != nil && len(payload.Skips) > 0 {
		r.metrics.AddSkippedArgs(int64(len(payload.Skips)))
	}
	return msg, idx
}

func (r *Reader) skipTo(offset int64) {
	if r.metrics != nil && offset > r.offset {
		r.metrics.AddBytes(offset - r.offset)
	}
	r.offset = offset
}

// resync moves the cursor to the next marker after the current offset. It
// returns io.EOF when no marker is left.
func (r *Reader) resync(reason error) error {
	common.Logf("%s: resync at offset %d: %v", r.name, r.offset, reason)
	r.index.Resyncs++
	if r.metrics != nil {
		r.metrics.IncResync()
	}
	pos, err := findMarker(r.source, r.offset+1, r.resyncBuf)
	if err != nil {
		if errors.Is(err, ErrNoMarker) {
			common.Logf("%s: %v after offset %d", r.name, err, r.offset)
			r.skipTo(r.size)
			return io.EOF
		}
		return fmt.Errorf("%s: resync from offset %d: %w", r.name, r.offset, err)
	}
	r.skipTo(pos)
	common.Logf("%s: resync successful, new offset %d", r.name, r.offset)
	return nil
}

// ReadAll decodes every message of the file at path.
func ReadAll(path string, opts Options) ([]Message, FileIndex, error) {
	r, err := NewReader(path, opts)
	if err != nil {
		return nil, FileIndex{}, err
	}
	defer r.Close()
	return drain(r)
}

func drain(r *Reader) ([]Message, FileIndex, error) {
	var out []Message
	for {
		msg, _, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, r.Index(), nil
			}
			return out, r.Index(), err
		}
		out = append(out, msg)
	}
}
