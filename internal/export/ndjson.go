package export

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

// NDJSONWriter writes newline-delimited JSON objects to the underlying
// writer. It is safe for concurrent use.
type NDJSONWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{writer: w}
}

// Write marshals the message as a single NDJSON record.
func (w *NDJSONWriter) Write(m dlt.Message) error {
	return w.WriteObject(m)
}

// WriteObject marshals v to JSON and writes it followed by a newline.
func (w *NDJSONWriter) WriteObject(v any) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.writer.Write(data)
	return err
}

func (w *NDJSONWriter) Close() error { return nil }
