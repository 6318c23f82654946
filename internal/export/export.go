// Package export writes decoded messages in the formats dltctl offers.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

// Writer receives messages one at a time. Close finishes the document but
// does not close the underlying writer.
type Writer interface {
	Write(m dlt.Message) error
	Close() error
}

var Formats = []string{"table", "text", "ndjson", "json"}

// New returns a writer for format. useColor only affects the table format.
func New(format string, w io.Writer, useColor bool) (Writer, error) {
	switch format {
	case "table":
		return newTableWriter(w, useColor), nil
	case "text":
		return &textWriter{w: w}, nil
	case "ndjson":
		return NewNDJSONWriter(w), nil
	case "json":
		return &jsonWriter{w: w}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// ColorEnabled resolves a color mode of auto, always or never for w. Auto
// colors only terminals and honors NO_COLOR.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WriteAll writes msgs and closes the document.
func WriteAll(w Writer, msgs []dlt.Message) error {
	for _, m := range msgs {
		if err := w.Write(m); err != nil {
			return err
		}
	}
	return w.Close()
}

// Columns renders the fields shown for a message, in display order.
func Columns(m dlt.Message) []string {
	return []string{
		strconv.FormatUint(m.Index, 10),
		m.Timestamp,
		m.ECUID,
		m.AppID,
		m.ContextID,
		string(m.Type),
		m.Payload,
	}
}

var columnTitles = []string{"Index", "Timestamp", "ECU ID", "App ID", "Context ID", "Type", "Payload"}

type textWriter struct {
	w io.Writer
}

func (t *textWriter) Write(m dlt.Message) error {
	_, err := io.WriteString(t.w, strings.Join(Columns(m), "  ")+"\n")
	return err
}

func (t *textWriter) Close() error { return nil }

type tableWriter struct {
	w      io.Writer
	header bool
	widths []int
	index  *color.Color
	title  *color.Color
	byType map[dlt.MessageType]*color.Color
}

func newTableWriter(w io.Writer, useColor bool) *tableWriter {
	tw := &tableWriter{
		w:      w,
		widths: []int{8, 26, 4, 4, 4, 8},
		index:  color.New(color.Faint),
		title:  color.New(color.Bold),
		byType: map[dlt.MessageType]*color.Color{
			dlt.TypeLog:     color.New(color.FgGreen),
			dlt.TypeTrace:   color.New(color.FgCyan),
			dlt.TypeNWTrace: color.New(color.FgBlue),
			dlt.TypeControl: color.New(color.FgYellow),
		},
	}
	all := []*color.Color{tw.index, tw.title}
	for _, c := range tw.byType {
		all = append(all, c)
	}
	for _, c := range all {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return tw
}

func pad(s string, width int) string {
	if n := len(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func (t *tableWriter) row(cols []string, paint func(i int, s string) string) string {
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteString("  ")
		}
		if i < len(t.widths) {
			c = pad(c, t.widths[i])
		}
		b.WriteString(paint(i, c))
	}
	b.WriteByte('\n')
	return b.String()
}

func (t *tableWriter) Write(m dlt.Message) error {
	if !t.header {
		t.header = true
		line := t.row(columnTitles, func(_ int, s string) string { return t.title.Sprint(s) })
		if _, err := io.WriteString(t.w, line); err != nil {
			return err
		}
	}
	typeColor := t.byType[m.Type]
	line := t.row(Columns(m), func(i int, s string) string {
		switch i {
		case 0:
			return t.index.Sprint(s)
		case 5:
			if typeColor == nil {
				return s
			}
			return typeColor.Sprint(s)
		default:
			return s
		}
	})
	_, err := io.WriteString(t.w, line)
	return err
}

func (t *tableWriter) Close() error { return nil }

type jsonWriter struct {
	w     io.Writer
	count int
}

func (j *jsonWriter) Write(m dlt.Message) error {
	prefix := ",\n  "
	if j.count == 0 {
		prefix = "[\n  "
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	j.count++
	if _, err := io.WriteString(j.w, prefix); err != nil {
		return err
	}
	_, err = j.w.Write(data)
	return err
}

func (j *jsonWriter) Close() error {
	closing := "\n]\n"
	if j.count == 0 {
		closing = "[]\n"
	}
	_, err := io.WriteString(j.w, closing)
	return err
}
