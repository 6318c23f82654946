// Package diff compares two decoded logs line by line.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

// Line renders the parts of a message that are compared. Index and
// timestamp are left out so that logs recorded at different times, or
// concatenated differently, still line up.
func Line(m dlt.Message) string {
	return strings.Join([]string{m.ECUID, m.AppID, m.ContextID, string(m.Type), m.Payload}, "  ")
}

func lines(msgs []dlt.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(Line(m))
		b.WriteByte('\n')
	}
	return b.String()
}

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Hunk is a run of lines that are equal, only in B (Insert) or only in A
// (Delete).
type Hunk struct {
	Op    Op
	Lines []string
}

type Result struct {
	Hunks   []Hunk
	Added   int
	Removed int
}

func (r Result) Equal() bool {
	return r.Added == 0 && r.Removed == 0
}

// Compare diffs a against b at line granularity.
func Compare(a, b []dlt.Message) Result {
	dmp := diffpatch.New()
	textA, textB, lineArray := dmp.DiffLinesToChars(lines(a), lines(b))
	diffs := dmp.DiffMain(textA, textB, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var res Result
	for _, d := range diffs {
		h := Hunk{Lines: splitLines(d.Text)}
		switch d.Type {
		case diffpatch.DiffInsert:
			h.Op = Insert
			res.Added += len(h.Lines)
		case diffpatch.DiffDelete:
			h.Op = Delete
			res.Removed += len(h.Lines)
		default:
			h.Op = Equal
		}
		res.Hunks = append(res.Hunks, h)
	}
	return res
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Write prints the diff in unified style. Equal runs longer than 2*context
// lines are elided.
func Write(w io.Writer, r Result, context int, useColor bool) error {
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	for _, c := range []*color.Color{add, del} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	for i, h := range r.Hunks {
		switch h.Op {
		case Insert:
			for _, l := range h.Lines {
				if _, err := add.Fprintln(w, "+ "+l); err != nil {
					return err
				}
			}
		case Delete:
			for _, l := range h.Lines {
				if _, err := del.Fprintln(w, "- "+l); err != nil {
					return err
				}
			}
		default:
			if err := writeEqual(w, h.Lines, context, i == 0, i == len(r.Hunks)-1); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d added, %d removed\n", r.Added, r.Removed)
	return err
}

func writeEqual(w io.Writer, ls []string, context int, first, last bool) error {
	head, tail := context, context
	if first {
		head = 0
	}
	if last {
		tail = 0
	}
	if len(ls) <= head+tail {
		head, tail = len(ls), 0
	}
	for _, l := range ls[:head] {
		if _, err := fmt.Fprintln(w, "  "+l); err != nil {
			return err
		}
	}
	if skipped := len(ls) - head - tail; skipped > 0 {
		if _, err := fmt.Fprintf(w, "@@ %d unchanged lines @@\n", skipped); err != nil {
			return err
		}
	}
	for _, l := range ls[len(ls)-tail:] {
		if _, err := fmt.Fprintln(w, "  "+l); err != nil {
			return err
		}
	}
	return nil
}
