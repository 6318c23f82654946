// Package filter selects decoded messages by text pattern or expression.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

// Env is the environment of a where expression. Field names are the ones
// users write, e.g. `app == "DIAG" && payload contains "timeout"`.
type Env struct {
	Index   uint64 `expr:"index"`
	Time    string `expr:"time"`
	ECU     string `expr:"ecu"`
	App     string `expr:"app"`
	Ctx     string `expr:"ctx"`
	Type    string `expr:"type"`
	Payload string `expr:"payload"`
	Source  string `expr:"source"`
}

func envOf(m dlt.Message) Env {
	return Env{
		Index:   m.Index,
		Time:    m.Timestamp,
		ECU:     m.ECUID,
		App:     m.AppID,
		Ctx:     m.ContextID,
		Type:    string(m.Type),
		Payload: m.Payload,
		Source:  m.SourceFile,
	}
}

type matcher func(string) bool

type Filter struct {
	patterns []matcher
	where    *vm.Program
}

// New compiles the patterns and the optional where expression. Patterns are
// case-insensitive substrings, or regular expressions when regex is set, and
// are matched against "ecu app ctx payload". A message passes when any
// pattern matches and the where expression, if given, is true.
func New(patterns []string, regex bool, where string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if regex {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", p, err)
			}
			f.patterns = append(f.patterns, re.MatchString)
			continue
		}
		needle := strings.ToLower(p)
		f.patterns = append(f.patterns, func(s string) bool {
			return strings.Contains(strings.ToLower(s), needle)
		})
	}
	if strings.TrimSpace(where) != "" {
		program, err := expr.Compile(where, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("where %q: %w", where, err)
		}
		f.where = program
	}
	return f, nil
}

// Empty reports whether the filter passes everything.
func (f *Filter) Empty() bool {
	return len(f.patterns) == 0 && f.where == nil
}

// SearchText is the text patterns are matched against.
func SearchText(m dlt.Message) string {
	return m.ECUID + " " + m.AppID + " " + m.ContextID + " " + m.Payload
}

func (f *Filter) Match(m dlt.Message) (bool, error) {
	if len(f.patterns) > 0 {
		text := SearchText(m)
		hit := false
		for _, match := range f.patterns {
			if match(text) {
				hit = true
				break
			}
		}
		if !hit {
			return false, nil
		}
	}
	if f.where == nil {
		return true, nil
	}
	out, err := expr.Run(f.where, envOf(m))
	if err != nil {
		return false, fmt.Errorf("message %d: %w", m.Index, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply returns the messages that pass, keeping their order and indices.
func (f *Filter) Apply(msgs []dlt.Message) ([]dlt.Message, error) {
	if f.Empty() {
		return msgs, nil
	}
	out := make([]dlt.Message, 0, len(msgs))
	for _, m := range msgs {
		ok, err := f.Match(m)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}
