// Package report summarizes a decoded batch as JSON or PDF.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/batch"
)

type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type FileSummary struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	FirstIndex  uint64 `json:"firstIndex"`
	Messages    int    `json:"messages"`
	Resyncs     int    `json:"resyncs"`
	SkippedArgs int    `json:"skippedArgs"`
	Cached      bool   `json:"cached,omitempty"`
	Error       string `json:"error,omitempty"`
}

type Summary struct {
	RunID          string        `json:"runId"`
	Generated      time.Time     `json:"generated"`
	Duration       string        `json:"duration"`
	Digest         string        `json:"digest,omitempty"`
	Messages       int           `json:"messages"`
	Resyncs        int           `json:"resyncs"`
	SkippedArgs    int           `json:"skippedArgs"`
	FirstTimestamp string        `json:"firstTimestamp,omitempty"`
	LastTimestamp  string        `json:"lastTimestamp,omitempty"`
	ByType         []Count       `json:"byType"`
	ByECU          []Count       `json:"byEcu"`
	ByApp          []Count       `json:"byApp"`
	Files          []FileSummary `json:"files"`
}

// Build summarizes res. digest identifies the input set, normally the
// manifest digest, and may be empty.
func Build(res batch.Result, digest string) Summary {
	s := Summary{
		RunID:     res.RunID,
		Generated: time.Now().UTC(),
		Duration:  res.Finished.Sub(res.Started).Round(time.Millisecond).String(),
		Digest:    digest,
		Messages:  len(res.Messages),
	}
	byType := map[string]int{}
	byECU := map[string]int{}
	byApp := map[string]int{}
	for _, m := range res.Messages {
		byType[string(m.Type)]++
		byECU[m.ECUID]++
		byApp[m.AppID]++
	}
	if n := len(res.Messages); n > 0 {
		s.FirstTimestamp = res.Messages[0].Timestamp
		s.LastTimestamp = res.Messages[n-1].Timestamp
	}
	s.ByType = sortedCounts(byType)
	s.ByECU = sortedCounts(byECU)
	s.ByApp = sortedCounts(byApp)
	for _, f := range res.Files {
		fs := FileSummary{
			Path:        f.Path,
			Name:        filepath.Base(f.Path),
			Size:        f.Size,
			FirstIndex:  f.FirstIndex,
			Messages:    f.Messages,
			Resyncs:     f.Resyncs,
			SkippedArgs: f.SkippedArgs,
			Cached:      f.Cached,
		}
		if f.Err != nil {
			fs.Error = f.Err.Error()
		}
		s.Resyncs += f.Resyncs
		s.SkippedArgs += f.SkippedArgs
		s.Files = append(s.Files, fs)
	}
	return s
}

// sortedCounts orders by descending count, then key. Empty keys are shown
// as "-".
func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		if k == "" {
			k = "-"
		}
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func SaveJSON(s Summary, out string) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadJSON(path string) (Summary, error) {
	var s Summary
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	err = json.Unmarshal(b, &s)
	return s, err
}

// Print writes a short plain-text summary.
func Print(w io.Writer, s Summary) error {
	_, err := fmt.Fprintf(w, "run %s: %d messages from %d files, %d resyncs, %d skipped arguments (%s)\n",
		s.RunID, s.Messages, len(s.Files), s.Resyncs, s.SkippedArgs, s.Duration)
	if err != nil {
		return err
	}
	for _, c := range s.ByType {
		if _, err := fmt.Fprintf(w, "  %-10s %d\n", c.Key, c.Count); err != nil {
			return err
		}
	}
	for _, f := range s.Files {
		line := fmt.Sprintf("  %s: %d messages", f.Name, f.Messages)
		if f.Resyncs > 0 {
			line += fmt.Sprintf(", %d resyncs", f.Resyncs)
		}
		if f.Error != "" {
			line += ", error: " + f.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
