// Package batch decodes ordered sets of DLT files into one continuously
// numbered message sequence.
package batch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/common"
	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

// Cache stores decoded messages per file. Implementations key entries by
// file content, so a renamed or moved file still hits. Messages are stored
// with indices starting at zero.
type Cache interface {
	Get(path, fingerprint string) (msgs []dlt.Message, resyncs int, ok bool, err error)
	Put(path, fingerprint string, msgs []dlt.Message, resyncs int) error
}

// ProgressFunc is called after each file with the number of files finished
// and the batch size.
type ProgressFunc func(filesCompleted, total int)

type Options struct {
	Decode   dlt.Options
	Cache    Cache
	Progress ProgressFunc
	Metrics  *common.Metrics
}

// FileResult summarizes one file of a batch.
type FileResult struct {
	Path        string
	Size        int64
	FirstIndex  uint64
	Messages    int
	Resyncs     int
	SkippedArgs int
	Cached      bool
	Err         error
}

type Result struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Files    []FileResult
	Messages []dlt.Message
}

// ParseFile decodes every message of the file at path, numbering them from
// startIndex. It never fails: a file that cannot be opened or read
// contributes no messages.
func ParseFile(path string, startIndex uint64, opts dlt.Options) []dlt.Message {
	msgs, _ := parseFile(path, startIndex, opts, nil)
	return msgs
}

func parseFile(path string, startIndex uint64, opts dlt.Options, metrics *common.Metrics) ([]dlt.Message, FileResult) {
	fr := FileResult{Path: path, FirstIndex: startIndex}
	r, err := dlt.NewReader(path, opts)
	if err != nil {
		common.Logf("open %s: %v", path, err)
		fr.Err = err
		return nil, fr
	}
	defer r.Close()
	r.SetMetrics(metrics)
	fr.Size = r.Size()
	return collect(r, fr)
}

type messageReader interface {
	Next() (dlt.Message, dlt.MessageIndex, error)
	Index() dlt.FileIndex
}

// collect drains r, numbering messages from fr.FirstIndex. A read error
// other than io.EOF discards everything decoded from the file.
func collect(r messageReader, fr FileResult) ([]dlt.Message, FileResult) {
	var out []dlt.Message
	next := fr.FirstIndex
	for {
		msg, idx, err := r.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				common.Logf("decode %s: %v; dropping %d messages", fr.Path, err, len(out))
				fr.Err = err
				fr.SkippedArgs = 0
				fr.Resyncs = r.Index().Resyncs
				return nil, fr
			}
			break
		}
		msg.Index = next
		next++
		fr.SkippedArgs += idx.SkippedArgs
		out = append(out, msg)
	}
	fr.Messages = len(out)
	fr.Resyncs = r.Index().Resyncs
	return out, fr
}

// ParseBatch sorts paths with SortFilesByIndex and decodes them in order so
// that message indices run contiguously from zero across the whole batch.
// The context is checked between files; on cancellation the files finished
// so far are returned together with ctx.Err().
func ParseBatch(ctx context.Context, paths []string, opts Options) (Result, error) {
	res := Result{RunID: ksuid.New().String(), Started: time.Now()}
	sorted := SortFilesByIndex(paths)
	common.Logf("batch %s: %d files", res.RunID, len(sorted))

	if m := opts.Metrics; m != nil {
		m.SetTotalFiles(len(sorted))
		m.SetTotalBytes(totalSize(sorted))
		m.Start()
		defer m.Stop()
	}
	fingerprint := opts.Decode.Fingerprint()

	var next uint64
	for i, path := range sorted {
		if err := ctx.Err(); err != nil {
			res.Finished = time.Now()
			common.Logf("batch %s: cancelled after %d of %d files", res.RunID, i, len(sorted))
			return res, err
		}
		msgs, fr := loadFile(path, next, fingerprint, opts)
		res.Messages = append(res.Messages, msgs...)
		res.Files = append(res.Files, fr)
		next += uint64(len(msgs))
		if opts.Metrics != nil {
			opts.Metrics.FileDone()
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(sorted))
		}
	}
	res.Finished = time.Now()
	common.Logf("batch %s: %d messages in %s", res.RunID, len(res.Messages), res.Finished.Sub(res.Started).Round(time.Millisecond))
	return res, nil
}

func loadFile(path string, start uint64, fingerprint string, opts Options) ([]dlt.Message, FileResult) {
	if opts.Cache != nil {
		cached, resyncs, ok, err := opts.Cache.Get(path, fingerprint)
		if err != nil {
			common.Logf("cache lookup %s: %v", path, err)
		}
		if ok {
			name := filepath.Base(path)
			for i := range cached {
				cached[i].Index = start + uint64(i)
				cached[i].SourceFile = name
			}
			common.Debugf("cache hit %s: %d messages", path, len(cached))
			fr := FileResult{Path: path, FirstIndex: start, Messages: len(cached), Resyncs: resyncs, Cached: true}
			if info, err := os.Stat(path); err == nil {
				fr.Size = info.Size()
			}
			if opts.Metrics != nil {
				opts.Metrics.AddBytes(fr.Size)
				opts.Metrics.AddMessages(int64(len(cached)))
			}
			return cached, fr
		}
	}
	msgs, fr := parseFile(path, start, opts.Decode, opts.Metrics)
	if opts.Cache != nil && fr.Err == nil {
		if err := opts.Cache.Put(path, fingerprint, rebase(msgs, start), fr.Resyncs); err != nil {
			common.Logf("cache store %s: %v", path, err)
		}
	}
	return msgs, fr
}

// rebase returns a copy of msgs numbered from zero.
func rebase(msgs []dlt.Message, start uint64) []dlt.Message {
	out := make([]dlt.Message, len(msgs))
	for i, m := range msgs {
		m.Index -= start
		out[i] = m
	}
	return out
}

func totalSize(paths []string) int64 {
	var total int64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total
}
