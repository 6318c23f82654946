package common

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts decode progress for one batch. Counters may be bumped from
// the decoding goroutine while a progress printer reads snapshots.
type Metrics struct {
	bytes       atomic.Int64
	totalBytes  atomic.Int64
	messages    atomic.Int64
	resyncs     atomic.Int64
	skippedArgs atomic.Int64
	files       atomic.Int64
	totalFiles  atomic.Int64

	clock sync.Mutex
	start time.Time
	end   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Start marks the beginning of the run. Repeated calls keep the first mark.
func (m *Metrics) Start() {
	m.clock.Lock()
	defer m.clock.Unlock()
	if m.start.IsZero() {
		m.start = time.Now()
		m.end = time.Time{}
	}
}

func (m *Metrics) Stop() {
	m.clock.Lock()
	defer m.clock.Unlock()
	if !m.start.IsZero() && m.end.IsZero() {
		m.end = time.Now()
	}
}

// AddMessage accounts one decoded message of size bytes.
func (m *Metrics) AddMessage(size int64) {
	if size <= 0 {
		return
	}
	m.bytes.Add(size)
	m.messages.Add(1)
}

// AddMessages counts n messages whose bytes were accounted separately, as
// for cache hits.
func (m *Metrics) AddMessages(n int64) {
	if n > 0 {
		m.messages.Add(n)
	}
}

// AddBytes accounts bytes consumed without producing a message: skipped
// garbage, dropped tails and cache hits.
func (m *Metrics) AddBytes(n int64) {
	if n > 0 {
		m.bytes.Add(n)
	}
}

func (m *Metrics) IncResync() {
	m.resyncs.Add(1)
}

func (m *Metrics) AddSkippedArgs(n int64) {
	if n > 0 {
		m.skippedArgs.Add(n)
	}
}

func (m *Metrics) SetTotalBytes(total int64) {
	m.totalBytes.Store(max(total, 0))
}

func (m *Metrics) SetTotalFiles(n int) {
	m.totalFiles.Store(int64(max(n, 0)))
}

func (m *Metrics) FileDone() {
	m.files.Add(1)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Duration:    m.elapsed(),
		Bytes:       m.bytes.Load(),
		TotalBytes:  m.totalBytes.Load(),
		Messages:    m.messages.Load(),
		Resyncs:     m.resyncs.Load(),
		SkippedArgs: m.skippedArgs.Load(),
		Files:       m.files.Load(),
		TotalFiles:  m.totalFiles.Load(),
	}
}

func (m *Metrics) elapsed() time.Duration {
	m.clock.Lock()
	defer m.clock.Unlock()
	switch {
	case m.start.IsZero():
		return 0
	case m.end.IsZero():
		return time.Since(m.start)
	default:
		return m.end.Sub(m.start)
	}
}

type MetricsSnapshot struct {
	Duration    time.Duration
	Bytes       int64
	TotalBytes  int64
	Messages    int64
	Resyncs     int64
	SkippedArgs int64
	Files       int64
	TotalFiles  int64
}

func (s MetricsSnapshot) ThroughputBytesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Bytes) / s.Duration.Seconds()
}

// Completion is the consumed share of TotalBytes in [0, 1], or 0 when the
// total is unknown.
func (s MetricsSnapshot) Completion() float64 {
	if s.TotalBytes <= 0 || s.Bytes <= 0 {
		return 0
	}
	return min(float64(s.Bytes)/float64(s.TotalBytes), 1)
}

var byteUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// FormatBytes renders b with a binary unit and two decimals.
func FormatBytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	v := float64(b) / 1024
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, byteUnits[i])
}

func formatProgressLine(s MetricsSnapshot) string {
	var b strings.Builder
	if s.TotalBytes > 0 {
		fmt.Fprintf(&b, "Progress: %6.2f%% (%s / %s)", s.Completion()*100, FormatBytes(s.Bytes), FormatBytes(s.TotalBytes))
	} else {
		fmt.Fprintf(&b, "Processed: %s", FormatBytes(s.Bytes))
	}
	fmt.Fprintf(&b, " files %d/%d, %d messages", s.Files, s.TotalFiles, s.Messages)
	if s.Resyncs > 0 {
		fmt.Fprintf(&b, ", %d resyncs", s.Resyncs)
	}
	fmt.Fprintf(&b, ", %.2f MiB/s", s.ThroughputBytesPerSecond()/(1<<20))
	return b.String()
}

// StartProgressPrinter redraws a single progress line on w every interval
// until the returned stop function is called. stop clears the line.
func StartProgressPrinter(w io.Writer, m *Metrics, interval time.Duration) (stop func()) {
	if m == nil || w == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = time.Second
	}
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		width := 0
		for {
			select {
			case <-ticker.C:
				line := formatProgressLine(m.Snapshot())
				fmt.Fprintf(w, "\r%-*s", width, line)
				width = max(width, len(line))
			case <-done:
				if width > 0 {
					fmt.Fprintf(w, "\r%s\r\n", strings.Repeat(" ", width))
				}
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}
