package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSha256OfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sum, n, err := Sha256OfFile(path)
	if err != nil {
		t.Fatalf("Sha256OfFile returned error: %v", err)
	}
	if sum != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Fatalf("sum = %s", sum)
	}
	if n != 5 {
		t.Fatalf("size = %d, want 5", n)
	}
	if _, _, err := Sha256OfFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.SetTotalFiles(2)
	m.SetTotalBytes(200)
	m.Start()
	m.AddMessage(60)
	m.AddMessage(40)
	m.AddMessage(0)
	m.AddBytes(10)
	m.IncResync()
	m.AddSkippedArgs(3)
	m.FileDone()
	m.Stop()

	s := m.Snapshot()
	if s.Messages != 2 || s.Bytes != 110 || s.Resyncs != 1 || s.SkippedArgs != 3 || s.Files != 1 || s.TotalFiles != 2 {
		t.Fatalf("snapshot = %+v", s)
	}
	if got := s.Completion(); got != 0.55 {
		t.Fatalf("Completion = %v, want 0.55", got)
	}
	line := formatProgressLine(s)
	if !strings.Contains(line, "files 1/2, 2 messages") {
		t.Fatalf("progress line = %q", line)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.00 KiB",
		5 * 1024 * 1024: "5.00 MiB",
	}
	for in, want := range tests {
		if got := FormatBytes(in); got != want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestStartProgressPrinter(t *testing.T) {
	var buf syncBuffer
	m := NewMetrics()
	m.Start()
	m.AddMessage(10)
	stop := StartProgressPrinter(&buf, m, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	stop()
	if !strings.Contains(buf.String(), "Processed:") {
		t.Fatalf("no progress written: %q", buf.String())
	}
}

func TestDebugfGatedByVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetVerbose(false)

	SetVerbose(false)
	Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("debug output while quiet: %q", buf.String())
	}
	SetVerbose(true)
	Debugf("shown %d", 2)
	Logf("always")
	out := buf.String()
	if !strings.Contains(out, "debug: shown 2") || !strings.Contains(out, "[dltctl] ") || !strings.Contains(out, "always") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestSetupLoggingWritesRotatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	closer, err := SetupLogging(LogConfig{Directory: dir, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("SetupLogging returned error: %v", err)
	}
	Logf("rotated line")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	SetOutput(os.Stderr)
	data, err := os.ReadFile(filepath.Join(dir, "dltctl.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "rotated line") {
		t.Fatalf("log file content = %q", data)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestMetricsAddMessagesCountsWithoutBytes(t *testing.T) {
	m := NewMetrics()
	m.AddMessages(3)
	m.AddMessages(0)
	m.AddMessages(-1)
	s := m.Snapshot()
	if s.Messages != 3 || s.Bytes != 0 {
		t.Fatalf("snapshot = %+v", s)
	}
}
