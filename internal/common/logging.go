package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

const logPrefix = "[dltctl] "

var (
	logger  = log.New(os.Stderr, logPrefix, log.LstdFlags|log.Lmicroseconds)
	verbose atomic.Bool
)

// LogConfig controls the rotating log file. An empty Directory keeps logging
// on the console only. Console defaults to stderr.
type LogConfig struct {
	Console    io.Writer
	Directory  string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

func Logf(format string, args ...interface{}) {
	logger.Printf(format, args...)
}

// Debugf logs only when verbose output was requested.
func Debugf(format string, args ...interface{}) {
	if !verbose.Load() {
		return
	}
	logger.Printf("debug: "+format, args...)
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}

func SetVerbose(on bool) {
	verbose.Store(on)
}

func Verbose() bool {
	return verbose.Load()
}

// SetOutput redirects the package logger. Tests use it to capture output.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetupLogging mirrors log output into a size-rotated file under
// cfg.Directory. The returned closer flushes and closes the rotator.
func SetupLogging(cfg LogConfig) (io.Closer, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	if cfg.Directory == "" {
		logger.SetOutput(console)
		return nopCloser{}, nil
	}
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, "dltctl.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	logger.SetOutput(io.MultiWriter(console, rotator))
	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
