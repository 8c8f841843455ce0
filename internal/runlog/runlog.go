// Package runlog provides the append-only, timestamped activity record of a
// folderprocessor run.
package runlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// FileName is the name of the run log inside the destination directory.
const FileName = "folderprocessor-log.txt"

// TimestampLayout prefixes every log line.
const TimestampLayout = "15:04:05 Jan 02, 2006"

// Level classifies an entry.
type Level string

// Entry levels. Info entries carry no level marker.
const (
	LevelInfo    Level = ""
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Log is a single process-wide run log. Every entry is appended to the
// underlying file and echoed to the console writer. Writes are serialized.
type Log struct {
	mu      sync.Mutex
	file    io.WriteCloser
	console io.Writer
	now     func() time.Time
	closed  bool
}

// Option configures a Log.
type Option func(*Log)

// WithConsole sets the writer that receives a copy of every message.
// A nil writer disables echoing.
func WithConsole(w io.Writer) Option {
	return func(l *Log) {
		l.console = w
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// Create opens the log file at path for appending, creating it if needed.
// Entries of earlier runs are kept.
func Create(path string, opts ...Option) (*Log, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}

	return New(f, opts...), nil
}

// New wraps an already opened writer.
func New(w io.WriteCloser, opts ...Option) *Log {
	l := &Log{
		file:    w,
		console: os.Stdout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Infof records an informational entry.
func (l *Log) Infof(format string, args ...any) {
	l.write(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf records a warning.
func (l *Log) Warnf(format string, args ...any) {
	l.write(LevelWarning, fmt.Sprintf(format, args...))
}

// Errorf records a failure.
func (l *Log) Errorf(format string, args ...any) {
	l.write(LevelError, fmt.Sprintf(format, args...))
}

func (l *Log) write(level Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	entry := msg
	if level != LevelInfo {
		entry = string(level) + " " + msg
	}

	fmt.Fprintf(l.file, "%s - %s\n", l.now().Format(TimestampLayout), entry)

	if l.console != nil {
		fmt.Fprintln(l.console, entry)
	}
}

// Close closes the log file. Entries written after Close are dropped.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true

	if err := l.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("closing log file: %w", err)
	}

	return nil
}
