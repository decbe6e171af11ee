package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

var _ sdwload.Logger = (*RecordingLogger)(nil)

// Level tags a recorded line.
type Level string

const (
	LevelVerbose Level = "verbose"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Entry is one recorded log line.
type Entry struct {
	Level   Level
	Message string
}

// RecordingLogger keeps every message in memory, verbose ones included.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) Verbose(format string, args ...interface{}) {
	l.record(LevelVerbose, format, args)
}

func (l *RecordingLogger) Info(format string, args ...interface{}) {
	l.record(LevelInfo, format, args)
}

func (l *RecordingLogger) Error(format string, args ...interface{}) {
	l.record(LevelError, format, args)
}

func (l *RecordingLogger) record(level Level, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Message: msg})
	l.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Messages returns the messages recorded at level, in order.
func (l *RecordingLogger) Messages(level Level) []string {
	var out []string
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any message at level contains substr.
func (l *RecordingLogger) Contains(level Level, substr string) bool {
	for _, m := range l.Messages(level) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
