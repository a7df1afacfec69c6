package logging

import (
	"fmt"
	"sync"
	"time"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Level is the severity of a recorded line.
type Level int

const (
	LevelVerbose Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Line is one recorded message.
type Line struct {
	Level   Level
	Message string
	Time    time.Time
}

// DefaultRecordingCapacity is the number of lines kept when capacity is not positive.
const DefaultRecordingCapacity = 100

// RecordingLogger keeps the most recent lines in a ring buffer.
// Safe for concurrent use by multiple goroutines.
type RecordingLogger struct {
	mu    sync.Mutex
	lines []Line
	next  int
	full  bool
}

var _ fsedit.Logger = (*RecordingLogger)(nil)

// NewRecordingLogger creates a RecordingLogger holding up to capacity lines.
func NewRecordingLogger(capacity int) *RecordingLogger {
	if capacity <= 0 {
		capacity = DefaultRecordingCapacity
	}
	return &RecordingLogger{lines: make([]Line, capacity)}
}

func (l *RecordingLogger) record(level Level, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[l.next] = Line{Level: level, Message: msg, Time: time.Now()}
	l.next = (l.next + 1) % len(l.lines)
	if l.next == 0 {
		l.full = true
	}
}

// Verbose records a verbose line.
func (l *RecordingLogger) Verbose(format string, args ...interface{}) {
	l.record(LevelVerbose, format, args)
}

// Info records an info line.
func (l *RecordingLogger) Info(format string, args ...interface{}) {
	l.record(LevelInfo, format, args)
}

// Error records an error line.
func (l *RecordingLogger) Error(format string, args ...interface{}) {
	l.record(LevelError, format, args)
}

// Lines returns the recorded lines, oldest first.
func (l *RecordingLogger) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]Line(nil), l.lines[:l.next]...)
	}
	out := make([]Line, 0, len(l.lines))
	out = append(out, l.lines[l.next:]...)
	return append(out, l.lines[:l.next]...)
}

// Last returns the most recent line at or above min.
func (l *RecordingLogger) Last(min Level) (Line, bool) {
	lines := l.Lines()
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Level >= min {
			return lines[i], true
		}
	}
	return Line{}, false
}

// Messages returns the recorded messages at exactly level, oldest first.
func (l *RecordingLogger) Messages(level Level) []string {
	var out []string
	for _, line := range l.Lines() {
		if line.Level == level {
			out = append(out, line.Message)
		}
	}
	return out
}

// Tee returns a logger that forwards every message to each of loggers.
func Tee(loggers ...fsedit.Logger) fsedit.Logger {
	return tee(loggers)
}

type tee []fsedit.Logger

func (t tee) Verbose(format string, args ...interface{}) {
	for _, l := range t {
		l.Verbose(format, args...)
	}
}

func (t tee) Info(format string, args ...interface{}) {
	for _, l := range t {
		l.Info(format, args...)
	}
}

func (t tee) Error(format string, args ...interface{}) {
	for _, l := range t {
		l.Error(format, args...)
	}
}
