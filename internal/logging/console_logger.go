package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// ConsoleLogger writes log messages through zerolog, to stderr by default.
// Verbose maps to the debug level and is dropped unless verbose mode is on.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	log zerolog.Logger
}

var _ fsedit.Logger = (*ConsoleLogger)(nil)

type consoleOptions struct {
	out       io.Writer
	component string
	json      bool
	noColor   bool
}

// ConsoleOption configures a ConsoleLogger.
type ConsoleOption func(*consoleOptions)

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) ConsoleOption {
	return func(o *consoleOptions) {
		o.out = w
	}
}

// WithComponent tags every line with a component field.
func WithComponent(name string) ConsoleOption {
	return func(o *consoleOptions) {
		o.component = name
	}
}

// WithJSON writes one JSON object per line instead of console formatting.
func WithJSON() ConsoleOption {
	return func(o *consoleOptions) {
		o.json = true
	}
}

// WithNoColor disables ANSI colors in console output.
func WithNoColor() ConsoleOption {
	return func(o *consoleOptions) {
		o.noColor = true
	}
}

// NewConsoleLogger creates a new ConsoleLogger.
// If verbose is true, Verbose() calls will produce output.
func NewConsoleLogger(verbose bool, opts ...ConsoleOption) *ConsoleLogger {
	o := consoleOptions{out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	var out io.Writer = zerolog.SyncWriter(o.out)
	if !o.json {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: o.noColor}
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if o.component != "" {
		ctx = ctx.Str("component", o.component)
	}
	return &ConsoleLogger{log: ctx.Logger()}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	write(l.log.Debug(), format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	write(l.log.Info(), format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	write(l.log.Error(), format, args)
}

func write(ev *zerolog.Event, format string, args []interface{}) {
	if len(args) > 0 {
		ev.Msgf(format, args...)
		return
	}
	ev.Msg(format)
}
