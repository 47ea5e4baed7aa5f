package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZeroLogger implements Logger on top of zerolog. A SensitiveDataFilter is
// applied to string and map fields so bearer tokens and credentials never
// reach the log output.
type ZeroLogger struct {
	zlog   *zerolog.Logger
	filter *SensitiveDataFilter
}

var _ Logger = (*ZeroLogger)(nil)

// New creates a ZeroLogger writing to stdout at the given level. Unknown
// levels fall back to info. If pretty is true, output is formatted for
// human consumption instead of JSON.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithOutput(level, pretty, os.Stdout)
}

// NewWithOutput creates a ZeroLogger writing to the given writer. Tests use
// this to capture output.
func NewWithOutput(level string, pretty bool, out io.Writer) *ZeroLogger {
	var w io.Writer = out
	if pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).With().Timestamp().Logger()

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, filter: NewSensitiveDataFilter(nil)}
}

// WithFields returns a logger carrying the given fields on every entry.
// Sensitive fields are masked before being attached.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.filter != nil {
		fields = l.filter.FilterFields(fields)
	}
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, filter: l.filter}
}

// Debug creates a debug-level log event.
func (l *ZeroLogger) Debug() LogEvent {
	return &logEvent{event: l.zlog.Debug(), filter: l.filter}
}

// Info creates an info-level log event.
func (l *ZeroLogger) Info() LogEvent {
	return &logEvent{event: l.zlog.Info(), filter: l.filter}
}

// Warn creates a warn-level log event.
func (l *ZeroLogger) Warn() LogEvent {
	return &logEvent{event: l.zlog.Warn(), filter: l.filter}
}

// Error creates an error-level log event.
func (l *ZeroLogger) Error() LogEvent {
	return &logEvent{event: l.zlog.Error(), filter: l.filter}
}

// logEvent adapts zerolog events to the LogEvent interface.
type logEvent struct {
	event  *zerolog.Event
	filter *SensitiveDataFilter
}

func (e *logEvent) Msg(msg string) {
	e.event.Msg(msg)
}

func (e *logEvent) Msgf(format string, args ...any) {
	e.event.Msgf(format, args...)
}

func (e *logEvent) Err(err error) LogEvent {
	return &logEvent{event: e.event.Err(err), filter: e.filter}
}

func (e *logEvent) Str(key, value string) LogEvent {
	if e.filter != nil {
		value = e.filter.FilterString(key, value)
	}
	return &logEvent{event: e.event.Str(key, value), filter: e.filter}
}

func (e *logEvent) Int(key string, value int) LogEvent {
	return &logEvent{event: e.event.Int(key, value), filter: e.filter}
}

func (e *logEvent) Int64(key string, value int64) LogEvent {
	return &logEvent{event: e.event.Int64(key, value), filter: e.filter}
}

func (e *logEvent) Dur(key string, d time.Duration) LogEvent {
	return &logEvent{event: e.event.Dur(key, d), filter: e.filter}
}

func (e *logEvent) Interface(key string, i any) LogEvent {
	if e.filter != nil {
		i = e.filter.FilterValue(key, i)
	}
	return &logEvent{event: e.event.Interface(key, i), filter: e.filter}
}

func (e *logEvent) Bytes(key string, val []byte) LogEvent {
	return &logEvent{event: e.event.Bytes(key, val), filter: e.filter}
}
