// Package logger defines the structured logging contract the HTTP client
// emits through, plus a zerolog-backed implementation that masks sensitive
// data before any entry is written.
package logger

import "time"

// Logger is the logging collaborator. Implementations must be safe for
// concurrent use; every accessor returns a new event or logger and never
// mutates the receiver.
type Logger interface {
	Info() LogEvent
	Error() LogEvent
	Debug() LogEvent
	Warn() LogEvent
	Fatal() LogEvent
	// WithContext binds the logger to a request-scoped context when the
	// implementation supports it
	WithContext(ctx any) Logger
	// WithFields attaches fields to every entry the returned logger emits
	WithFields(fields map[string]any) Logger
}

// LogEvent accumulates fields for a single entry. Msg or Msgf sends it;
// an event is used at most once.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Uint64(key string, value uint64) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Bytes(key string, val []byte) LogEvent
}
