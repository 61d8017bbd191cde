package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// zerologEvent backs LogEvent with a zerolog.Event. String and structured
// fields pass through the sensitive-data filter as they are added, so callers
// never need to sanitize before logging.
type zerologEvent struct {
	event  *zerolog.Event
	filter *SensitiveDataFilter
}

// Msg sends the event with the given message
func (e *zerologEvent) Msg(msg string) {
	e.event.Msg(msg)
}

// Msgf sends the event with a formatted message
func (e *zerologEvent) Msgf(format string, args ...any) {
	e.event.Msgf(format, args...)
}

// Err attaches an error to the event
func (e *zerologEvent) Err(err error) LogEvent {
	return &zerologEvent{event: e.event.Err(err), filter: e.filter}
}

// Str adds a string field, masked when the key is sensitive
func (e *zerologEvent) Str(key, value string) LogEvent {
	if e.filter != nil {
		value = e.filter.FilterString(key, value)
	}
	return &zerologEvent{event: e.event.Str(key, value), filter: e.filter}
}

// Int adds an integer field
func (e *zerologEvent) Int(key string, value int) LogEvent {
	return &zerologEvent{event: e.event.Int(key, value), filter: e.filter}
}

// Int64 adds an int64 field
func (e *zerologEvent) Int64(key string, value int64) LogEvent {
	return &zerologEvent{event: e.event.Int64(key, value), filter: e.filter}
}

// Uint64 adds a uint64 field
func (e *zerologEvent) Uint64(key string, value uint64) LogEvent {
	return &zerologEvent{event: e.event.Uint64(key, value), filter: e.filter}
}

// Dur adds a duration field
func (e *zerologEvent) Dur(key string, d time.Duration) LogEvent {
	return &zerologEvent{event: e.event.Dur(key, d), filter: e.filter}
}

// Interface adds an arbitrary value, recursively masked when it carries
// sensitive fields
func (e *zerologEvent) Interface(key string, i any) LogEvent {
	if e.filter != nil {
		i = e.filter.FilterValue(key, i)
	}
	return &zerologEvent{event: e.event.Interface(key, i), filter: e.filter}
}

// Bytes adds a byte slice field
func (e *zerologEvent) Bytes(key string, val []byte) LogEvent {
	return &zerologEvent{event: e.event.Bytes(key, val), filter: e.filter}
}
