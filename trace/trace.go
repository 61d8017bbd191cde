// Package trace carries correlation identifiers and minimal W3C Trace
// Context values through contexts and header tables, so outbound requests
// and the log entries written about them agree on the same IDs.
package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// contextKey keeps trace values from colliding with keys owned by other
// packages.
type contextKey string

const (
	traceIDKey     contextKey = "trace_id"
	traceParentKey contextKey = "traceparent"
	traceStateKey  contextKey = "tracestate"
)

// Wire header names for trace propagation.
const (
	// HeaderXRequestID carries the request correlation ID.
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C Trace Context traceparent header.
	HeaderTraceParent = "traceparent"
	// HeaderTraceState is the W3C Trace Context tracestate header.
	HeaderTraceState = "tracestate"
)

// NewID returns a random identifier suitable for trace IDs, attempt IDs,
// and idempotency keys.
func NewID() string {
	return uuid.New().String()
}

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// IDFromContext reports the trace ID stored in ctx, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, traceIDKey)
}

// EnsureTraceID returns the trace ID stored in ctx, generating a fresh one
// when the context has none.
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := IDFromContext(ctx); ok {
		return traceID
	}
	return NewID()
}

// WithTraceParent returns a context carrying a W3C traceparent value.
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return context.WithValue(ctx, traceParentKey, traceParent)
}

// ParentFromContext reports the traceparent stored in ctx, if any.
func ParentFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, traceParentKey)
}

// WithTraceState returns a context carrying a W3C tracestate value.
func WithTraceState(ctx context.Context, traceState string) context.Context {
	return context.WithValue(ctx, traceStateKey, traceState)
}

// StateFromContext reports the tracestate stored in ctx, if any.
func StateFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, traceStateKey)
}

// stringValue reads a non-empty string value for key from ctx. Empty strings
// count as absent so callers can treat "" and unset uniformly.
func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// GenerateTraceParent returns a fresh version-00 W3C traceparent value,
// "00-<trace-id>-<span-id>-01", with the sampled flag set.
func GenerateTraceParent() string {
	return "00-" + randomHex(16) + "-" + randomHex(8) + "-01"
}

// randomHex returns n random bytes as lowercase hex. The result is never
// all zeros; W3C forbids zero trace and span IDs.
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		clear(b)
	}
	if allZero(b) {
		b[n-1] = 0x01
	}
	return hex.EncodeToString(b)
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
