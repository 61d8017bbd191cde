package trace

import (
	"context"
	"fmt"
	"strings"
)

// HeaderAccessor abstracts header collections with loosely typed values so
// injection and extraction work for net/http headers and other header tables
// alike.
type HeaderAccessor interface {
	Get(key string) interface{}
	Set(key string, value interface{})
}

// InjectMode controls how injection treats headers that are already present.
type InjectMode int

const (
	// InjectForce overwrites trace headers with values derived from context.
	InjectForce InjectMode = iota
	// InjectPreserve keeps existing header values and only fills in gaps.
	InjectPreserve
)

// InjectOptions configures InjectIntoHeadersWithOptions.
type InjectOptions struct {
	Mode InjectMode
}

// InjectIntoHeaders writes trace headers from context, overwriting any
// existing values.
func InjectIntoHeaders(ctx context.Context, headers HeaderAccessor) {
	InjectIntoHeadersWithOptions(ctx, headers, InjectOptions{Mode: InjectForce})
}

// InjectIntoHeadersWithOptions writes the X-Request-ID, traceparent and
// tracestate headers based on context values. In preserve mode existing
// header values win and only missing ones are filled. The request ID stays
// aligned with the traceparent trace-id field whenever a traceparent is
// known.
func InjectIntoHeadersWithOptions(ctx context.Context, headers HeaderAccessor, opts InjectOptions) {
	preserve := opts.Mode == InjectPreserve

	traceParent := headerString(headers, HeaderTraceParent)
	if ctxParent, ok := ParentFromContext(ctx); ok && (!preserve || traceParent == "") {
		traceParent = ctxParent
		headers.Set(HeaderTraceParent, ctxParent)
	}

	if !preserve || headerString(headers, HeaderXRequestID) == "" {
		headers.Set(HeaderXRequestID, resolveTraceID(ctx, traceParent))
	}

	if ctxState, ok := StateFromContext(ctx); ok && (!preserve || headerString(headers, HeaderTraceState) == "") {
		headers.Set(HeaderTraceState, ctxState)
	}
}

// ExtractFromHeaders returns a context enriched with trace values found in
// the given headers. The trace ID falls back to the traceparent trace-id
// field when no explicit request ID header is present.
func ExtractFromHeaders(ctx context.Context, headers HeaderAccessor) context.Context {
	traceParent := headerString(headers, HeaderTraceParent)
	if traceParent != "" {
		ctx = WithTraceParent(ctx, traceParent)
	}
	if state := headerString(headers, HeaderTraceState); state != "" {
		ctx = WithTraceState(ctx, state)
	}
	traceID := headerString(headers, HeaderXRequestID)
	if traceID == "" {
		traceID = TraceIDFromParent(traceParent)
	}
	if traceID != "" {
		ctx = WithTraceID(ctx, traceID)
	}
	return ctx
}

// TraceIDFromParent extracts the trace-id field from a W3C traceparent value.
// It returns an empty string when the value does not carry a usable trace-id.
func TraceIDFromParent(traceParent string) string {
	parts := strings.Split(traceParent, "-")
	if len(parts) < 4 {
		return ""
	}
	traceID := strings.ToLower(parts[1])
	if len(traceID) != 32 || !isLowerHex(traceID) || traceID == strings.Repeat("0", 32) {
		return ""
	}
	return traceID
}

// resolveTraceID picks the request ID to inject. A known traceparent wins so
// log correlation and the wire headers agree, then an explicit context trace
// ID, then a fresh one.
func resolveTraceID(ctx context.Context, traceParent string) string {
	if derived := TraceIDFromParent(traceParent); derived != "" {
		return derived
	}
	if id, ok := IDFromContext(ctx); ok {
		return id
	}
	return NewID()
}

func headerString(headers HeaderAccessor, key string) string {
	return safeToString(headers.Get(key))
}

func safeToString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", s)
	}
}

func isLowerHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
