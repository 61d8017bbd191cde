package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gaborage/go-courier/trace"
)

const (
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = trace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = trace.HeaderTraceParent
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = trace.HeaderTraceState
	// HeaderIdempotencyKey marks a request safe for server-side replay detection
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderRetryAfter carries the server-requested wait on 429 responses
	HeaderRetryAfter = "Retry-After"
)

// Client defines the REST client interface for making HTTP requests
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)
	// CancelAll aborts every attempt currently on the wire, best effort
	CancelAll()
}

// QueryParam is one query-string pair. Parameters are sent in slice order;
// a nil Value drops the pair entirely.
type QueryParam struct {
	Key   string
	Value any
}

// Request represents a logical HTTP request. Path is resolved against the
// configured base URL unless it is already absolute.
type Request struct {
	Path    string
	Query   []QueryParam
	Headers map[string]string
	// Body is serialized once per request: []byte, json.RawMessage, and
	// string pass through as-is, anything else is JSON-encoded
	Body any
	Auth *BasicAuth
	// Timeout overrides the configured per-attempt timeout when positive
	Timeout time.Duration
	// Retry overrides the configured retry policy for this request only
	Retry *RetryOverride
}

// RetryOverride adjusts the retry budget for a single request. Enabled false
// limits the request to one attempt; MaxAttempts, when positive, replaces
// the configured budget.
type RetryOverride struct {
	Enabled     bool
	MaxAttempts int
}

// Response represents an HTTP response with tracking information
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	// Data holds the parsed body: a structured value for JSON responses,
	// the body text otherwise
	Data  any
	Stats Stats
}

// Decode unmarshals the raw response body into v
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("response body is empty")
	}
	return json.Unmarshal(r.Body, v)
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	// Attempts is the number of attempts the request consumed
	Attempts int
	// CallCount is the client-wide number of attempts sent so far
	CallCount int64
}

// BasicAuth contains basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving a successful response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the REST client configuration
type Config struct {
	// BaseURL is the explicit base address for relative request paths
	BaseURL string
	// LocalMode resolves relative paths against the loopback address when no
	// BaseURL is set
	LocalMode bool
	// LocalPort is the local-mode port (default: 8000)
	LocalPort int
	// Timeout bounds each attempt, not the whole request (default: 30s)
	Timeout time.Duration
	// Retry is the attempt budget and backoff progression
	Retry                RetryPolicy
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	BasicAuth            *BasicAuth
	DefaultHeaders       map[string]string
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// TraceIDHeader configures the header name used for trace ID propagation (default: X-Request-ID)
	TraceIDHeader string
	// NewTraceID generates a new trace ID when none is present (default: uuid)
	NewTraceID func() string
	// TraceIDExtractor allows advanced extraction of a trace ID from context; return ok=false to fallback to generator
	TraceIDExtractor func(_ context.Context) (traceID string, ok bool)
	// EnableW3CTrace enables W3C Trace Context (traceparent/tracestate) propagation and generation
	EnableW3CTrace bool
	// Transport replaces the default HTTP transport, mainly for tests
	Transport nethttp.RoundTripper
	// Clock replaces wall-clock time and backoff sleeps, mainly for tests
	Clock Clock
}

// Trace ID utility functions

// WithTraceID adds a trace ID to the context for HTTP client propagation
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return trace.WithTraceID(ctx, traceID)
}

// TraceIDFromContext returns a trace ID from context if present
func TraceIDFromContext(ctx context.Context) (string, bool) { return trace.IDFromContext(ctx) }

// EnsureTraceID returns an existing trace ID from context or generates a new one
func EnsureTraceID(ctx context.Context) string { return trace.EnsureTraceID(ctx) }

// WithTraceParent adds a W3C traceparent value to the context
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return trace.WithTraceParent(ctx, traceParent)
}

// TraceParentFromContext returns a traceparent from context if present
func TraceParentFromContext(ctx context.Context) (string, bool) {
	return trace.ParentFromContext(ctx)
}

// WithTraceState adds a W3C tracestate value to the context
func WithTraceState(ctx context.Context, traceState string) context.Context {
	return trace.WithTraceState(ctx, traceState)
}

// TraceStateFromContext returns a tracestate from context if present
func TraceStateFromContext(ctx context.Context) (string, bool) {
	return trace.StateFromContext(ctx)
}

// GenerateTraceParent creates a minimal W3C traceparent header value.
// Format: version(2)-trace-id(32)-span-id(16)-flags(2), e.g., "00-<32>-<16>-01"
func GenerateTraceParent() string { return trace.GenerateTraceParent() }

// NewTraceIDInterceptor creates a request interceptor that adds trace ID headers
// This provides an alternative approach for users who want explicit control
func NewTraceIDInterceptor() RequestInterceptor {
	return NewTraceIDInterceptorFor(HeaderXRequestID)
}

// NewTraceIDInterceptorFor creates an interceptor that uses a custom header name
func NewTraceIDInterceptorFor(header string) RequestInterceptor {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(header) == "" {
			req.Header.Set(header, EnsureTraceID(ctx))
		}
		return nil
	}
}

// NewIdempotencyKeyInterceptor creates a request interceptor that sets a
// fresh Idempotency-Key when the caller did not provide one. Headers are
// rebuilt before every attempt, so each attempt carries its own key unless
// the request pins one explicitly.
func NewIdempotencyKeyInterceptor() RequestInterceptor {
	return func(_ context.Context, req *nethttp.Request) error {
		if req.Header.Get(HeaderIdempotencyKey) == "" {
			req.Header.Set(HeaderIdempotencyKey, trace.NewID())
		}
		return nil
	}
}
