package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gaborage/go-courier/logger"
	"github.com/gaborage/go-courier/trace"
)

const (
	// DefaultTimeout bounds a single attempt when none is configured
	DefaultTimeout = 30 * time.Second
	// DefaultMaxPayloadLogBytes caps logged payload previews
	DefaultMaxPayloadLogBytes = 1024
)

// client implements the Client interface
type client struct {
	httpClient *nethttp.Client
	config     *Config
	logger     logger.Logger
	filter     *logger.SensitiveDataFilter
	clock      Clock
	inflight   *inflightRegistry
	callCount  int64
}

// New creates a client from an explicit configuration. Zero fields fall back
// to the documented defaults. The configuration is copied, so later caller
// mutations do not reach the client.
func New(cfg *Config, log logger.Logger) Client {
	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.Retry = c.Retry.withDefaults()
	if c.MaxPayloadLogBytes <= 0 {
		c.MaxPayloadLogBytes = DefaultMaxPayloadLogBytes
	}

	transport := c.Transport
	if transport == nil {
		transport = nethttp.DefaultTransport
	}
	clock := c.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &client{
		httpClient: &nethttp.Client{Transport: transport},
		config:     &c,
		logger:     log,
		filter:     logger.NewSensitiveDataFilter(nil),
		clock:      clock,
		inflight:   newInflightRegistry(),
	}
}

// Builder provides a fluent interface for building HTTP clients
type Builder struct {
	config *Config
	logger logger.Logger
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout: DefaultTimeout,
			Retry:   DefaultRetryPolicy(),
		},
		logger: log,
	}
}

// WithBaseURL sets the base address resolved against relative request paths
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithLocalMode resolves relative paths against the loopback address on the
// given port; zero selects the default port
func (b *Builder) WithLocalMode(port int) *Builder {
	b.config.LocalMode = true
	b.config.LocalPort = port
	return b
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetryPolicy sets the attempt budget and backoff progression
func (b *Builder) WithRetryPolicy(policy RetryPolicy) *Builder {
	b.config.Retry = policy
	return b
}

// WithBasicAuth sets default basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{Username: username, Password: password}
	return b
}

// WithDefaultHeader adds a header applied to every request
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	if b.config.DefaultHeaders == nil {
		b.config.DefaultHeaders = make(map[string]string)
	}
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor appends a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor appends a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug-level payload logging capped at maxBytes;
// zero keeps the default cap
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	b.config.MaxPayloadLogBytes = maxBytes
	return b
}

// WithTransport replaces the HTTP transport, mainly for tests
func (b *Builder) WithTransport(transport nethttp.RoundTripper) *Builder {
	b.config.Transport = transport
	return b
}

// WithClock replaces the clock used for backoff waits, mainly for tests
func (b *Builder) WithClock(clock Clock) *Builder {
	b.config.Clock = clock
	return b
}

// Build creates the client
func (b *Builder) Build() Client {
	return New(b.config, b.logger)
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// CancelAll aborts every attempt currently on the wire. Affected attempts
// settle as CancelledError and are not retried; requests idle between
// attempts proceed untouched.
func (c *client) CancelAll() {
	c.inflight.cancelAll()
}

// Do performs an HTTP request with the given method, honoring per-attempt
// timeouts and the retry policy. Transport-level failures come back as
// ClientError; caller mistakes (nil request, empty path, unresolvable base
// URL, unserializable body) are plain errors.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	targetURL, err := buildTargetURL(c.config, req)
	if err != nil {
		return nil, err
	}
	targetURL = appendQuery(targetURL, encodeQuery(req.Query))

	body, contentType, err := serializeBody(req.Body, contentTypeFor(c.config, req))
	if err != nil {
		return nil, err
	}

	policy := c.retryPolicyFor(req)
	timeout := c.config.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			lastErr = c.fail(NewCancelledError("request aborted by caller", ctx.Err()), targetURL)
			break
		}

		if attempt > 1 {
			delay := c.retryDelay(policy, attempt, lastErr)
			c.logRetry(method, targetURL, attempt, delay, lastErr)
			if err := c.clock.Sleep(ctx, delay); err != nil {
				lastErr = c.fail(NewCancelledError("request aborted while waiting to retry", err), targetURL)
				break
			}
		}

		attempts = attempt
		resp, attemptErr := c.doAttempt(ctx, method, targetURL, req, body, contentType, timeout)
		if attemptErr == nil {
			resp.Stats.Attempts = attempt
			return resp, nil
		}

		lastErr = attemptErr
		if !policy.ShouldRetry(attempt, attemptErr) {
			break
		}
	}

	c.logFailure(method, targetURL, attempts, lastErr)
	return nil, lastErr
}

// retryPolicyFor applies a per-request override to the configured policy
func (c *client) retryPolicyFor(req *Request) RetryPolicy {
	policy := c.config.Retry
	if req.Retry == nil {
		return policy
	}
	if !req.Retry.Enabled {
		policy.MaxAttempts = 1
		return policy
	}
	if req.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = req.Retry.MaxAttempts
	}
	return policy
}

// retryDelay computes the wait before the given attempt, preferring a
// server-provided Retry-After over the computed backoff
func (c *client) retryDelay(policy RetryPolicy, attempt int, lastErr error) time.Duration {
	var httpErr *httpError
	if errors.As(lastErr, &httpErr) && httpErr.retryAfter > 0 {
		return httpErr.retryAfter
	}
	return policy.Delay(attempt)
}

// doAttempt runs one attempt end to end: build, send, classify, parse. The
// attempt context carries the per-attempt timeout and is registered with the
// in-flight registry for exactly the attempt's duration.
func (c *client) doAttempt(ctx context.Context, method, targetURL string, req *Request, body []byte, contentType string, timeout time.Duration) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	handle := c.inflight.add(cancel)
	defer func() {
		c.inflight.remove(handle)
		cancel()
	}()

	httpReq, err := c.buildRequest(attemptCtx, method, targetURL, req, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	traceID := c.applyTraceHeaders(attemptCtx, httpReq)
	c.runRequestInterceptors(attemptCtx, httpReq)
	c.logRequest(httpReq, body, traceID)

	atomic.AddInt64(&c.callCount, 1)
	logger.IncrementCallCounter(ctx)

	start := c.clock.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	elapsed := c.clock.Now().Sub(start)
	logger.AddCallElapsed(ctx, elapsed.Nanoseconds())

	if err != nil {
		return nil, c.fail(c.classifyTransportError(ctx, err, timeout), targetURL)
	}

	if IsSuccessStatus(httpResp.StatusCode) {
		c.runResponseInterceptors(attemptCtx, httpReq, httpResp)
	}

	resp, err := c.buildResponse(httpResp, elapsed)
	if err != nil {
		return nil, c.fail(NewNetworkError("failed to read response body", err), targetURL)
	}

	c.logResponse(resp, traceID)

	if !IsSuccessStatus(resp.StatusCode) {
		return nil, c.fail(c.newHTTPFailure(resp), targetURL)
	}

	if parseErr := parseResponseData(resp); parseErr != nil {
		return nil, c.fail(parseErr, targetURL)
	}

	return resp, nil
}

// fail stamps the request URL and failure time onto a classified error
func (c *client) fail(err ClientError, targetURL string) error {
	return stampOrigin(err, targetURL, c.clock.Now())
}

// classifyTransportError maps a transport failure onto the error taxonomy.
// Parent-context termination wins over everything, then the attempt
// deadline, then a bulk cancel, then plain network failure. The race between
// the two cancellation sources is resolved here, once.
func (c *client) classifyTransportError(parent context.Context, err error, timeout time.Duration) ClientError {
	if parent.Err() != nil {
		return NewCancelledError("request aborted by caller", parent.Err())
	}
	if isTimeout(err) {
		return NewTimeoutError("request exceeded the attempt timeout", timeout)
	}
	if errors.Is(err, context.Canceled) {
		return NewCancelledError("attempt aborted", err)
	}
	return NewNetworkError("request failed", err)
}

// isTimeout checks if an error indicates a timeout condition
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// newHTTPFailure classifies a non-2xx response, extracting the server's own
// message and, on 429, any Retry-After hint
func (c *client) newHTTPFailure(resp *Response) ClientError {
	message, payload := extractServerMessage(resp.Body)
	if message == "" {
		message = nethttp.StatusText(resp.StatusCode)
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	httpErr := &httpError{
		message:       message,
		statusCode:    resp.StatusCode,
		body:          resp.Body,
		serverPayload: payload,
	}
	if resp.StatusCode == nethttp.StatusTooManyRequests {
		httpErr.retryAfter = parseRetryAfter(resp.Headers.Get(HeaderRetryAfter), payload, c.clock.Now())
	}
	return httpErr
}

// extractServerMessage pulls a human-readable message out of an error body.
// The backend emits either {"error":true,"message":…} from its own taxonomy
// or {"detail":…} from plain framework exceptions; anything unparseable
// yields no message. The decoded payload is returned for error details.
func extractServerMessage(body []byte) (string, map[string]any) {
	if len(body) == 0 {
		return "", nil
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	if message, ok := payload["message"].(string); ok && message != "" {
		return message, payload
	}
	if detail, ok := payload["detail"].(string); ok && detail != "" {
		return detail, payload
	}
	return "", payload
}

// parseRetryAfter interprets a Retry-After header (delta-seconds or an
// HTTP-date), falling back to the backend's details.retry_after field
func parseRetryAfter(header string, payload map[string]any, now time.Time) time.Duration {
	if header != "" {
		if seconds, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
			if seconds < 0 {
				return 0
			}
			return time.Duration(seconds) * time.Second
		}
		if at, err := nethttp.ParseTime(header); err == nil {
			if wait := at.Sub(now); wait > 0 {
				return wait
			}
			return 0
		}
	}
	if details, ok := payload["details"].(map[string]any); ok {
		if seconds, ok := details["retry_after"].(float64); ok && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}
	return 0
}

// buildRequest creates the outgoing *http.Request for one attempt. Headers
// are rebuilt from scratch so interceptor mutations from earlier attempts
// never leak forward.
func (c *client) buildRequest(ctx context.Context, method, targetURL string, req *Request, body []byte, contentType string) (*nethttp.Request, error) {
	var reader io.Reader = nethttp.NoBody
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, targetURL, reader)
	if err != nil {
		return nil, err
	}

	c.applyHeaders(httpReq, req)
	if len(body) > 0 && contentType != "" && httpReq.Header.Get(contentTypeHeader) == "" {
		httpReq.Header.Set(contentTypeHeader, contentType)
	}
	c.applyAuth(httpReq, req)
	return httpReq, nil
}

// applyHeaders sets default headers first so request headers win
func (c *client) applyHeaders(httpReq *nethttp.Request, req *Request) {
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
}

// applyAuth applies request-level auth over the configured default
func (c *client) applyAuth(httpReq *nethttp.Request, req *Request) {
	auth := c.config.BasicAuth
	if req.Auth != nil {
		auth = req.Auth
	}
	if auth != nil {
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	}
}

// applyTraceHeaders injects correlation headers and returns the trace ID
// used for this attempt's log entries. A header already present, whether
// from the request or an earlier interceptor, is preserved.
func (c *client) applyTraceHeaders(ctx context.Context, httpReq *nethttp.Request) string {
	header := c.config.TraceIDHeader
	if header == "" {
		header = HeaderXRequestID
	}

	traceID := httpReq.Header.Get(header)
	if traceID == "" {
		traceID = c.resolveTraceID(ctx)
		httpReq.Header.Set(header, traceID)
	}

	if c.config.EnableW3CTrace {
		if httpReq.Header.Get(HeaderTraceParent) == "" {
			parent, ok := trace.ParentFromContext(ctx)
			if !ok {
				parent = trace.GenerateTraceParent()
			}
			httpReq.Header.Set(HeaderTraceParent, parent)
		}
		if state, ok := trace.StateFromContext(ctx); ok && httpReq.Header.Get(HeaderTraceState) == "" {
			httpReq.Header.Set(HeaderTraceState, state)
		}
	}

	return traceID
}

// resolveTraceID picks the trace ID for an attempt: the configured extractor
// first, then the context, then the generator
func (c *client) resolveTraceID(ctx context.Context) string {
	if c.config.TraceIDExtractor != nil {
		if traceID, ok := c.config.TraceIDExtractor(ctx); ok && traceID != "" {
			return traceID
		}
	}
	if traceID, ok := trace.IDFromContext(ctx); ok {
		return traceID
	}
	if c.config.NewTraceID != nil {
		return c.config.NewTraceID()
	}
	return trace.NewID()
}

// runRequestInterceptors applies the configured request interceptors in
// registration order. A failing or panicking interceptor is logged and
// skipped; the pipeline never fails the request. The HTTP method is pinned:
// interceptors may rewrite headers but not the verb.
func (c *client) runRequestInterceptors(ctx context.Context, httpReq *nethttp.Request) {
	method := httpReq.Method
	for i, interceptor := range c.config.RequestInterceptors {
		c.runInterceptor(ctx, "request", i, func() error {
			return interceptor(ctx, httpReq)
		})
		if httpReq.Method != method {
			c.logger.Warn().
				Str("stage", "request").
				Int("index", i).
				Str("method", method).
				Str("attempted", httpReq.Method).
				Msg("REST client interceptor changed the HTTP method; restored")
			httpReq.Method = method
		}
	}
}

// runResponseInterceptors applies the configured response interceptors in
// registration order; they only run for successful responses
func (c *client) runResponseInterceptors(ctx context.Context, httpReq *nethttp.Request, httpResp *nethttp.Response) {
	for i, interceptor := range c.config.ResponseInterceptors {
		c.runInterceptor(ctx, "response", i, func() error {
			return interceptor(ctx, httpReq, httpResp)
		})
	}
}

// runInterceptor invokes one interceptor, converting an error or panic into
// a warn entry
func (c *client) runInterceptor(_ context.Context, stage string, index int, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn().
				Str("stage", stage).
				Int("index", index).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("REST client interceptor panicked; skipped")
		}
	}()
	if err := fn(); err != nil {
		c.logger.Warn().
			Err(err).
			Str("stage", stage).
			Int("index", index).
			Msg("REST client interceptor failed; skipped")
	}
}

// buildResponse converts an HTTP response, reading and closing the body
func (c *client) buildResponse(httpResp *nethttp.Response, elapsed time.Duration) (*Response, error) {
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: elapsed,
			CallCount:   atomic.LoadInt64(&c.callCount),
		},
	}, nil
}
