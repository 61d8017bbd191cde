package httpclient

import (
	"errors"
	"fmt"
	nethttp "net/http"
	"time"
)

// ClientError represents different types of REST client errors
type ClientError interface {
	error
	Type() ErrorType
	// UserMessage returns a short description safe for end-user display
	UserMessage() string
}

// ErrorType defines the category of client error. The category alone
// determines whether an attempt may be retried.
type ErrorType string

const (
	NetworkError    ErrorType = "network"
	TimeoutError    ErrorType = "timeout"
	CancelledError  ErrorType = "cancelled"
	ClientHTTPError ErrorType = "http_client"
	ServerHTTPError ErrorType = "http_server"
	RateLimitError  ErrorType = "rate_limit"
	ParseError      ErrorType = "parse"
)

// origin records where and when a failure happened. It is embedded in every
// error kind and stamped by the orchestrator.
type origin struct {
	requestURL string
	occurredAt time.Time
}

func (o *origin) RequestURL() string    { return o.requestURL }
func (o *origin) OccurredAt() time.Time { return o.occurredAt }

func (o *origin) setOrigin(requestURL string, at time.Time) {
	o.requestURL = requestURL
	o.occurredAt = at
}

// stampOrigin attaches the request URL and a timestamp to a client error.
func stampOrigin(err ClientError, requestURL string, at time.Time) ClientError {
	type stampable interface {
		setOrigin(requestURL string, at time.Time)
	}
	if s, ok := err.(stampable); ok {
		s.setOrigin(requestURL, at)
	}
	return err
}

// networkError represents network-related errors
type networkError struct {
	origin
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType {
	return NetworkError
}

func (e *networkError) UserMessage() string {
	return "Unable to reach the server. Please check your connection and try again."
}

func (e *networkError) Unwrap() error {
	return e.wrapped
}

// timeoutError represents timeout-related errors
type timeoutError struct {
	origin
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

func (e *timeoutError) UserMessage() string {
	return "The request took too long to complete. Please try again."
}

// Timeout returns the per-attempt deadline that expired
func (e *timeoutError) Timeout() time.Duration {
	return e.timeout
}

// cancelledError represents caller- or bulk-initiated cancellation
type cancelledError struct {
	origin
	message string
	wrapped error
}

func (e *cancelledError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("request cancelled: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("request cancelled: %s", e.message)
}

func (e *cancelledError) Type() ErrorType {
	return CancelledError
}

func (e *cancelledError) UserMessage() string {
	return "The request was cancelled."
}

func (e *cancelledError) Unwrap() error {
	return e.wrapped
}

// httpError represents HTTP status-related errors. Its category depends on
// the status code: 429 is a rate limit, 5xx a server error, anything else a
// client error.
type httpError struct {
	origin
	message       string
	statusCode    int
	body          []byte
	serverPayload map[string]any
	retryAfter    time.Duration
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.statusCode)
}

func (e *httpError) Type() ErrorType {
	switch {
	case e.statusCode == nethttp.StatusTooManyRequests:
		return RateLimitError
	case e.statusCode >= 500:
		return ServerHTTPError
	default:
		return ClientHTTPError
	}
}

func (e *httpError) UserMessage() string {
	return e.message
}

func (e *httpError) StatusCode() int {
	return e.statusCode
}

func (e *httpError) Body() []byte {
	return e.body
}

// ServerPayload returns the decoded error body, when the server sent JSON
func (e *httpError) ServerPayload() map[string]any {
	return e.serverPayload
}

// RetryAfter returns the server-requested wait, or zero when none was sent
func (e *httpError) RetryAfter() time.Duration {
	return e.retryAfter
}

// parseError represents a malformed body on an otherwise successful response
type parseError struct {
	origin
	message string
	wrapped error
}

func (e *parseError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("parse error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("parse error: %s", e.message)
}

func (e *parseError) Type() ErrorType {
	return ParseError
}

func (e *parseError) UserMessage() string {
	return "The server returned an unexpected response."
}

func (e *parseError) Unwrap() error {
	return e.wrapped
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{
		message: message,
		wrapped: wrapped,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{
		message: message,
		timeout: timeout,
	}
}

// NewCancelledError creates a new cancellation error
func NewCancelledError(message string, wrapped error) ClientError {
	return &cancelledError{
		message: message,
		wrapped: wrapped,
	}
}

// NewHTTPError creates a new HTTP error; the status code decides its category
func NewHTTPError(message string, statusCode int, body []byte) ClientError {
	return &httpError{
		message:    message,
		statusCode: statusCode,
		body:       body,
	}
}

// NewParseError creates a new parse error
func NewParseError(message string, wrapped error) ClientError {
	return &parseError{
		message: message,
		wrapped: wrapped,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsHTTPStatusError checks if an error is an HTTP error with a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode() == statusCode
	}
	return false
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// IsRetryable reports whether an error's category allows another attempt.
// Only transient failures qualify: network faults, per-attempt timeouts,
// server errors, and rate limits.
func IsRetryable(err error) bool {
	var clientErr ClientError
	if !errors.As(err, &clientErr) {
		return false
	}
	switch clientErr.Type() {
	case NetworkError, TimeoutError, ServerHTTPError, RateLimitError:
		return true
	default:
		return false
	}
}
