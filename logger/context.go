package logger

import (
	"context"
	"sync/atomic"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// callCounterKey is the context key for tracking outbound HTTP call count per request
	callCounterKey contextKey = "http_call_counter"
	// callElapsedKey is the context key for tracking total outbound HTTP elapsed time per request
	callElapsedKey contextKey = "http_call_elapsed_nanos"
)

// WithCallCounter creates a new context with an outbound call counter and
// elapsed time tracker. Client code attaches it once per logical request so
// every downstream HTTP call made with that context is counted.
func WithCallCounter(ctx context.Context) context.Context {
	counter := int64(0)
	elapsed := int64(0)
	ctx = context.WithValue(ctx, callCounterKey, &counter)
	ctx = context.WithValue(ctx, callElapsedKey, &elapsed)
	return ctx
}

// IncrementCallCounter increments the outbound call counter in the context
func IncrementCallCounter(ctx context.Context) {
	if counter, ok := ctx.Value(callCounterKey).(*int64); ok && counter != nil {
		atomic.AddInt64(counter, 1)
	}
}

// GetCallCount returns the current outbound call count from the context
func GetCallCount(ctx context.Context) int64 {
	if counter, ok := ctx.Value(callCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// AddCallElapsed adds elapsed nanoseconds to the outbound call elapsed time in the context
func AddCallElapsed(ctx context.Context, nanos int64) {
	if elapsed, ok := ctx.Value(callElapsedKey).(*int64); ok && elapsed != nil {
		atomic.AddInt64(elapsed, nanos)
	}
}

// GetCallElapsed returns the total outbound call elapsed time in nanoseconds from the context
func GetCallElapsed(ctx context.Context) int64 {
	if elapsed, ok := ctx.Value(callElapsedKey).(*int64); ok && elapsed != nil {
		return atomic.LoadInt64(elapsed)
	}
	return 0
}
