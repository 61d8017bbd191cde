// Package httpclient provides a resilient REST client with bounded retries,
// per-attempt timeouts, dual-source cancellation, request/response
// interceptors, and a closed error taxonomy.
//
// Retries
//   - Controlled via Config.Retry or Builder.WithRetryPolicy.
//   - Retries occur on:
//   - Transport errors (network failures)
//   - Per-attempt timeouts (context deadline exceeded or net.Error timeout)
//   - HTTP 5xx responses
//   - HTTP 429 responses; a parseable Retry-After replaces the computed delay
//   - Other 4xx responses, parse failures, and cancellations are never retried.
//
// Backoff Strategy
//   - Exponential: the delay before attempt n is BaseDelay * Multiplier^(n-2).
//   - Deterministic by default; with Jitter enabled the sleep is drawn
//     uniformly from [0, delay).
//   - Delay is capped at MaxDelay (30 seconds unless configured).
//
// Cancellation
//   - The caller's context cancels the whole request, including backoff waits,
//     and always yields a CancelledError.
//   - Each attempt additionally runs under its own timeout; an expired attempt
//     yields a retryable TimeoutError.
//   - CancelAll aborts every attempt currently on the wire.
//
// Notes
//   - Request bodies are serialized once; headers are rebuilt on each attempt
//     so interceptors can inject fresh values (e.g. a new idempotency key).
//   - Interceptor errors and panics are logged and skipped; the pipeline never
//     fails a request.
package httpclient
