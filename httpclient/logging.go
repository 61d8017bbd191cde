package httpclient

import (
	"errors"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"
)

// logRequest emits the outbound entry for one attempt. Payload details only
// appear at debug level, and only when payload logging is enabled.
func (c *client) logRequest(req *nethttp.Request, body []byte, traceID string) {
	event := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", c.sanitizeURL(req.URL.String())).
		Str("request_id", traceID)
	if len(req.Header) > 0 {
		event = event.Int("header_count", len(req.Header))
	}
	if len(body) > 0 {
		event = event.Int("body_size", len(body))
	}
	event.Msg("REST client request")

	if c.config.LogPayloads {
		c.logRequestPayload(req, body, traceID)
	}
}

func (c *client) logRequestPayload(req *nethttp.Request, body []byte, traceID string) {
	preview, truncated := c.payloadPreview(body)
	event := c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", c.sanitizeURL(req.URL.String())).
		Str("request_id", traceID).
		Interface("headers", c.sanitizeHeaders(req.Header))
	if len(body) > 0 {
		event = event.
			Int("body_size", len(body)).
			Str("body_truncated", truncated).
			Bytes("body_preview", preview)
	}
	event.Msg("REST client request")
}

// logResponse emits the inbound entry for one attempt, regardless of status
func (c *client) logResponse(resp *Response, traceID string) {
	event := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Str("request_id", traceID)
	if len(resp.Body) > 0 {
		event = event.Int("body_size", len(resp.Body))
	}
	event.Msg("REST client response")

	if c.config.LogPayloads {
		c.logResponsePayload(resp, traceID)
	}
}

func (c *client) logResponsePayload(resp *Response, traceID string) {
	preview, truncated := c.payloadPreview(resp.Body)
	event := c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", traceID).
		Interface("headers", c.sanitizeHeaders(resp.Headers))
	if len(resp.Body) > 0 {
		event = event.
			Int("body_size", len(resp.Body)).
			Str("body_truncated", truncated).
			Bytes("body_preview", preview)
	}
	event.Msg("REST client response")
}

// logRetry records the wait before the next attempt
func (c *client) logRetry(method, targetURL string, attempt int, delay time.Duration, err error) {
	c.logger.Warn().
		Err(err).
		Str("method", method).
		Str("url", c.sanitizeURL(targetURL)).
		Int("attempt", attempt).
		Dur("delay", delay).
		Msg("REST client retry")
}

// logFailure records the terminal classified error for a request, with the
// sanitized server payload when the failure carries one
func (c *client) logFailure(method, targetURL string, attempts int, err error) {
	event := c.logger.Error().
		Err(err).
		Str("method", method).
		Str("url", c.sanitizeURL(targetURL)).
		Int("attempts", attempts)

	var httpErr *httpError
	if errors.As(err, &httpErr) {
		event = event.Int("status", httpErr.statusCode)
		if payload := httpErr.serverPayload; payload != nil && c.filter != nil {
			event = event.Interface("server_payload", c.filter.FilterValue("server_payload", payload))
		}
	}

	event.Msg("REST client request failed")
}

// payloadPreview truncates a payload for debug logging. The truncation flag
// is a string so it always appears in the entry.
func (c *client) payloadPreview(body []byte) ([]byte, string) {
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], "true"
	}
	return body, "false"
}

// sanitizeURL masks credential-bearing query values before a URL is logged.
// Pairs keep their insertion order; only values under sensitive keys are
// replaced.
func (c *client) sanitizeURL(raw string) string {
	if c.filter == nil {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.RawQuery == "" {
		return raw
	}

	pairs := strings.Split(parsed.RawQuery, "&")
	changed := false
	for i, pair := range pairs {
		key, _, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		name, unescapeErr := url.QueryUnescape(key)
		if unescapeErr != nil {
			name = key
		}
		if c.filter.IsSensitiveKey(name) {
			pairs[i] = key + "=" + c.filter.Mask()
			changed = true
		}
	}
	if !changed {
		return raw
	}

	parsed.RawQuery = strings.Join(pairs, "&")
	return parsed.String()
}

// sanitizeHeaders flattens headers into loggable fields with sensitive
// values masked
func (c *client) sanitizeHeaders(headers nethttp.Header) map[string]any {
	fields := make(map[string]any, len(headers))
	for name, values := range headers {
		fields[name] = strings.Join(values, ", ")
	}
	if c.filter == nil {
		return fields
	}
	return c.filter.FilterFields(fields)
}
