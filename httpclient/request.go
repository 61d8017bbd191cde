package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

const (
	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json"
)

// Caller mistakes are plain errors, never part of the ClientError taxonomy.
var (
	errNilRequest = errors.New("request cannot be nil")
	errEmptyPath  = errors.New("request path cannot be empty")
)

// validateRequest ensures the request has the minimum required data
func validateRequest(req *Request) error {
	if req == nil {
		return errNilRequest
	}
	if req.Path == "" {
		return errEmptyPath
	}
	return nil
}

// encodeQuery renders parameters in insertion order, dropping nil values.
// url.Values.Encode would sort the keys, so the pairs are assembled by hand.
func encodeQuery(params []QueryParam) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(queryValue(p.Value)))
	}
	return b.String()
}

// queryValue flattens a parameter value to its string form
func queryValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// appendQuery attaches an encoded query string to a target URL
func appendQuery(targetURL, query string) string {
	if query == "" {
		return targetURL
	}
	separator := "?"
	if strings.Contains(targetURL, "?") {
		separator = "&"
	}
	return targetURL + separator + query
}

// serializeBody turns the logical request body into bytes exactly once per
// request. Raw forms pass through untouched; anything else is JSON-encoded
// when the effective content type is a JSON type (or unset, in which case
// application/json is assumed). The effective content type is returned so
// the header can be set when the caller omitted it.
func serializeBody(body any, contentType string) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, contentType, nil
	case []byte:
		return b, contentType, nil
	case json.RawMessage:
		if contentType == "" {
			contentType = contentTypeJSON
		}
		return b, contentType, nil
	case string:
		return []byte(b), contentType, nil
	}
	if contentType == "" {
		contentType = contentTypeJSON
	}
	if !isJSONContentType(contentType) {
		return nil, contentType, fmt.Errorf("cannot serialize %T body for content type %q", body, contentType)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, contentType, fmt.Errorf("failed to serialize request body: %w", err)
	}
	return data, contentType, nil
}

// isJSONContentType accepts application/json and any +json media type
func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType == contentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

// contentTypeFor returns the effective Content-Type for a request: the
// request's own header wins over the configured defaults
func contentTypeFor(cfg *Config, req *Request) string {
	if ct := headerValue(req.Headers, contentTypeHeader); ct != "" {
		return ct
	}
	return headerValue(cfg.DefaultHeaders, contentTypeHeader)
}

// headerValue performs a case-insensitive lookup in a header map
func headerValue(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// parseResponseData populates Response.Data from the raw body: JSON bodies
// become structured values, anything else is kept as text. A malformed JSON
// body on a successful response is a terminal ParseError.
func parseResponseData(resp *Response) ClientError {
	if len(resp.Body) == 0 {
		return nil
	}
	if isJSONContentType(resp.Headers.Get(contentTypeHeader)) {
		var value any
		if err := json.Unmarshal(resp.Body, &value); err != nil {
			return NewParseError("failed to decode JSON response", err)
		}
		resp.Data = value
		return nil
	}
	resp.Data = string(resp.Body)
	return nil
}
