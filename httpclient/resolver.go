package httpclient

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultLocalPort is the port used in local mode when none is configured
	DefaultLocalPort = 8000

	localScheme = "http"
	localHost   = "127.0.0.1"
)

// errNoBaseURL is a configuration mistake, not a transport failure, so it is
// a plain error rather than a ClientError.
var errNoBaseURL = errors.New("no base URL configured: set BaseURL or enable local mode")

// resolveBaseURL picks the base address for relative request paths.
// An explicit BaseURL wins; local mode falls back to the loopback address on
// the configured port. Anything else is an error: the client never guesses
// an origin.
func resolveBaseURL(cfg *Config) (string, error) {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/"), nil
	}
	if cfg.LocalMode {
		port := cfg.LocalPort
		if port <= 0 {
			port = DefaultLocalPort
		}
		return fmt.Sprintf("%s://%s:%d", localScheme, localHost, port), nil
	}
	return "", errNoBaseURL
}

// buildTargetURL resolves a request path against the configured base.
// Absolute paths (carrying an http or https scheme) bypass the resolver.
func buildTargetURL(cfg *Config, req *Request) (string, error) {
	if isAbsoluteURL(req.Path) {
		return req.Path, nil
	}
	base, err := resolveBaseURL(cfg)
	if err != nil {
		return "", err
	}
	return joinURL(base, req.Path), nil
}

func isAbsoluteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// joinURL joins base and path with exactly one slash between them
func joinURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
