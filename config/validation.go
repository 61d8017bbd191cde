package config

import (
	"fmt"
	"net/url"

	"github.com/gaborage/go-courier/validation"
)

// structValidator applies the struct tags declared in structure.go
var structValidator = validation.New()

// Validate checks a loaded configuration. Struct tags cover shape (URL
// format, ranges, allowed log levels); duration and cross-field rules are
// checked by hand.
func Validate(cfg *Config) error {
	if err := structValidator.Validate(cfg); err != nil {
		return err
	}

	if err := validateClient(&cfg.Client); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	return nil
}

func validateClient(cfg *ClientConfig) error {
	if err := validateBaseURL(cfg.BaseURL); err != nil {
		return err
	}

	if cfg.Timeout <= 0 {
		return NewInvalidFieldError("client.timeout", "must be positive", nil)
	}

	if err := validateRetry(&cfg.Retry); err != nil {
		return err
	}

	if cfg.Auth.Username != "" && cfg.Auth.Password == "" {
		return NewMissingFieldError("client.auth.password",
			"COURIER_CLIENT__AUTH__PASSWORD", "client.auth.password")
	}

	return nil
}

// validateBaseURL restricts the base address to HTTP schemes; the url struct
// tag already guarantees it parses
func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return nil
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return NewInvalidFieldError("client.base_url", "must be a valid URL", nil)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return NewInvalidFieldError("client.base_url", fmt.Sprintf("unsupported scheme %q", parsed.Scheme),
			[]string{"http", "https"})
	}
	return nil
}

func validateRetry(cfg *RetryConfig) error {
	if cfg.BaseDelay <= 0 {
		return NewInvalidFieldError("client.retry.base_delay", "must be positive", nil)
	}

	if cfg.MaxDelay < 0 {
		return NewInvalidFieldError("client.retry.max_delay", "must be zero or positive", nil)
	}

	if cfg.MaxDelay > 0 && cfg.MaxDelay < cfg.BaseDelay {
		return NewInvalidFieldError("client.retry.max_delay", "must be at least the base delay", nil)
	}

	return nil
}
