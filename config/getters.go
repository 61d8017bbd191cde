package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	errMsgRequiredKeyMissing   = "required configuration key '%s' is missing"
	errMsgConfigNotInitialized = "configuration not initialized"
)

// GetString returns the string at key, or the optional default when the key
// is absent.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if !c.Exists(key) {
		return optionalDefault("", defaultVal...)
	}
	return c.k.String(key)
}

// GetInt returns the int at key, or the optional default when the key is
// absent.
func (c *Config) GetInt(key string, defaultVal ...int) int {
	if !c.Exists(key) {
		return optionalDefault(0, defaultVal...)
	}
	return c.k.Int(key)
}

// GetInt64 returns the int64 at key, or the optional default when the key
// is absent.
func (c *Config) GetInt64(key string, defaultVal ...int64) int64 {
	if !c.Exists(key) {
		return optionalDefault(int64(0), defaultVal...)
	}
	return c.k.Int64(key)
}

// GetFloat64 returns the float64 at key, or the optional default when the
// key is absent.
func (c *Config) GetFloat64(key string, defaultVal ...float64) float64 {
	if !c.Exists(key) {
		return optionalDefault(float64(0), defaultVal...)
	}
	return c.k.Float64(key)
}

// GetBool returns the bool at key, or the optional default when the key is
// absent.
func (c *Config) GetBool(key string, defaultVal ...bool) bool {
	if !c.Exists(key) {
		return optionalDefault(false, defaultVal...)
	}
	return c.k.Bool(key)
}

// GetDuration returns the duration at key, or the optional default when the
// key is absent. String values use time.ParseDuration syntax.
func (c *Config) GetDuration(key string, defaultVal ...time.Duration) time.Duration {
	if !c.Exists(key) {
		return optionalDefault(time.Duration(0), defaultVal...)
	}
	return c.k.Duration(key)
}

// GetRequiredString returns the string at key, erroring when the key is
// absent or holds only whitespace.
func (c *Config) GetRequiredString(key string) (string, error) {
	if c == nil || c.k == nil {
		return "", errors.New(errMsgConfigNotInitialized)
	}
	if !c.k.Exists(key) {
		return "", fmt.Errorf(errMsgRequiredKeyMissing, key)
	}

	val := strings.TrimSpace(c.k.String(key))
	if val == "" {
		return "", fmt.Errorf("required configuration key '%s' is empty", key)
	}
	return val, nil
}

// Unmarshal decodes the section rooted at key into out, honoring koanf
// struct tags.
func (c *Config) Unmarshal(key string, out any) error {
	if c == nil || c.k == nil {
		return errors.New(errMsgConfigNotInitialized)
	}
	return c.k.Unmarshal(key, out)
}

// Exists reports whether key is set in any source. Safe on a nil receiver.
func (c *Config) Exists(key string) bool {
	if c == nil || c.k == nil {
		return false
	}
	return c.k.Exists(key)
}

// All returns every resolved key as a flattened dotted-path map.
func (c *Config) All() map[string]any {
	if c == nil || c.k == nil {
		return nil
	}
	return c.k.All()
}

// Custom returns the values under the `custom` namespace, which is reserved
// for caller extensions and never validated.
func (c *Config) Custom() map[string]any {
	if c == nil || c.k == nil {
		return nil
	}
	raw := c.k.Get("custom")
	if m, ok := raw.(map[string]any); ok {
		return m
	}
	return nil
}

// optionalDefault picks the caller-supplied override when one was passed,
// otherwise the zero value for the type.
func optionalDefault[T any](zero T, overrides ...T) T {
	if len(overrides) > 0 {
		return overrides[0]
	}
	return zero
}
