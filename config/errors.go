package config

import (
	"fmt"
	"strings"
)

// ConfigError describes a configuration problem with enough context to fix
// it: a category, the dotted field path, and an actionable hint. Messages
// are lowercase following Go error conventions.
//
//nolint:revive // stuttering name is part of the public API
type ConfigError struct {
	Category string   // "missing" or "invalid"
	Field    string   // dotted field path, e.g. "client.base_url"
	Message  string   // what is wrong with the value
	Action   string   // how to fix it
	Details  []string // extra context or examples
}

// Error assembles the populated parts into a single lowercase line, e.g.
// "config_invalid: client.timeout must be positive".
func (e *ConfigError) Error() string {
	parts := make([]string, 0, 5)
	if e.Category != "" {
		parts = append(parts, "config_"+e.Category+":")
	}
	for _, s := range []string{e.Field, e.Message, e.Action} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(e.Details) > 0 {
		parts = append(parts, strings.Join(e.Details, "; "))
	}
	return strings.Join(parts, " ")
}

// Unwrap returns nil. ConfigError is a leaf error carrying all of its
// context in the struct fields.
func (e *ConfigError) Unwrap() error {
	return nil
}

// NewMissingFieldError reports a required field that was never set, naming
// both the env var and the file path that would supply it.
func NewMissingFieldError(field, envVar, yamlPath string) *ConfigError {
	return &ConfigError{
		Category: "missing",
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to %s", envVar, yamlPath, DefaultConfigFile),
	}
}

// NewInvalidFieldError reports a field holding an unusable value. When
// validOptions is non-empty the allowed values are listed in the action.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{
		Category: "invalid",
		Field:    field,
		Message:  message,
	}
	if len(validOptions) > 0 {
		err.Action = "must be one of: " + strings.Join(validOptions, ", ")
	}
	return err
}
