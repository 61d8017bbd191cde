package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/gaborage/go-courier/httpclient"
)

const (
	// DefaultConfigFile is the YAML file Load looks for in the working directory
	DefaultConfigFile = "courier.yaml"

	// envPrefix selects the environment variables Load reads. A double
	// underscore separates sections, so COURIER_CLIENT__BASE_URL maps onto
	// client.base_url while single underscores stay part of the key.
	envPrefix = "COURIER_"
)

// Option adjusts how Load assembles the configuration.
type Option func(*loadOptions)

type loadOptions struct {
	file string
}

// WithFile overrides the YAML file Load reads instead of DefaultConfigFile.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration file
// 3. Default values (lowest priority)
//
// A missing YAML file is fine; a malformed one is not.
func Load(opts ...Option) (*Config, error) {
	options := loadOptions{file: DefaultConfigFile}
	for _, opt := range opts {
		opt(&options)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if _, err := os.Stat(options.file); err == nil {
		if err := k.Load(file.Provider(options.file), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", options.file, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: envTransform,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return finishLoad(k)
}

// LoadBytes builds configuration from in-memory YAML over the defaults.
// Environment variables are not consulted, which keeps embedded and test
// configuration deterministic.
func LoadBytes(content []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return finishLoad(k)
}

// finishLoad unmarshals and validates an assembled koanf instance
func finishLoad(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Store the Koanf instance for flexible access
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envTransform converts COURIER_CLIENT__BASE_URL into client.base_url
func envTransform(key, value string) (string, any) {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ReplaceAll(strings.ToLower(key), "__", ".")
	return key, value
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.base_url":           "",
		"client.local.enabled":      false,
		"client.local.port":         httpclient.DefaultLocalPort,
		"client.timeout":            httpclient.DefaultTimeout.String(),
		"client.retry.max_attempts": httpclient.DefaultMaxAttempts,
		"client.retry.base_delay":   httpclient.DefaultBaseDelay.String(),
		"client.retry.multiplier":   httpclient.DefaultMultiplier,
		"client.retry.jitter":       false,
		"client.retry.max_delay":    httpclient.DefaultMaxDelay.String(),
		"client.payload.log":        false,
		"client.payload.max_bytes":  httpclient.DefaultMaxPayloadLogBytes,
		"client.trace_header":       httpclient.HeaderXRequestID,
		"client.w3c_trace":          false,

		"log.level":  "info",
		"log.pretty": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
