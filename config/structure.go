package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the root configuration structure. The embedded koanf instance
// allows flexible access to custom sections not explicitly defined here.
type Config struct {
	Client ClientConfig `koanf:"client"`
	Log    LogConfig    `koanf:"log"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// ClientConfig holds the HTTP client settings.
type ClientConfig struct {
	BaseURL     string            `koanf:"base_url" validate:"omitempty,url"`
	Local       LocalConfig       `koanf:"local"`
	Timeout     time.Duration     `koanf:"timeout"`
	Retry       RetryConfig       `koanf:"retry"`
	Headers     map[string]string `koanf:"headers"`
	Auth        AuthConfig        `koanf:"auth"`
	Payload     PayloadConfig     `koanf:"payload"`
	TraceHeader string            `koanf:"trace_header" validate:"omitempty,header_name"`
	W3CTrace    bool              `koanf:"w3c_trace"`
}

// LocalConfig resolves relative request paths against the loopback address
// when no base URL is configured.
type LocalConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port" validate:"min=0,max=65535"`
}

// RetryConfig holds the attempt budget and backoff progression.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts" validate:"min=1"`
	BaseDelay   time.Duration `koanf:"base_delay"`
	Multiplier  float64       `koanf:"multiplier" validate:"gte=1"`
	Jitter      bool          `koanf:"jitter"`
	MaxDelay    time.Duration `koanf:"max_delay"`
}

// AuthConfig holds default basic authentication credentials.
type AuthConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// PayloadConfig controls debug-level payload logging.
type PayloadConfig struct {
	Log      bool `koanf:"log"`
	MaxBytes int  `koanf:"max_bytes" validate:"min=0"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Pretty bool   `koanf:"pretty"`
}
