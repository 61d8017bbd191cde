package config

import (
	"maps"

	"github.com/gaborage/go-courier/httpclient"
	"github.com/gaborage/go-courier/logger"
)

// ClientConfig converts the loaded configuration into the httpclient
// configuration struct. The header map is copied so later mutations of the
// loaded configuration do not reach the client.
func (c *Config) ClientConfig() *httpclient.Config {
	cc := &c.Client

	cfg := &httpclient.Config{
		BaseURL:            cc.BaseURL,
		LocalMode:          cc.Local.Enabled,
		LocalPort:          cc.Local.Port,
		Timeout:            cc.Timeout,
		Retry:              c.RetryPolicy(),
		DefaultHeaders:     maps.Clone(cc.Headers),
		LogPayloads:        cc.Payload.Log,
		MaxPayloadLogBytes: cc.Payload.MaxBytes,
		TraceIDHeader:      cc.TraceHeader,
		EnableW3CTrace:     cc.W3CTrace,
	}

	if cc.Auth.Username != "" {
		cfg.BasicAuth = &httpclient.BasicAuth{
			Username: cc.Auth.Username,
			Password: cc.Auth.Password,
		}
	}

	return cfg
}

// RetryPolicy converts the retry section into the httpclient policy.
func (c *Config) RetryPolicy() httpclient.RetryPolicy {
	r := &c.Client.Retry
	return httpclient.RetryPolicy{
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   r.BaseDelay,
		Multiplier:  r.Multiplier,
		Jitter:      r.Jitter,
		MaxDelay:    r.MaxDelay,
	}
}

// NewLogger builds a logger from the log section.
func (c *Config) NewLogger() logger.Logger {
	return logger.New(c.Log.Level, c.Log.Pretty)
}

// NewClient builds a ready-to-use client from the loaded configuration.
func (c *Config) NewClient(log logger.Logger) httpclient.Client {
	if log == nil {
		log = c.NewLogger()
	}
	return httpclient.New(c.ClientConfig(), log)
}
