// Package config holds the postboard CLI settings.
package config

import (
	"errors"
	"net/url"
	"time"
)

// Config holds runtime settings for the postboard CLI.
//
// Fields:
//   - ServerURL: base URL of the REST API.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("server url must be absolute, e.g. http://127.0.0.1:8080")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}

// Load applies defaults, then overlays the JSON file at path when path is
// not empty. Command-line flags are applied by the caller afterwards.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := parseJson(cfg, path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
