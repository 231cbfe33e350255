// Package config handles configuration for the server component,
// including defaults, JSON overlay, command-line flags and validation.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postboard/internal/cryptox"
	"golang.org/x/crypto/bcrypt"
)

// Log formats accepted by LogFormat.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
	LogFormatZap  = "zap"
)

// Config holds runtime settings for the postboard server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the REST API and the gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory stores.
//   - AccessTokenSecret / RefreshTokenSecret: distinct HMAC keys for the two token classes.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - BcryptCost: password hashing cost.
//   - RevokeOnRefreshReuse: drop a user's session when a rotated-out refresh token is replayed.
//   - CookieSecure: mark the refresh cookie Secure (HTTPS only).
//   - Production: hide internal error details from responses.
//   - LogFormat: "json", "text" (log/slog) or "zap".
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - MaxImageSize: per-file upload limit in bytes.
type Config struct {
	EndpointAddrHTTP             string
	EndpointAddrGRPC             string
	DatabaseDSN                  string
	AccessTokenSecret            string
	RefreshTokenSecret           string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	BcryptCost                   int
	RevokeOnRefreshReuse         bool
	CookieSecure                 bool
	Production                   bool
	LogFormat                    string
	S3RootUser                   string
	S3RootPassword               string
	S3Bucket                     string
	S3Region                     string
	S3BaseEndpoint               string
	MaxImageSize                 int64
}

// Development credentials. Validate rejects them in production.
const (
	defaultAccessTokenSecret  = "accessSecretKey"
	defaultRefreshTokenSecret = "refreshSecretKey"
	defaultS3RootPassword     = "secretpassword"
)

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are insecure for production and must be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.AccessTokenSecret = defaultAccessTokenSecret
	c.RefreshTokenSecret = defaultRefreshTokenSecret
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 30 * 24 * time.Hour
	c.BcryptCost = cryptox.DefaultBcryptCost
	c.RevokeOnRefreshReuse = true
	c.CookieSecure = false
	c.Production = false
	c.LogFormat = LogFormatJSON
	c.S3RootUser = "admin"
	c.S3RootPassword = defaultS3RootPassword
	c.S3Bucket = "postboard"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.MaxImageSize = 5 << 20
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.EndpointAddrHTTP == "" {
		errs = append(errs, errors.New("http endpoint address is empty"))
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("token secrets must not be empty"))
	} else if c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("token validity durations must be positive"))
	} else if c.AccessTokenValidityDuration >= c.RefreshTokenValidityDuration {
		errs = append(errs, errors.New("access token must expire before refresh token"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	switch c.LogFormat {
	case LogFormatJSON, LogFormatText, LogFormatZap:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.MaxImageSize <= 0 {
		errs = append(errs, errors.New("max image size must be positive"))
	}
	if c.Production {
		if c.AccessTokenSecret == defaultAccessTokenSecret || c.RefreshTokenSecret == defaultRefreshTokenSecret {
			errs = append(errs, errors.New("default token secrets are not allowed in production"))
		}
		if c.S3RootPassword == defaultS3RootPassword {
			errs = append(errs, errors.New("default s3 password is not allowed in production"))
		}
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags. args
// excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
