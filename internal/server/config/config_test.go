package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Empty(t, c.DatabaseDSN)
	assert.NotEqual(t, c.AccessTokenSecret, c.RefreshTokenSecret)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 30*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 10, c.BcryptCost)
	assert.True(t, c.RevokeOnRefreshReuse)
	assert.Equal(t, LogFormatJSON, c.LogFormat)
	assert.Equal(t, "postboard", c.S3Bucket)
	assert.Equal(t, int64(5<<20), c.MaxImageSize)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c, err := LoadConfig(nil)
	require.NoError(t, err)
	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	c, err := LoadConfig([]string{"-a", ":9999", "-prod", "-s", "a", "-rs", "b", "-p", "s3"})
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.EndpointAddrHTTP)
	assert.True(t, c.Production)
}

func TestLoadConfig_ProductionRejectsDefaultCredentials(t *testing.T) {
	_, err := LoadConfig([]string{"-prod"})
	assert.ErrorContains(t, err, "default token secrets")
	assert.ErrorContains(t, err, "default s3 password")

	_, err = LoadConfig([]string{"-prod", "-s", "a", "-rs", "b"})
	assert.ErrorContains(t, err, "default s3 password")
	assert.NotContains(t, err.Error(), "default token secrets")
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	_, err := LoadConfig([]string{"-s", "same", "-rs", "same"})
	assert.ErrorContains(t, err, "must differ")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"empty secret", func(c *Config) { c.RefreshTokenSecret = "" }, "must not be empty"},
		{"equal secrets", func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret }, "must differ"},
		{"zero ttl", func(c *Config) { c.AccessTokenValidityDuration = 0 }, "must be positive"},
		{"access outlives refresh", func(c *Config) { c.AccessTokenValidityDuration = 31 * 24 * time.Hour }, "expire before"},
		{"bcrypt cost", func(c *Config) { c.BcryptCost = 99 }, "bcrypt cost"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "unknown log format"},
		{"image size", func(c *Config) { c.MaxImageSize = 0 }, "max image size"},
		{"http addr", func(c *Config) { c.EndpointAddrHTTP = "" }, "http endpoint"},
		{"prod access secret", func(c *Config) { c.Production = true; c.RefreshTokenSecret = "r"; c.S3RootPassword = "p" }, "default token secrets"},
		{"prod refresh secret", func(c *Config) { c.Production = true; c.AccessTokenSecret = "a"; c.S3RootPassword = "p" }, "default token secrets"},
		{"prod s3 password", func(c *Config) { c.Production = true; c.AccessTokenSecret = "a"; c.RefreshTokenSecret = "r" }, "default s3 password"},
		{"prod custom credentials", func(c *Config) {
			c.Production = true
			c.AccessTokenSecret, c.RefreshTokenSecret, c.S3RootPassword = "a", "r", "p"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
