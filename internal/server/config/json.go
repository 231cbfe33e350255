package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/postboard/internal/flagx"
	"github.com/dmitrijs2005/postboard/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations go through
// timex.Duration, so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	AccessTokenSecret            string         `json:"access_token_secret"`
	RefreshTokenSecret           string         `json:"refresh_token_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	RevokeOnRefreshReuse         bool           `json:"revoke_on_refresh_reuse"`
	CookieSecure                 bool           `json:"cookie_secure"`
	Production                   bool           `json:"production"`
	LogFormat                    string         `json:"log_format"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	MaxImageSize                 int64          `json:"max_image_size"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:             c.EndpointAddrHTTP,
		EndpointAddrGRPC:             c.EndpointAddrGRPC,
		DatabaseDSN:                  c.DatabaseDSN,
		AccessTokenSecret:            c.AccessTokenSecret,
		RefreshTokenSecret:           c.RefreshTokenSecret,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		BcryptCost:                   c.BcryptCost,
		RevokeOnRefreshReuse:         c.RevokeOnRefreshReuse,
		CookieSecure:                 c.CookieSecure,
		Production:                   c.Production,
		LogFormat:                    c.LogFormat,
		S3RootUser:                   c.S3RootUser,
		S3RootPassword:               c.S3RootPassword,
		S3Bucket:                     c.S3Bucket,
		S3Region:                     c.S3Region,
		S3BaseEndpoint:               c.S3BaseEndpoint,
		MaxImageSize:                 c.MaxImageSize,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrHTTP = j.EndpointAddrHTTP
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDSN = j.DatabaseDSN
	c.AccessTokenSecret = j.AccessTokenSecret
	c.RefreshTokenSecret = j.RefreshTokenSecret
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.RefreshTokenValidityDuration = j.RefreshTokenValidityDuration.Duration
	c.BcryptCost = j.BcryptCost
	c.RevokeOnRefreshReuse = j.RevokeOnRefreshReuse
	c.CookieSecure = j.CookieSecure
	c.Production = j.Production
	c.LogFormat = j.LogFormat
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.MaxImageSize = j.MaxImageSize
}

// parseJson overlays the file named by -c/-config onto config. Keys missing
// from the file keep their current values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}
	c.apply(config)
	return nil
}
