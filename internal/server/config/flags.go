package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/postboard/internal/flagx"
)

var flagSpec = flagx.Spec{
	Values: []string{
		"-a", "-grpc", "-d", "-s", "-rs", "-t", "-r", "-cost", "-log",
		"-u", "-p", "-b", "-g", "-e", "-max-image",
	},
	Bools: []string{"-revoke-reuse", "-secure-cookie", "-prod"},
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-grpc string     gRPC bind address (e.g., ":50051")
//	-d string        PostgreSQL DSN, empty for in-memory stores
//	-s string        access token HMAC secret
//	-rs string       refresh token HMAC secret
//	-t int           access token validity, minutes
//	-r int           refresh token validity, minutes
//	-cost int        bcrypt cost
//	-log string      log format: json, text or zap
//	-revoke-reuse    revoke the session on refresh token reuse
//	-secure-cookie   send the refresh cookie over HTTPS only
//	-prod            hide internal error details
//	-u string        S3 root user
//	-p string        S3 root password
//	-b string        S3 bucket name
//	-g string        S3 region
//	-e string        S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-max-image int   upload limit per image, bytes
//
// Arguments not listed above are ignored so that -c/-config can share the
// command line.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("postboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "rs", config.RefreshTokenSecret, "refresh token secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogFormat, "log", config.LogFormat, "log format")
	fs.BoolVar(&config.RevokeOnRefreshReuse, "revoke-reuse", config.RevokeOnRefreshReuse, "revoke session on refresh token reuse")
	fs.BoolVar(&config.CookieSecure, "secure-cookie", config.CookieSecure, "secure refresh cookie")
	fs.BoolVar(&config.Production, "prod", config.Production, "production mode")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.Int64Var(&config.MaxImageSize, "max-image", config.MaxImageSize, "max image size in bytes")

	if err := fs.Parse(flagx.Filter(args, flagSpec)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
	return nil
}
