package config

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

var logLevels = map[string]log.Level{
	"DEBUG": log.DebugLevel,
	"INFO":  log.InfoLevel,
	"WARN":  log.WarnLevel,
	"ERROR": log.ErrorLevel,
	"FATAL": log.FatalLevel,
}

// Validate checks the values the env tags cannot express.
func (c *Config) Validate() error {
	if _, ok := logLevels[strings.ToUpper(c.LogLevel)]; !ok {
		return fmt.Errorf("log_level must be one of DEBUG, INFO, WARN, ERROR, FATAL (got %q)", c.LogLevel)
	}

	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 || c.Auth.OTPTTL <= 0 {
		return fmt.Errorf("token and otp lifetimes must be positive")
	}
	if c.Auth.RefreshTokenTTL < c.Auth.AccessTokenTTL {
		return fmt.Errorf("refresh_token_ttl (%s) must not be shorter than access_token_ttl (%s)", c.Auth.RefreshTokenTTL, c.Auth.AccessTokenTTL)
	}

	if c.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc_timeout must be > 0 (got %s)", c.RPC.Timeout)
	}
	if c.RPC.Workers <= 0 {
		return fmt.Errorf("rpc_workers must be > 0 (got %d)", c.RPC.Workers)
	}

	switch c.HTTP.EmailValidationType {
	case "regex", "mx":
	default:
		return fmt.Errorf("email_validation_type must be regex or mx (got %q)", c.HTTP.EmailValidationType)
	}

	return nil
}

// Level returns the logrus level for LOG_LEVEL.
func (c *Config) Level() log.Level {
	if level, ok := logLevels[strings.ToUpper(c.LogLevel)]; ok {
		return level
	}
	return log.InfoLevel
}
