// Package config holds the typed process configuration read from the environment.
package config

import (
	"strings"
	"time"
)

// Config is shared by the gateway and the services; each process reads the parts it needs.
type Config struct {
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"INFO"`
	Port        string `env:"PORT" env-default:"8080"`

	Database DatabaseConfig
	Redis    RedisConfig
	RPC      RPCConfig
	Auth     AuthConfig
	Mail     MailConfig
	HTTP     HTTPConfig
}

type DatabaseConfig struct {
	URI     string        `env:"DATABASE_URI" env-default:"mongodb://localhost:27017"`
	Name    string        `env:"DATABASE_NAME" env-default:"diagram_hub"`
	Timeout time.Duration `env:"DATABASE_TIMEOUT" env-default:"10s"`
}

type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// RPCConfig names the service queues and bounds every request/response exchange.
type RPCConfig struct {
	UserQueue        string        `env:"USER_QUEUE" env-default:"user_queue"`
	DiagramQueue     string        `env:"DIAGRAM_QUEUE" env-default:"diagram_queue"`
	ActivityLogQueue string        `env:"ACTIVITY_LOG_QUEUE" env-default:"activity_log_queue"`
	Timeout          time.Duration `env:"RPC_TIMEOUT" env-default:"10s"`
	Workers          int           `env:"RPC_WORKERS" env-default:"4"`
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET" env-required:"true"`
	JWTIssuer       string        `env:"JWT_ISSUER" env-default:"diagram-hub"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	OTPTTL          time.Duration `env:"OTP_TTL" env-default:"1m"`
}

type MailConfig struct {
	Domain string `env:"MAILGUN_DOMAIN" env-default:"mail.diagram-hub.dev"`
	APIKey string `env:"MAILGUN_API_KEY"`
	From   string `env:"MAIL_FROM" env-default:"Diagram Hub <team@mail.diagram-hub.dev>"`
}

// HTTPConfig covers the gateway only.
type HTTPConfig struct {
	CORSAllowedOrigins  string        `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	RateLimitRate       time.Duration `env:"RATE_LIMIT_RATE" env-default:"1m"`
	RateLimitLimit      uint          `env:"RATE_LIMIT_LIMIT" env-default:"20"`
	EmailValidationType string        `env:"EMAIL_VALIDATION_TYPE" env-default:"regex"`
}

// IsProduction reports whether mails are actually delivered.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins splits the comma separated CORS origin list.
func (h HTTPConfig) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(h.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
