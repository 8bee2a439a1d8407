package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// config contains the daemon's environment configuration.
type config struct {
	Addr       string `env:"ADDR" envDefault:":8080"`
	LogLevel   int    `env:"LOG_LEVEL" envDefault:"0"`
	Production bool   `env:"PRODUCTION" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	UsersFile string `env:"USERS_FILE" envDefault:"users.json"`

	Redis redisConfig `envPrefix:"REDIS_"`
	JWT   jwtConfig   `envPrefix:"JWT_"`

	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`
	AuditEnabled    bool          `env:"AUDIT_ENABLED" envDefault:"true"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

type redisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Prefix   string `env:"PREFIX" envDefault:"ps"`
}

type jwtConfig struct {
	SigningMethod  string        `env:"SIGNING_METHOD" envDefault:"hs256"`
	Secret         string        `env:"SECRET"`
	PrivateKeyFile string        `env:"PRIVATE_KEY_FILE"`
	PublicKeyFile  string        `env:"PUBLIC_KEY_FILE"`
	Issuer         string        `env:"ISSUER" envDefault:"portal-auth"`
	AccessTTL      time.Duration `env:"ACCESS_TTL" envDefault:"1h"`
	RefreshTTL     time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
}

// newConfig loads configuration from environment variables.
func newConfig() (*config, error) {
	cfg := config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
