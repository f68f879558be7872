package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Security holds the runtime configuration for the auth core. Values load
// from environment variables; only the JWT secret has no default.
type Security struct {
	AppName string `envconfig:"APP_NAME" default:"Go Auth Core"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTAlgorithm string        `envconfig:"JWT_ALGORITHM" default:"HS256"`
	AccessTTL    time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"30m"`
	RefreshTTL   time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`

	BcryptCost int `envconfig:"BCRYPT_COST" default:"10"`

	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// RedisAddr selects the Redis session store when set; empty keeps the
	// in-memory store.
	RedisAddr string `envconfig:"REDIS_ADDR" default:""`
}

// Load reads configuration from environment variables.
func Load() (*Security, error) {
	var cfg Security
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "config.Load")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret must be provided")
	}
	switch cfg.JWTAlgorithm {
	case "HS256", "RS256", "ES256":
	default:
		return nil, errors.Errorf("unsupported JWT algorithm %q", cfg.JWTAlgorithm)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d outside %d..%d", cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.SessionTTL <= 0 {
		return nil, errors.New("token and session TTLs must be positive")
	}
	return &cfg, nil
}
