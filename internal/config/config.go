// Package config loads process configuration from the environment.
//
// Configuration is read exactly once at startup and is immutable afterwards
// — nothing in the service re-reads the environment at request time. A
// missing required value (the signing secret) fails the process fast instead
// of surfacing as a broken token on the first login.
package config

import (
	"github.com/caarlos0/env/v11"

	"github.com/sakif/account-service/internal/apperror"
)

// Config holds everything the server needs from the environment.
//
// JWT_SECRET is required: tokens signed with an empty or default secret are
// forgeable, so there is no sensible fallback. Generate one with:
//
//	JWT_SECRET=$(openssl rand -hex 32)
type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	DBPath     string `env:"DB_PATH" envDefault:"data/accounts.db"`
	JWTSecret  string `env:"JWT_SECRET"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"12"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, apperror.Config("parsing environment: " + err.Error())
	}

	if cfg.JWTSecret == "" {
		return nil, apperror.Config("JWT_SECRET is required")
	}

	return &cfg, nil
}
