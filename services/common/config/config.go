// Package config loads service configuration from the environment.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Common holds the settings every service reads.
type Common struct {
	Env            string   `envconfig:"APP_ENV" default:"development"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	JWTSecret      string   `envconfig:"JWT_SECRET"`
	RedisURL       string   `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	UseSecrets     bool     `envconfig:"AWS_USE_SECRETS"`
}

// SecretSource fetches a JSON object secret.
type SecretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// Load reads an optional .env file and decodes the environment into cfg.
func Load(cfg interface{}) error {
	_ = godotenv.Load()
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

// ApplySecrets exports every key of the named secrets into the environment
// so a following Load sees them. Keys already set to a non-empty value in
// the environment are overridden; a missing secret is an error.
func ApplySecrets(ctx context.Context, src SecretSource, names ...string) error {
	for _, name := range names {
		values, err := src.GetSecretMap(ctx, name)
		if err != nil {
			return fmt.Errorf("secret %s: %w", name, err)
		}
		for k, v := range values {
			if v == "" {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return fmt.Errorf("export %s: %w", k, err)
			}
		}
	}
	return nil
}

// UseSecrets reports whether AWS_USE_SECRETS is enabled, before any config
// has been decoded.
func UseSecrets() bool {
	_ = godotenv.Load()
	return os.Getenv("AWS_USE_SECRETS") == "true"
}
