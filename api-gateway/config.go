package main

import (
	"errors"
	"time"

	"github.com/groceazy/backend/services/common/config"
)

// Config holds the gateway settings.
type Config struct {
	config.Common

	Port             string        `envconfig:"PORT" default:"8080"`
	ProductService   string        `envconfig:"PRODUCT_SERVICE_URL" default:"http://product-service:8082"`
	PromotionService string        `envconfig:"PROMOTION_SERVICE_URL" default:"http://promotion-service:8090"`
	UpstreamTimeout  time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
	RatePerMinute    int           `envconfig:"GATEWAY_RATE_PER_MINUTE" default:"300"`
}

// LoadConfig reads the environment. The gateway is the only component that
// may mint identity headers, so it refuses to start without a JWT secret.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &cfg, nil
}
