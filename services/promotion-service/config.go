package main

import (
	"context"
	"time"

	awspkg "github.com/groceazy/backend/pkg/aws"
	"github.com/groceazy/backend/services/common/config"
	"github.com/groceazy/backend/services/common/database"
)

const dbSecretName = "promotion/DB_CREDENTIALS"

// Config holds all configuration for the promotion service.
type Config struct {
	config.Common
	database.PostgresConfig

	Port                 string        `envconfig:"PORT" default:"8090"`
	PromotionSNSTopicARN string        `envconfig:"PROMOTION_SNS_TOPIC_ARN"`
	OfferCacheTTL        time.Duration `envconfig:"OFFER_CACHE_TTL" default:"1m"`
	CouponRatePerMinute  int           `envconfig:"COUPON_RATE_PER_MINUTE" default:"30"`
}

// LoadConfig reads configuration from the environment, letting Secrets
// Manager override DB credentials when AWS_USE_SECRETS=true.
func LoadConfig(ctx context.Context) (*Config, error) {
	if config.UseSecrets() {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		if err := config.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg), dbSecretName); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
