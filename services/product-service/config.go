package main

import (
	"context"
	"time"

	awspkg "github.com/groceazy/backend/pkg/aws"
	"github.com/groceazy/backend/services/common/config"
)

const jwtSecretName = "product/JWT_SECRET"

// Config holds all environment variables for the product-service.
type Config struct {
	config.Common

	Port                string        `envconfig:"PORT" default:"8082"`
	ProductsTable       string        `envconfig:"DDB_TABLE_PRODUCTS" default:"Products"`
	PromotionURL        string        `envconfig:"PROMOTION_SERVICE_URL" default:"http://promotion-service:8090"`
	PromotionTimeout    time.Duration `envconfig:"PROMOTION_TIMEOUT" default:"5s"`
	OfferEventsQueueURL string        `envconfig:"OFFER_EVENTS_QUEUE_URL"`
	ImagesBucket        string        `envconfig:"S3_BUCKET_IMAGES"`
	ImagesBaseURL       string        `envconfig:"IMAGES_BASE_URL"`
	CacheTTL            time.Duration `envconfig:"PRODUCT_CACHE_TTL" default:"10m"`
	OffersCacheTTL      time.Duration `envconfig:"OFFERS_CACHE_TTL" default:"1m"`
}

// LoadConfig loads environment variables into Config. If AWS_USE_SECRETS=true
// the JWT secret is read from Secrets Manager first.
func LoadConfig(ctx context.Context) (*Config, error) {
	if config.UseSecrets() {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		if err := config.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg), jwtSecretName); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
