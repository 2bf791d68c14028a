package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/groceazy/backend/pkg/catalog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	ActiveOffersVersionKey = "offers:active:version"
	activeOffersKeyPrefix  = "offers:active:v"
	DefaultOfferCacheTTL   = time.Minute
)

// ActiveOfferCache stores the current active-offer list. Get reports the
// version it looked at even on a miss; callers load from the database and
// hand that version back to Set, so a list loaded before an Invalidate is
// never stored under the newer version. Version 0 means unknown and Set
// skips it.
type ActiveOfferCache interface {
	Get(ctx context.Context) ([]catalog.Offer, int64, bool)
	Set(ctx context.Context, version int64, offers []catalog.Offer)
	Invalidate(ctx context.Context) error
}

// RedisOfferCache keys the list by a version counter; bumping the counter
// orphans every previously cached list, which then expires on its TTL.
type RedisOfferCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisOfferCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisOfferCache {
	if ttl <= 0 {
		ttl = DefaultOfferCacheTTL
	}
	return &RedisOfferCache{redis: client, ttl: ttl, logger: logger}
}

func (c *RedisOfferCache) Get(ctx context.Context) ([]catalog.Offer, int64, bool) {
	version, err := c.version(ctx)
	if err != nil {
		c.logger.Warn("Active offer cache version unavailable", zap.Error(err))
		return nil, 0, false
	}

	raw, err := c.redis.Get(ctx, c.key(version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Active offer cache read failed", zap.Error(err))
		}
		return nil, version, false
	}

	var offers []catalog.Offer
	if err := json.Unmarshal(raw, &offers); err != nil {
		c.logger.Warn("Active offer cache entry is corrupt", zap.Error(err))
		return nil, version, false
	}
	return offers, version, true
}

// Set stores offers under version in the background.
func (c *RedisOfferCache) Set(_ context.Context, version int64, offers []catalog.Offer) {
	if version <= 0 {
		return
	}
	body, err := json.Marshal(offers)
	if err != nil {
		c.logger.Warn("Failed to marshal active offers for cache", zap.Error(err))
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.redis.Set(bgCtx, c.key(version), body, c.ttl).Err(); err != nil {
			c.logger.Warn("Failed to cache active offers", zap.Error(err))
		}
	}()
}

func (c *RedisOfferCache) Invalidate(ctx context.Context) error {
	v, err := c.redis.Incr(ctx, ActiveOffersVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate active offer cache: %w", err)
	}
	c.logger.Debug("Active offer cache invalidated", zap.Int64("version", v))
	return nil
}

func (c *RedisOfferCache) version(ctx context.Context) (int64, error) {
	v, err := c.redis.Get(ctx, ActiveOffersVersionKey).Int64()
	if err == nil {
		return v, nil
	}
	if errors.Is(err, redis.Nil) {
		// SetNX so a concurrent Invalidate is never overwritten.
		if err := c.redis.SetNX(ctx, ActiveOffersVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.redis.Get(ctx, ActiveOffersVersionKey).Int64()
	}
	return 0, err
}

func (c *RedisOfferCache) key(version int64) string {
	return fmt.Sprintf("%s%d", activeOffersKeyPrefix, version)
}
