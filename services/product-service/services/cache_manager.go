package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/groceazy/backend/pkg/analytics"
	"github.com/groceazy/backend/pkg/catalog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CacheVersionKey         = "products:version"
	AnalyticsCachePrefix    = "products:analytics:v"
	OffersVersionKey        = "products:offers:version"
	ActiveOffersCachePrefix = "products:offers:active:v"
	DefaultCacheTTL         = 10 * time.Minute
	DefaultOffersCacheTTL   = time.Minute
	cacheBackgroundTimeout  = 5 * time.Second
)

// Cache is the read-through cache the product service sits behind. Every
// method degrades to a miss when Redis is unavailable. Getters report the
// version they looked at, also on a miss; the value loaded after a miss is
// stored back under that version so a write that invalidated in between
// is never masked. Version 0 means unknown and setters skip it.
type Cache interface {
	GetAnalytics(ctx context.Context) (*analytics.Summary, int64, bool)
	SetAnalyticsAsync(version int64, summary *analytics.Summary)
	Invalidate(ctx context.Context) error
	GetActiveOffers(ctx context.Context) ([]catalog.Offer, int64, bool)
	SetActiveOffersAsync(version int64, offers []catalog.Offer)
	InvalidateOffers(ctx context.Context) error
}

// CacheManager handles all Redis caching operations.
type CacheManager struct {
	redis     *redis.Client
	ttl       time.Duration
	offersTTL time.Duration
	logger    *zap.Logger
}

func NewCacheManager(client *redis.Client, ttl, offersTTL time.Duration, logger *zap.Logger) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if offersTTL <= 0 {
		offersTTL = DefaultOffersCacheTTL
	}
	return &CacheManager{redis: client, ttl: ttl, offersTTL: offersTTL, logger: logger}
}

// GetAnalytics retrieves the summary cached under the current version.
func (cm *CacheManager) GetAnalytics(ctx context.Context) (*analytics.Summary, int64, bool) {
	version, err := cm.getCacheVersion(ctx, CacheVersionKey)
	if err != nil {
		return nil, 0, false
	}

	var summary analytics.Summary
	if !cm.getJSON(ctx, cm.analyticsKey(version), &summary) {
		return nil, version, false
	}
	return &summary, version, true
}

// SetAnalyticsAsync caches summary under version asynchronously.
func (cm *CacheManager) SetAnalyticsAsync(version int64, summary *analytics.Summary) {
	cm.setAsync(cm.analyticsKey(version), version, summary, cm.ttl)
}

// Invalidate orphans every versioned product cache entry by bumping the version.
func (cm *CacheManager) Invalidate(ctx context.Context) error {
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	cm.logger.Debug("Product cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

func (cm *CacheManager) GetActiveOffers(ctx context.Context) ([]catalog.Offer, int64, bool) {
	version, err := cm.getCacheVersion(ctx, OffersVersionKey)
	if err != nil {
		return nil, 0, false
	}

	var offers []catalog.Offer
	if !cm.getJSON(ctx, cm.offersKey(version), &offers) {
		return nil, version, false
	}
	return offers, version, true
}

// SetActiveOffersAsync caches the promotion-service offer list for a short TTL.
func (cm *CacheManager) SetActiveOffersAsync(version int64, offers []catalog.Offer) {
	cm.setAsync(cm.offersKey(version), version, offers, cm.offersTTL)
}

func (cm *CacheManager) InvalidateOffers(ctx context.Context) error {
	if err := cm.redis.Incr(ctx, OffersVersionKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate offers cache: %w", err)
	}
	return nil
}

func (cm *CacheManager) setAsync(key string, version int64, value interface{}, ttl time.Duration) {
	if version <= 0 {
		return
	}
	body, err := json.Marshal(value)
	if err != nil {
		cm.logger.Warn("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), cacheBackgroundTimeout)
		defer cancel()

		if err := cm.redis.Set(bgCtx, key, body, ttl).Err(); err != nil {
			cm.logger.Warn("Failed to write cache entry", zap.String("key", key), zap.Error(err))
		}
	}()
}

func (cm *CacheManager) getJSON(ctx context.Context, key string, dst interface{}) bool {
	raw, err := cm.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cm.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		cm.logger.Warn("Cached entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// getCacheVersion retrieves the current value of versionKey with retry logic.
func (cm *CacheManager) getCacheVersion(ctx context.Context, versionKey string) (int64, error) {
	const maxRetries = 3

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		ver, err := cm.redis.Get(ctx, versionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}
		lastErr = err

		if errors.Is(err, redis.Nil) {
			// Initialize the version key without clobbering a concurrent Incr.
			if err := cm.redis.SetNX(ctx, versionKey, 1, 0).Err(); err == nil {
				continue
			}
		}

		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}

	return 0, fmt.Errorf("failed to get cache version after %d retries: %w", maxRetries, lastErr)
}

func (cm *CacheManager) analyticsKey(version int64) string {
	return fmt.Sprintf("%s%d", AnalyticsCachePrefix, version)
}

func (cm *CacheManager) offersKey(version int64) string {
	return fmt.Sprintf("%s%d", ActiveOffersCachePrefix, version)
}
