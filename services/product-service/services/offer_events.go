package services

import (
	"context"
	"encoding/json"
	"strings"

	awspkg "github.com/groceazy/backend/pkg/aws"
	"go.uber.org/zap"
)

// NewOfferEventHandler drops the cached active-offer list whenever
// promotion-service reports an offer write. Malformed and unrelated
// messages are acknowledged and skipped; a failed invalidation is retried.
func NewOfferEventHandler(cache Cache, metrics awspkg.MetricsRecorder, logger *zap.Logger) awspkg.MessageHandler {
	return func(ctx context.Context, body string) error {
		var event struct {
			EventType string `json:"event_type"`
			OfferID   string `json:"offer_id"`
		}
		if err := json.Unmarshal([]byte(body), &event); err != nil {
			logger.Warn("Skipping malformed offer event", zap.Error(err))
			return nil
		}
		if !strings.HasPrefix(event.EventType, "offer_") {
			logger.Debug("Ignoring event", zap.String("event_type", event.EventType))
			return nil
		}
		if cache == nil {
			return nil
		}

		if err := cache.InvalidateOffers(ctx); err != nil {
			return err
		}
		logger.Info("Active offers cache invalidated",
			zap.String("event_type", event.EventType),
			zap.String("offer_id", event.OfferID),
		)
		if metrics != nil && metrics.IsEnabled() {
			_ = metrics.RecordCount(ctx, awspkg.MetricSQSMessages, map[string]string{"EventType": event.EventType})
		}
		return nil
	}
}
