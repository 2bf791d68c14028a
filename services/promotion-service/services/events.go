package services

import (
	"context"
	"encoding/json"

	awspkg "github.com/groceazy/backend/pkg/aws"
	"go.uber.org/zap"
)

// eventPublisher serializes domain events onto one SNS topic. Publishing is
// best effort: failures are logged and never fail the write that caused them.
type eventPublisher struct {
	sns      awspkg.SNSPublisher
	topicArn string
	logger   *zap.Logger
}

func (p eventPublisher) publish(ctx context.Context, eventType string, event interface{}) {
	if p.sns == nil || p.topicArn == "" {
		p.logger.Debug("SNS not configured, skipping event", zap.String("event_type", eventType))
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	if err := p.sns.Publish(ctx, p.topicArn, body); err != nil {
		p.logger.Error("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	p.logger.Info("Published event", zap.String("event_type", eventType))
}
