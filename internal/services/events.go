package services

import (
	"time"

	"taskmanager/internal/models"

	"go.uber.org/zap"
)

// EventPublisher sends a JSON-encodable payload to the message broker.
type EventPublisher interface {
	Publish(payload interface{}) error
}

// publishAccountEvent announces an account lifecycle change. Failures are
// logged and never fail the request that triggered them.
func publishAccountEvent(events EventPublisher, logger *zap.Logger, eventType string, user *models.User) {
	if events == nil {
		logger.Debug("event publisher not configured, skipping account event",
			zap.String("type", eventType),
			zap.String("user_id", user.ID))
		return
	}
	event := models.AccountEvent{
		Type:       eventType,
		UserID:     user.ID,
		Name:       user.Name,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
	if err := events.Publish(event); err != nil {
		logger.Warn("failed to publish account event",
			zap.String("type", eventType),
			zap.String("user_id", user.ID),
			zap.Error(err))
		return
	}
	logger.Info("published account event",
		zap.String("type", eventType),
		zap.String("user_id", user.ID))
}
