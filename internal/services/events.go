package services

import (
	"context"
	"time"

	"onlyfails/internal/logger"
	"onlyfails/internal/models"

	"github.com/google/uuid"
)

// EventPublisher delivers domain events after a successful write.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, models.Event) error { return nil }

// emit publishes an event and only logs a failure; the write it describes has
// already been committed.
func emit(ctx context.Context, publisher EventPublisher, eventType, actorID, productID string, attrs map[string]string) {
	if publisher == nil {
		return
	}
	event := models.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		ActorID:    actorID,
		ProductID:  productID,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Log.Warnw("failed to publish event", "type", eventType, "product_id", productID, "err", err)
	}
}
