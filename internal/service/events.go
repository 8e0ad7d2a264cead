package service

import (
	"context"

	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/mykafka"
)

const (
	EventOrderPlaced    = "order_placed"
	EventUserRegistered = "user_registered"
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"
	EventTrackingAdded  = "order_tracking_added"
)

// publish runs after commit. Failures are logged and never surface to the caller.
func publish(ctx context.Context, p mykafka.Publisher, topic, key, eventType string, payload any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, mykafka.NewEvent(eventType, payload)); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", eventType, "key", key, "error", err)
	}
}
