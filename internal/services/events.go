package services

import (
	"context"
	"log/slog"
	"time"
)

const (
	EventUserRegistered = "user.registered"
	EventPostCreated    = "post.created"
	EventPostDeleted    = "post.deleted"
)

// Event is a domain notification emitted after a successful write.
type Event struct {
	Type       string    `json:"type"`
	EntityID   int       `json:"entityId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher delivers domain events. Delivery failures never fail the
// write that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func publishEvent(ctx context.Context, events EventPublisher, log *slog.Logger, eventType string, id int) {
	event := Event{Type: eventType, EntityID: id, OccurredAt: time.Now().UTC()}
	if err := events.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			slog.String("type", eventType),
			slog.Int("entity_id", id),
			slog.String("error", err.Error()))
	}
}
