package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lireddit/apiserver/internal/services"
)

const attrEventType = "event_type"

// EventPublisher encodes domain events as JSON and publishes them on a
// single channel. The event type is also set as a message attribute so
// consumers can filter without decoding.
type EventPublisher struct {
	mq      *MQ
	channel string
}

func NewEventPublisher(mq *MQ, channel string) *EventPublisher {
	return &EventPublisher{mq: mq, channel: channel}
}

func (p *EventPublisher) Publish(ctx context.Context, event services.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := p.mq.Publish(ctx, p.channel, data, map[string]string{attrEventType: event.Type}); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Subscribe decodes every event on the channel and passes it to fn.
// Undecodable messages are acknowledged and skipped.
func (p *EventPublisher) Subscribe(ctx context.Context, fn func(context.Context, services.Event) error) error {
	return p.mq.Subscribe(ctx, p.channel, func(ctx context.Context, msg Message) error {
		var event services.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return fn(ctx, event)
	})
}

func (p *EventPublisher) Close() error {
	return p.mq.Close()
}
