package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/masspay/internal/domain"
)

// DefaultEventChannel is used when no channel is configured.
const DefaultEventChannel = "masspay.events"

type eventMessage struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ChannelPublisher publishes outbox events to a Redis pub/sub channel.
type ChannelPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewChannelPublisher(client redis.UniversalClient, channel string) *ChannelPublisher {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &ChannelPublisher{client: client, channel: channel}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg, err := json.Marshal(eventMessage{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
