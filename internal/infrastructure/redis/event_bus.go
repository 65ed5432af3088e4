package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"jobforge/internal/domain"
)

// EventBus broadcasts submission results over Redis Pub/Sub so the tracker
// (and any other listener) can react to terminal outcomes.
type EventBus struct {
	client  *redis.Client
	channel string
}

func NewEventBus(client *redis.Client) *EventBus {
	return &EventBus{
		client:  client,
		channel: "jobforge:events:submissions",
	}
}

// PublishResult broadcasts a terminal submission outcome.
func (b *EventBus) PublishResult(ctx context.Context, event domain.SubmissionResultEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.client.Publish(ctx, b.channel, payload).Err()
}

// SubscribeResults opens a continuous stream of submission results.
func (b *EventBus) SubscribeResults(ctx context.Context) (<-chan domain.SubmissionResultEvent, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)

	msgChan := make(chan domain.SubmissionResultEvent)

	go func() {
		defer close(msgChan)
		defer pubsub.Close()
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			var event domain.SubmissionResultEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			// The send must not outlive the subscription: a consumer that
			// stopped reading would otherwise pin this goroutine forever.
			select {
			case msgChan <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgChan, nil
}
