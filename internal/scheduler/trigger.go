package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ScrapeMessage asks for a ratings run. An empty URL means the default page.
type ScrapeMessage struct {
	URL string `json:"url"`
}

// TriggerSubscription delivers scrape messages from a Redis channel.
type TriggerSubscription struct {
	events <-chan ScrapeMessage
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of scrape messages.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *TriggerSubscription) Events() <-chan ScrapeMessage {
	return s.events
}

// Errors returns the channel of malformed-message errors. The subscription
// continues after errors.
func (s *TriggerSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *TriggerSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeTriggers subscribes to channel and returns once the subscription
// is active. Caller must call Close when done.
func SubscribeTriggers(ctx context.Context, rdb *redis.Client, channel string) (*TriggerSubscription, error) {
	pubsub := rdb.Subscribe(ctx, channel)

	// Wait for confirmation so messages published after return are not missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	eventsChan := make(chan ScrapeMessage, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var m ScrapeMessage
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal scrape message: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- m:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &TriggerSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// PublishTrigger publishes a scrape message on channel
func PublishTrigger(ctx context.Context, rdb *redis.Client, channel string, msg ScrapeMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal scrape message: %w", err)
	}
	if err := rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish scrape message: %w", err)
	}
	return nil
}
