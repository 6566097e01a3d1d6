package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSubscriber reads events from a Redis pub/sub channel.
type RedisSubscriber struct {
	Client  *redis.Client
	Channel string
}

func (s *RedisSubscriber) Name() string { return "redis" }

// Dial subscribes and forwards payloads until ctx ends.
func (s *RedisSubscriber) Dial(ctx context.Context) (<-chan []byte, error) {
	if s.Client == nil {
		return nil, fmt.Errorf("redis subscriber: no client configured")
	}
	channel := s.Channel
	if channel == "" {
		channel = EventNewIssue
	}

	pubsub := s.Client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
