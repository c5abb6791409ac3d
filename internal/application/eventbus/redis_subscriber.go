package eventbus

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/smilemakc/outreachctl/internal/infrastructure/logger"
)

// redisKeyPrefix namespaces the pub/sub channels this publisher writes to,
// separate from any key-value use of the same Redis instance.
const redisKeyPrefix = "outreachctl:events:"

// RedisSubscriber republishes every local event onto a Redis pub/sub
// channel so other server instances' Bus can relay it to their own
// WebSocket clients (spec.md §6's "DOMAIN STACK" redis wiring).
type RedisSubscriber struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisSubscriber creates a RedisSubscriber.
func NewRedisSubscriber(client *redis.Client, l *logger.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, logger: l}
}

func (s *RedisSubscriber) Name() string  { return "redis-fanout" }
func (s *RedisSubscriber) Filter() Filter { return nil }

func (s *RedisSubscriber) OnEvent(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, redisKeyPrefix+event.Topic, payload).Err()
}

// Relay subscribes to every outreachctl event channel and forwards received
// events to bus, so events published on another instance reach this
// instance's in-process subscribers (e.g. its WebSocket clients). Blocks
// until ctx is cancelled.
func Relay(ctx context.Context, client *redis.Client, bus *Bus, l *logger.Logger) error {
	pubsub := client.PSubscribe(ctx, redisKeyPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				if l != nil {
					l.ErrorContext(ctx, "failed to decode relayed event", "error", err)
				}
				continue
			}
			bus.Publish(ctx, event.Topic, event)
		}
	}
}
