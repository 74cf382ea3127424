package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisRelay publishes events on a Redis channel and feeds every event received on
// it into the local hub, so clients on all instances see hints from any instance.
type RedisRelay struct {
	cli     *redis.Client
	channel string
	hub     *Hub
	logger  zerolog.Logger
}

// NewRedisRelay creates a relay over channel
func NewRedisRelay(cli *redis.Client, channel string, hub *Hub, logger zerolog.Logger) *RedisRelay {
	return &RedisRelay{cli: cli, channel: channel, hub: hub, logger: logger}
}

// Publish sends the event to every instance, this one included
func (r *RedisRelay) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.cli.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Run subscribes to the channel and forwards events to the hub until ctx is done
func (r *RedisRelay) Run(ctx context.Context) {
	pubsub := r.cli.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn().Err(err).Msg("Ignoring malformed relay payload")
				continue
			}
			if err := r.hub.Publish(ctx, event); err != nil {
				return
			}
		}
	}
}
