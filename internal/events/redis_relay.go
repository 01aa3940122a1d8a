package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay forwards org events to a Redis pub/sub channel.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

// NewRedisRelay constructs a relay publishing to channel.
func NewRedisRelay(client redis.UniversalClient, channel string, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, channel: channel, logger: logger}
}

// Register subscribes the relay to every org event type.
func (r *RedisRelay) Register(dispatcher Dispatcher) {
	if r == nil || r.client == nil || dispatcher == nil {
		return
	}
	SubscribeAll(dispatcher, r.Handle)
}

// Handle publishes one event as JSON.
func (r *RedisRelay) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("publish org event failed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return err
	}
	return nil
}
