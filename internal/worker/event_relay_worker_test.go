package worker

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/org-hierarchy/internal/config"
	"github.com/spec-kit/org-hierarchy/internal/events"
)

func TestStartEventRelay(t *testing.T) {
	logger := zaptest.NewLogger(t)
	d := events.NewInMemoryDispatcher()

	assert.False(t, StartEventRelay(config.EventsConfig{Enabled: false, RedisChannel: "org.changes"}, nil, d, logger))
	assert.False(t, StartEventRelay(config.EventsConfig{Enabled: true, RedisChannel: "org.changes"}, nil, d, logger))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	assert.True(t, StartEventRelay(config.EventsConfig{Enabled: true, RedisChannel: "org.changes"}, client, d, logger))

	// the relay is now subscribed, so publishing surfaces the unreachable server
	err := d.Publish(context.Background(), events.Event{ID: "e1", Type: events.EventTeamChanged})
	assert.Error(t, err)
}
