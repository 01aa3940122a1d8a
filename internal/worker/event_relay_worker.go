package worker

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/config"
	"github.com/spec-kit/org-hierarchy/internal/events"
)

// StartEventRelay forwards committed org changes to Redis. It returns false
// when relaying is disabled or no client is configured.
func StartEventRelay(cfg config.EventsConfig, client redis.UniversalClient, dispatcher events.Dispatcher, logger *zap.Logger) bool {
	if !cfg.Enabled || client == nil || dispatcher == nil {
		return false
	}
	events.NewRedisRelay(client, cfg.RedisChannel, logger).Register(dispatcher)
	if logger != nil {
		logger.Info("org event relay started", zap.String("channel", cfg.RedisChannel))
	}
	return true
}
