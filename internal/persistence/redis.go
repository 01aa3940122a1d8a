package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/org-hierarchy/internal/config"
)

const redisStartupPing = 2 * time.Second

// Redis carries committed org change events out of the process and backs the
// readiness check. The service keeps running when Redis is unreachable.
type Redis struct {
	Client *redis.Client
	addr   string
}

// NewRedis builds the client and reports whether the server answers.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisStartupPing)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable; org events stay in process", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client, addr: cfg.Addr}
}

func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", r.addr, err)
	}
	return nil
}
