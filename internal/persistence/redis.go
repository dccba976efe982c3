package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assistant/internal/config"
)

const redisDialTimeout = 3 * time.Second

// Redis backs the reconciliation locks when configured.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds a client without connecting. It returns nil when REDIS_ADDR is
// unset or unusable; callers then keep locks in-process.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; reconciliation locks stay in-process")
		return nil
	}
	opts, err := redisOptions(cfg)
	if err != nil {
		logger.Warn("invalid REDIS_ADDR; reconciliation locks stay in-process", zap.Error(err))
		return nil
	}
	return &Redis{Client: redis.NewClient(opts)}
}

// redisOptions accepts either host:port or a redis:// URL. An explicit password wins
// over one embedded in the URL.
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if strings.Contains(cfg.Addr, "://") {
		opts, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, err
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		opts.DialTimeout = redisDialTimeout
		return opts, nil
	}
	return &redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	}, nil
}

// Close closes the client.
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
	return r.Client.Ping(ctx).Err()
}
