package store

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tournament-tracker/internal/config"
	"tournament-tracker/internal/constants"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Redis implements Store over a single go-redis client. Constructing the
// client is idempotent and does not dial; reachability is probed per call
// via Ready.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedis(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// The subsystem degrades to direct source fetches
				// when the store is down, so startup proceeds.
				logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at startup, caching degraded")
				return nil
			}
			logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &Redis{client: client, logger: logger}
}

func (r *Redis) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err() == nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *Redis) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("redis setex %s: non-positive ttl %v", key, ttl)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()

	if err := r.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis setex %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.StoreTimeout)
	defer cancel()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del %v: %w", keys, err)
	}
	return nil
}
