package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisMaxRetries = 5
	redisRetryDelay = 2 * time.Second
)

// InitRedis connects to Redis, retrying while the server comes up.
func InitRedis(ctx context.Context, cfg Config, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Network:  "tcp",
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	var err error
	for i := 0; i < redisMaxRetries; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			log.Info("redis ready", zap.String("addr", cfg.RedisAddr))
			return client, nil
		}
		log.Warn("redis not reachable",
			zap.Int("attempt", i+1),
			zap.Int("max", redisMaxRetries),
			zap.Error(err))

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(redisRetryDelay):
		}
	}
	_ = client.Close()
	return nil, fmt.Errorf("redis after %d attempts: %w", redisMaxRetries, err)
}
