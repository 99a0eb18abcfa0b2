package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/installments/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// connectTimeout bounds the startup ping
const connectTimeout = 5 * time.Second

// NewRedisClient opens a client for cfg and verifies the server answers PING
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("redis host is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return client, nil
}
