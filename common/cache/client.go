package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/burakmert236/goodswipe-escrow/common/config"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 5 * time.Second

// RedisClient owns the connection pool shared by the ledger store.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects and verifies the server answers before returning.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}
