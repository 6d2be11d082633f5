package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisGateway backs the key-value contract with Redis, for kiosk-style
// deployments where the state should outlive the device.
type RedisGateway struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisGateway(client *redis.Client) *RedisGateway {
	return &RedisGateway{
		client:    client,
		keyPrefix: "xieka:",
	}
}

func (g *RedisGateway) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := g.client.Get(ctx, g.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (g *RedisGateway) Set(ctx context.Context, key string, value []byte) error {
	// No TTL: this is the system of record, not a cache.
	if err := g.client.Set(ctx, g.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (g *RedisGateway) Close() error {
	return g.client.Close()
}
