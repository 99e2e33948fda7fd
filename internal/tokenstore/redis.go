// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisOpTimeout bounds every redis call; the Backend contract is synchronous.
const redisOpTimeout = 5 * time.Second

// RedisBackend stores the token in redis under a key namespaced by instance id,
// for headless hosts and containers without an OS keychain.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend returns a backend writing keys as "querymind:<instanceID>:<key>".
func NewRedisBackend(client *redis.Client, instanceID string) *RedisBackend {
	return &RedisBackend{client: client, prefix: fmt.Sprintf("querymind:%s:", instanceID)}
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) key(k string) string { return r.prefix + k }

func (r *RedisBackend) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (r *RedisBackend) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	// No TTL: the backend service decides when a token expires.
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisBackend) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the redis connection pool.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
