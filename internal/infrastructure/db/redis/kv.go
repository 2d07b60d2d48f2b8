package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV implements the cache.KeyValue abstraction on Redis. All keys share a
// prefix so services on one Redis instance do not collide.
type KV struct {
	client *redis.Client
	prefix string
}

// NewKV creates a KV store wrapping the given Redis client. Keys are stored
// as "<prefix>:<key>".
func NewKV(client *redis.Client, prefix string) *KV {
	return &KV{client: client, prefix: prefix}
}

func (k *KV) key(key string) string {
	return fmt.Sprintf("%s:%s", k.prefix, key)
}

// Get returns the stored value and whether the key was present.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := k.client.Get(ctx, k.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get: %w", err)
	}
	return val, true, nil
}

// Put stores a value with the given TTL.
func (k *KV) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := k.client.Set(ctx, k.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Evict removes the given keys. Missing keys are not an error.
func (k *KV) Evict(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = k.key(key)
	}
	if err := k.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("cache evict: %w", err)
	}
	return nil
}
