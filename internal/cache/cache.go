// Package cache provides a typed, prefixed cache on top of gocache,
// backed either by process memory or redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Typed wraps a cache.Cache and adds a key prefix and JSON typing.
type Typed[T any] struct {
	cache  *cache.Cache[[]byte]
	prefix string
	ttl    time.Duration
}

// NewTyped creates a typed cache wrapper around the given backing cache.
func NewTyped[T any](backing *cache.Cache[[]byte], prefix string, ttl time.Duration) *Typed[T] {
	return &Typed[T]{
		cache:  backing,
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewMemoryBacking creates an in-process backing cache with the given
// default expiration.
func NewMemoryBacking(ttl time.Duration) *cache.Cache[[]byte] {
	gocacheClient := gocache.New(ttl, 2*ttl)
	gocacheStore := go_store.NewGoCache(gocacheClient)
	return cache.New[[]byte](gocacheStore)
}

// NewRedisBacking creates a redis-backed cache.
func NewRedisBacking(client *redis.Client) *cache.Cache[[]byte] {
	redisStore := redis_store.NewRedis(client)
	return cache.New[[]byte](redisStore)
}

// Get retrieves a value from the cache with the prefixed key.
func (t *Typed[T]) Get(ctx context.Context, key any) (T, error) {
	prefixedKey := t.prefix + fmt.Sprintf("%v", key)
	data, err := t.cache.Get(ctx, prefixedKey)
	if err != nil {
		return *new(T), err
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return *new(T), err
	}
	return result, nil
}

// Set stores a value in the cache with the prefixed key.
func (t *Typed[T]) Set(ctx context.Context, key any, object T) error {
	prefixedKey := t.prefix + fmt.Sprintf("%v", key)
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	if t.ttl > 0 {
		return t.cache.Set(ctx, prefixedKey, data, store.WithExpiration(t.ttl))
	}
	return t.cache.Set(ctx, prefixedKey, data)
}

// Delete removes a value from the cache with the prefixed key.
func (t *Typed[T]) Delete(ctx context.Context, key any) error {
	prefixedKey := t.prefix + fmt.Sprintf("%v", key)
	return t.cache.Delete(ctx, prefixedKey)
}
