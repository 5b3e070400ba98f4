// Package counter tracks per-user activity counters (topic count, reply
// count) in a shared store, with a short-lived read cache in front.
package counter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	gocachelib "github.com/eko/gocache/lib/v4/cache"
	"github.com/fernwood/fernwood/internal/cache"
	"github.com/redis/go-redis/v9"
)

const (
	// CounterTopics counts the topics a user has opened.
	CounterTopics = "topics"
	// CounterReplies counts the replies a user has posted.
	CounterReplies = "replies"
)

const readCacheTTL = 10 * time.Second

// Store persists named counters keyed by user id.
type Store interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Set(ctx context.Context, key string, value int64) error
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
}

// Client reads and writes user counters through a Store.
type Client struct {
	store Store
	cache *cache.Typed[int64]
}

// New creates a counter client over the given store with an in-process
// read cache.
func New(store Store) *Client {
	return NewWithBacking(store, cache.NewMemoryBacking(readCacheTTL))
}

// NewWithBacking creates a counter client with an explicit cache backing,
// so multi-instance deployments can share the read cache.
func NewWithBacking(store Store, backing *gocachelib.Cache[[]byte]) *Client {
	return &Client{
		store: store,
		cache: cache.NewTyped[int64](backing, "count:", readCacheTTL),
	}
}

// Get returns the named counter for the user.
func (c *Client) Get(ctx context.Context, name string, userID uint) (int, error) {
	key := counterKey(name, userID)

	if cached, err := c.cache.Get(ctx, key); err == nil {
		return safecast.ToInt(cached)
	}

	value, found, err := c.store.Get(ctx, key)
	if err != nil {
		log.Error("failed to read counter", "key", key, "error", err)
		return 0, err
	}
	if !found {
		return 0, nil
	}
	if err := c.cache.Set(ctx, key, value); err != nil {
		log.Debug("failed to cache counter", "key", key, "error", err)
	}
	return safecast.ToInt(value)
}

// Set overwrites the named counter for the user.
func (c *Client) Set(ctx context.Context, name string, userID uint, value int) error {
	key := counterKey(name, userID)
	if err := c.store.Set(ctx, key, int64(value)); err != nil {
		log.Error("failed to set counter", "key", key, "error", err)
		return err
	}
	if err := c.cache.Delete(ctx, key); err != nil {
		log.Debug("failed to invalidate counter cache", "key", key, "error", err)
	}
	return nil
}

// Incr increments the named counter for the user and returns the new value.
func (c *Client) Incr(ctx context.Context, name string, userID uint, delta int) (int, error) {
	key := counterKey(name, userID)
	value, err := c.store.IncrBy(ctx, key, int64(delta))
	if err != nil {
		log.Error("failed to increment counter", "key", key, "error", err)
		return 0, err
	}
	if err := c.cache.Delete(ctx, key); err != nil {
		log.Debug("failed to invalidate counter cache", "key", key, "error", err)
	}
	return safecast.ToInt(value)
}

func counterKey(name string, userID uint) string {
	return fmt.Sprintf("fernwood:count:%s:%d", name, userID)
}

// RedisStore persists counters in redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a redis-backed counter store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (int64, bool, error) {
	value, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value int64) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return s.client.IncrBy(ctx, key, delta).Result()
}

// MemoryStore keeps counters in process memory. Suitable for
// single-instance deployments and tests.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryStore creates an in-process counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]int64)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, found := s.counts[key]
	return value, found, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key] = value
	return nil
}

func (s *MemoryStore) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key] += delta
	return s.counts[key], nil
}
