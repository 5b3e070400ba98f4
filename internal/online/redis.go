package online

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const onlineKey = "fernwood:online"

// RedisRegistry keeps the online set in a redis sorted set scored by the
// last activity time, so multiple instances share one view.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry creates a redis-backed registry with the given TTL.
// A zero ttl uses DefaultTTL.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) MarkOnline(ctx context.Context, username string) error {
	return r.client.ZAdd(ctx, onlineKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: username,
	}).Err()
}

func (r *RedisRegistry) MarkOffline(ctx context.Context, username string) error {
	return r.client.ZRem(ctx, onlineKey, username).Err()
}

func (r *RedisRegistry) IsOnline(ctx context.Context, username string) (bool, error) {
	score, err := r.client.ZScore(ctx, onlineKey, username).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return time.Since(time.Unix(int64(score), 0)) <= r.ttl, nil
}

func (r *RedisRegistry) OnlineUsers(ctx context.Context) ([]string, error) {
	if err := r.prune(ctx); err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-r.ttl).Unix()
	return r.client.ZRangeByScore(ctx, onlineKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
}

// prune drops entries older than the online window.
func (r *RedisRegistry) prune(ctx context.Context) error {
	cutoff := time.Now().Add(-r.ttl).Unix()
	return r.client.ZRemRangeByScore(ctx, onlineKey, "-inf", "("+strconv.FormatInt(cutoff, 10)).Err()
}
