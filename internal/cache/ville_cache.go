package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/suteetoe/commerce-directory/pkg/config"
)

const villeNameKeyPrefix = "ville_name:"

// VilleCache caches ville names by id. A miss is reported as ok=false with a nil error.
type VilleCache interface {
	GetVilleName(ctx context.Context, villeID uint) (name string, ok bool, err error)
	SetVilleName(ctx context.Context, villeID uint, name string) error
}

// RedisVilleCache stores ville names in Redis with a fixed TTL
type RedisVilleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisVilleCache connects to Redis and verifies the connection
func NewRedisVilleCache(ctx context.Context, cfg *config.RedisConfig) (*RedisVilleCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisVilleCacheFromClient(rdb, cfg.TTL), nil
}

// NewRedisVilleCacheFromClient wraps an existing client
func NewRedisVilleCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisVilleCache {
	return &RedisVilleCache{rdb: rdb, ttl: ttl}
}

func (c *RedisVilleCache) GetVilleName(ctx context.Context, villeID uint) (string, bool, error) {
	name, err := c.rdb.Get(ctx, villeKey(villeID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (c *RedisVilleCache) SetVilleName(ctx context.Context, villeID uint, name string) error {
	return c.rdb.Set(ctx, villeKey(villeID), name, c.ttl).Err()
}

// Close releases the Redis connection pool
func (c *RedisVilleCache) Close() error {
	return c.rdb.Close()
}

func villeKey(id uint) string {
	return villeNameKeyPrefix + strconv.FormatUint(uint64(id), 10)
}

// Noop never stores anything; every lookup misses
type Noop struct{}

func (Noop) GetVilleName(context.Context, uint) (string, bool, error) { return "", false, nil }
func (Noop) SetVilleName(context.Context, uint, string) error { return nil }
