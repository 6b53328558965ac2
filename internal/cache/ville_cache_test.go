package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopAlwaysMisses(t *testing.T) {
	var c VilleCache = Noop{}
	require.NoError(t, c.SetVilleName(context.Background(), 1, "Rabat"))

	_, ok, err := c.GetVilleName(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVilleKey(t *testing.T) {
	assert.Equal(t, "ville_name:42", villeKey(42))
}

func TestRedisVilleCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis-backed cache test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.Run("redis", "7-alpine", nil)
	require.NoError(t, err, "start redis")
	t.Cleanup(func() {
		require.NoError(t, pool.Purge(resource), "purge resource")
	})

	var rdb *redis.Client
	err = pool.Retry(func() error {
		rdb = redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("localhost:%s", resource.GetPort("6379/tcp")),
		})
		return rdb.Ping(context.Background()).Err()
	})
	require.NoError(t, err, "connect to redis")

	c := NewRedisVilleCacheFromClient(rdb, time.Minute)
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.GetVilleName(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetVilleName(ctx, 7, "Fès"))
	name, ok, err := c.GetVilleName(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Fès", name)

	ttl, err := rdb.TTL(ctx, villeKey(7)).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 5)
}
