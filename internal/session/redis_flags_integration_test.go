package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisFlags(t *testing.T, ttl time.Duration) *RedisFlags {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := NewRedisClient(ctx, "redis://"+endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisFlags(client, ttl)
}

func TestRedisFlags(t *testing.T) {
	flags := newRedisFlags(t, time.Hour)
	ctx := context.Background()

	rated, err := flags.HasRated(ctx, "s1", itemA)
	require.NoError(t, err)
	assert.False(t, rated)

	claimed, err := flags.ClaimRated(ctx, "s1", itemA)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = flags.ClaimRated(ctx, "s1", itemA)
	require.NoError(t, err)
	assert.False(t, claimed)

	rated, err = flags.HasRated(ctx, "s1", itemA)
	require.NoError(t, err)
	assert.True(t, rated)

	rated, err = flags.HasRated(ctx, "s1", itemB)
	require.NoError(t, err)
	assert.False(t, rated)

	ttl, err := flags.client.TTL(ctx, keyPrefix+"s1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, flags.ReleaseRated(ctx, "s1", itemA))
	rated, err = flags.HasRated(ctx, "s1", itemA)
	require.NoError(t, err)
	assert.False(t, rated)
}

func TestRedisFlags_ConcurrentClaims(t *testing.T) {
	flags := newRedisFlags(t, time.Hour)
	ctx := context.Background()

	const workers = 16
	var (
		wg  sync.WaitGroup
		won atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if claimed, err := flags.ClaimRated(ctx, "s2", itemA); err == nil && claimed {
				won.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), won.Load())
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
