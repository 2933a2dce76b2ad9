package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestCache(t *testing.T, ttl time.Duration) *RedisSessionCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(addr, os.Getenv("TEST_REDIS_PASS"))
	require.NoError(t, err)
	c := NewRedisSessionCache(client, ttl)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRedisClient_NoAddress(t *testing.T) {
	_, err := NewRedisClient("", "")
	assert.Error(t, err)
}

func TestRedisSessionCache(t *testing.T) {
	ctx := context.Background()
	c := newRedisTestCache(t, time.Minute)
	id := uuid.NewString()

	_, err := c.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Save(ctx, id, []byte(`{"id":"x"}`)))
	got, err := c.Load(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x"}`, string(got))

	ttl, err := c.client.TTL(ctx, c.prefix+id).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	require.NoError(t, c.Delete(ctx, id))
	_, err = c.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, c.Delete(ctx, id))
}
