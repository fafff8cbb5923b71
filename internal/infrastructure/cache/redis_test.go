package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomscout/backend/internal/domain"
)

// Runs against a live server only when ROOMSCOUT_TEST_REDIS_URL is set
func TestRedisCache(t *testing.T) {
	redisURL := os.Getenv("ROOMSCOUT_TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("ROOMSCOUT_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	cache, err := NewRedisCache(ctx, redisURL, "roomscout-test:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer cache.Close()

	_, err = cache.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.Delete(ctx, "k"))
	ok, err = cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-redis-url", "")
	assert.Error(t, err)
}
