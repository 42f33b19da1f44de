package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(3, time.Hour)

	for i := 0; i < 3; i++ {
		ok, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i+1)
	}
	ok, err := store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStoreKey(t *testing.T) {
	store := NewRedisStore(nil, "api", 10, 15*time.Minute)
	base := time.Date(2024, 9, 3, 10, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base }
	k1 := store.key("10.0.0.1")
	store.now = func() time.Time { return base.Add(14 * time.Minute) }
	k2 := store.key("10.0.0.1")
	store.now = func() time.Time { return base.Add(16 * time.Minute) }
	k3 := store.key("10.0.0.1")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Contains(t, k1, "ratelimit:api:10.0.0.1:")
}

// Needs a running server: REDIS_URL=redis://localhost:6379/0
func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	client, err := NewRedisClient(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, "test", 2, time.Minute)
	id := uuid.NewString()
	for _, want := range []bool{true, true, false} {
		ok, err := store.Allow(id)
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}
}
