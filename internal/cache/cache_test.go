package cache

import (
	"context"
	"testing"
	"time"

	"chest-rewards-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewInMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 2*time.Second))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(3 * time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedCache(t *testing.T) {
	ctx := context.Background()
	feed := NewFeedCache(NewInMemoryCache(), time.Minute)

	_, ok, err := feed.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	amt := int64(500)
	items := []models.FeedItem{{User: "alice", Time: 1, Top: "@alice opened a chest", Sub: "🍥 500 Cosmic Tokens", Amount: &amt, Unit: "🍥"}}
	require.NoError(t, feed.Set(ctx, items))

	got, ok, err := feed.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, items, got)

	require.NoError(t, feed.Invalidate(ctx))
	_, ok, err = feed.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
