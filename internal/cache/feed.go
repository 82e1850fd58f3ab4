package cache

import (
	"context"
	"errors"
	"time"

	"chest-rewards-api/internal/models"
)

const feedKey = "chest:feed:global"

// FeedCache holds the rendered global feed for a short TTL. Every open
// invalidates it; the TTL bounds staleness if an invalidation is lost.
type FeedCache struct {
	backend Cache
	ttl     time.Duration
}

func NewFeedCache(backend Cache, ttl time.Duration) *FeedCache {
	return &FeedCache{backend: backend, ttl: ttl}
}

// Get returns the cached feed. ok is false on a miss.
func (f *FeedCache) Get(ctx context.Context) (items []models.FeedItem, ok bool, err error) {
	err = GetJSON(ctx, f.backend, feedKey, &items)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (f *FeedCache) Set(ctx context.Context, items []models.FeedItem) error {
	return SetJSON(ctx, f.backend, feedKey, items, f.ttl)
}

func (f *FeedCache) Invalidate(ctx context.Context) error {
	return f.backend.Delete(ctx, feedKey)
}
