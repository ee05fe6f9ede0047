package storage

import (
	"context"

	"github.com/eko/gocache/lib/v4/cache"
	gocachestore "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryStorage keeps values in process for the lifetime of the storage, without expiration
type MemoryStorage struct {
	Cache *cache.Cache[string]
}

func NewMemoryStorage() *MemoryStorage {
	goCacheStore := gocachestore.NewGoCache(gocache.New(gocache.NoExpiration, 0))

	return &MemoryStorage{
		Cache: cache.New[string](goCacheStore),
	}
}

func (m *MemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return getString(ctx, m.Cache, key)
}

func (m *MemoryStorage) Set(ctx context.Context, key string, value string) error {
	return m.Cache.Set(ctx, key, value)
}

func (m *MemoryStorage) Clear(ctx context.Context) error {
	return m.Cache.Clear(ctx)
}
