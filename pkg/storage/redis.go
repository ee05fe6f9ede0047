package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps every key under a namespace and tags it with that namespace,
// so Clear only invalidates keys of this storage and leaves the rest of the database alone
type RedisStorage struct {
	Cache     *cache.Cache[string]
	Namespace string
}

func NewRedisStorage(client *redis.Client, namespace string, expiration time.Duration) *RedisStorage {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &RedisStorage{
		Cache:     cache.New[string](redisStore),
		Namespace: namespace,
	}
}

func (r *RedisStorage) key(key string) string {
	return fmt.Sprintf("%s:%s", r.Namespace, key)
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return getString(ctx, r.Cache, r.key(key))
}

func (r *RedisStorage) Set(ctx context.Context, key string, value string) error {
	return r.Cache.Set(ctx, r.key(key), value, store.WithTags([]string{r.Namespace}))
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	return r.Cache.Invalidate(ctx, store.WithInvalidateTags([]string{r.Namespace}))
}
