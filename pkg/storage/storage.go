package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Storage is a string key/value store used to persist stop names and resolved stop routes
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Clear(ctx context.Context) error
}

// VersionKey is reserved for the schema version of the data held in a Storage
const VersionKey = "_storage_version"

// EnsureVersion clears the storage if it holds data written under another schema version
func EnsureVersion(ctx context.Context, s Storage, version string) error {
	current, exists, err := s.Get(ctx, VersionKey)
	if err != nil {
		return fmt.Errorf("read storage version: %w", err)
	}

	if exists && current == version {
		return nil
	}

	log.Debug().
		Str("current", current).
		Str("expected", version).
		Msg("Clearing storage written under a different version")

	if err := s.Clear(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}

	return s.Set(ctx, VersionKey, version)
}

// getString reads a key from a gocache cache, a missing key is not an error
func getString(ctx context.Context, c *cache.Cache[string], key string) (string, bool, error) {
	value, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, store.NotFound{}) {
			return "", false, nil
		}

		return "", false, err
	}

	return value, true, nil
}
