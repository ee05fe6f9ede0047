package kmb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/kmb/pkg/gateway"
	"github.com/travigo/kmb/pkg/storage"
)

// StorageVersion is bumped whenever the shape of stored stop routes changes
const StorageVersion = "1"

var (
	ErrCacheCorruption = errors.New("cache corruption")
	ErrUnknownLanguage = errors.New("unknown language")
)

// Gateway is the transport to the KMB endpoints
type Gateway interface {
	Call(ctx context.Context, action string, params gateway.Query) (json.RawMessage, error)
	GetEta(ctx context.Context, query gateway.Query) ([]gateway.EtaRecord, error)
	PostEta(ctx context.Context, d string, ctr int) ([]gateway.EtaRecord, error)
}

type Options struct {
	Language Language
	Gateway  Gateway

	// StopStorage holds stop names, StopRouteStorage the resolved stop routes of a stop.
	// Both default to in-memory storage.
	StopStorage      storage.Storage
	StopRouteStorage storage.Storage

	Now func() time.Time
}

type Client struct {
	language         Language
	gateway          Gateway
	stopStorage      storage.Storage
	stopRouteStorage storage.Storage
	now              func() time.Time
}

func NewClient(ctx context.Context, options Options) (*Client, error) {
	language := options.Language
	if language == "" {
		language = TraditionalChinese
	}
	if !language.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}

	client := &Client{
		language:         language,
		gateway:          options.Gateway,
		stopStorage:      options.StopStorage,
		stopRouteStorage: options.StopRouteStorage,
		now:              options.Now,
	}

	if client.gateway == nil {
		client.gateway = gateway.NewClient(gateway.Options{})
	}
	if client.stopStorage == nil {
		client.stopStorage = storage.NewMemoryStorage()
	}
	if client.stopRouteStorage == nil {
		client.stopRouteStorage = storage.NewMemoryStorage()
	}
	if client.now == nil {
		client.now = hongKongNow
	}

	for _, s := range []storage.Storage{client.stopStorage, client.stopRouteStorage} {
		if err := storage.EnsureVersion(ctx, s, StorageVersion); err != nil {
			return nil, err
		}
	}

	log.Debug().Str("language", string(language)).Msg("KMB client ready")

	return client, nil
}

func (c *Client) Language() Language {
	return c.language
}

// ClearCache drops every stored stop name and stop route
func (c *Client) ClearCache(ctx context.Context) error {
	for _, s := range []storage.Storage{c.stopStorage, c.stopRouteStorage} {
		if err := s.Clear(ctx); err != nil {
			return err
		}
		if err := storage.EnsureVersion(ctx, s, StorageVersion); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) storageKey(id string) string {
	return fmt.Sprintf("%s_%s", id, c.language)
}

var hongKong = loadHongKong()

func loadHongKong() *time.Location {
	location, err := time.LoadLocation("Asia/Hong_Kong")
	if err != nil {
		return time.FixedZone("HKT", 8*60*60)
	}

	return location
}

func hongKongNow() time.Time {
	return time.Now().In(hongKong)
}
