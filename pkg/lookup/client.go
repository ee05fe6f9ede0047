package lookup

import (
	"context"

	"github.com/travigo/kmb/pkg/config"
	"github.com/travigo/kmb/pkg/gateway"
	"github.com/travigo/kmb/pkg/kmb"
	"github.com/travigo/kmb/pkg/redis_client"
	"github.com/travigo/kmb/pkg/storage"
)

// NewClient builds a KMB client with the gateway and storage described by the config
func NewClient(ctx context.Context, cfg config.Config) (*kmb.Client, error) {
	language, err := kmb.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}

	options := kmb.Options{
		Language: language,
		Gateway: gateway.NewClient(gateway.Options{
			BaseURL:      cfg.Gateway.BaseURL,
			EtaURL:       cfg.Gateway.EtaURL,
			CorsProxyURL: cfg.Gateway.CorsProxyURL,
			Timeout:      cfg.Gateway.Timeout,
		}),
	}

	if cfg.Storage.Type == "redis" {
		err := redis_client.Connect(ctx, redis_client.Options{
			Address:  cfg.Storage.Redis.Address,
			Password: cfg.Storage.Redis.Password,
			Database: cfg.Storage.Redis.Database,
		})
		if err != nil {
			return nil, err
		}

		options.StopStorage = storage.NewRedisStorage(redis_client.Client, cfg.Storage.Namespace+":stops", cfg.Storage.Expiration)
		options.StopRouteStorage = storage.NewRedisStorage(redis_client.Client, cfg.Storage.Namespace+":stop-routes", cfg.Storage.Expiration)
	}

	return kmb.NewClient(ctx, options)
}
