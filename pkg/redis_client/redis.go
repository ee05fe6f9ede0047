package redis_client

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Client *redis.Client

const defaultConnectionAddress = "localhost:6379"

type Options struct {
	Address  string
	Password string
	Database int
}

func Connect(ctx context.Context, options Options) error {
	address := options.Address
	if address == "" {
		address = defaultConnectionAddress
	}

	if options.Password == "" {
		Client = redis.NewClient(&redis.Options{
			Addr: address,
			DB:   options.Database,
		})
	} else {
		Client = redis.NewClient(&redis.Options{
			Addr:     address,
			Password: options.Password,
			DB:       options.Database,
		})
	}

	statusCmd := Client.Ping(ctx)
	err := statusCmd.Err()
	if err != nil {
		return err
	}

	log.Debug().Str("address", address).Int("database", options.Database).Msg("Connected to Redis")

	return nil
}
