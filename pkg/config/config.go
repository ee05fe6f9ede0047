package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/travigo/kmb/pkg/util"
)

type Config struct {
	Language string        `yaml:"language" validate:"oneof=en zh-hant zh-hans"`
	Gateway  GatewayConfig `yaml:"gateway"`
	Eta      EtaConfig     `yaml:"eta"`
	Storage  StorageConfig `yaml:"storage"`
}

type GatewayConfig struct {
	BaseURL      string        `yaml:"baseUrl" validate:"omitempty,url"`
	EtaURL       string        `yaml:"etaUrl" validate:"omitempty,url"`
	CorsProxyURL string        `yaml:"corsProxyUrl" validate:"omitempty,url"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
}

type EtaConfig struct {
	Retries int    `yaml:"retries" validate:"gte=0"`
	Method  string `yaml:"method" validate:"oneof=GET POST"`
}

type StorageConfig struct {
	Type       string        `yaml:"type" validate:"oneof=memory redis"`
	Namespace  string        `yaml:"namespace" validate:"required"`
	Expiration time.Duration `yaml:"expiration" validate:"gte=0"`
	Redis      RedisConfig   `yaml:"redis"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database" validate:"gte=0"`
}

func Default() Config {
	return Config{
		Language: "zh-hant",
		Gateway: GatewayConfig{
			Timeout: 30 * time.Second,
		},
		Eta: EtaConfig{
			Retries: 5,
			Method:  "GET",
		},
		Storage: StorageConfig{
			Type:      "memory",
			Namespace: "kmb",
			Redis: RedisConfig{
				Address: "localhost:6379",
			},
		},
	}
}

// Load reads the config file at path on top of the defaults, when path is set,
// then applies KMB_ environment overrides and validates the result
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := config.applyEnvironment(util.GetEnvironmentVariables()); err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) applyEnvironment(env map[string]string) error {
	if env["KMB_LANGUAGE"] != "" {
		c.Language = env["KMB_LANGUAGE"]
	}

	if env["KMB_ETA_RETRIES"] != "" {
		n, err := strconv.Atoi(env["KMB_ETA_RETRIES"])
		if err != nil {
			return fmt.Errorf("KMB_ETA_RETRIES: %w", err)
		}
		c.Eta.Retries = n
	}

	if env["KMB_CORS_PROXY_URL"] != "" {
		c.Gateway.CorsProxyURL = env["KMB_CORS_PROXY_URL"]
	}

	if env["KMB_STORAGE"] != "" {
		c.Storage.Type = env["KMB_STORAGE"]
	}

	if env["KMB_REDIS_ADDRESS"] != "" {
		c.Storage.Redis.Address = env["KMB_REDIS_ADDRESS"]
	}

	if env["KMB_REDIS_PASSWORD"] != "" {
		c.Storage.Redis.Password = env["KMB_REDIS_PASSWORD"]
	}

	if env["KMB_REDIS_DATABASE"] != "" {
		n, err := strconv.Atoi(env["KMB_REDIS_DATABASE"])
		if err != nil {
			return fmt.Errorf("KMB_REDIS_DATABASE: %w", err)
		}
		c.Storage.Redis.Database = n
	}

	return nil
}

func (c Config) Validate() error {
	v := validator.New()

	if err := v.Struct(c); err != nil {
		return err
	}

	if c.Storage.Type == "redis" && c.Storage.Redis.Address == "" {
		return fmt.Errorf("storage.redis.address is required for redis storage")
	}

	return nil
}
