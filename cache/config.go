package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-tiered-service/internal/cacheinfra"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = cacheinfra.BackendMemory
	BackendRedis  = cacheinfra.BackendRedis
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend            string
	TTL                time.Duration
	Capacity           int
	NumShards          int
	EvictionPercentage int
	EvictionInterval   time.Duration
	Redis              RedisConfig
}

// RedisConfig mirrors the shared store settings.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults: an
// in-memory store with a five minute TTL.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewStore constructs the Store selected by cfg.Backend.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	internal := cfg.toInternal()
	if internal.Backend == BackendRedis {
		store, err := cacheinfra.NewRedisStore(ctx, internal)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := cacheinfra.NewSturdycStore(internal)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (c Config) toInternal() cacheinfra.Config {
	backend := c.Backend
	if backend == "" {
		backend = BackendMemory
	}
	return cacheinfra.Config{
		Backend:            backend,
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
		Redis: cacheinfra.RedisConfig{
			Addr:        c.Redis.Addr,
			Password:    c.Redis.Password,
			DB:          c.Redis.DB,
			KeyPrefix:   c.Redis.KeyPrefix,
			DialTimeout: c.Redis.DialTimeout,
			IOTimeout:   c.Redis.IOTimeout,
		},
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Backend:            cfg.Backend,
		TTL:                cfg.TTL,
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
		Redis: RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DialTimeout: cfg.Redis.DialTimeout,
			IOTimeout:   cfg.Redis.IOTimeout,
		},
	}
}
