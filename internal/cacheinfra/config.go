package cacheinfra

import (
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds the settings for the byte stores backing the response cache.
type Config struct {
	// Backend selects the store implementation: "memory" (sturdyc) or "redis".
	Backend string

	// Capacity is the maximum number of entries the in-memory store keeps.
	// When reached, EvictionPercentage of the entries are evicted.
	Capacity int

	// NumShards determines the number of in-memory shards. Default: 256
	NumShards int

	// TTL is the logical lifetime of an entry. The stores use it to reclaim
	// memory; freshness checks happen in the response cache.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when the in-memory
	// store is full. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the in-memory store sweeps expired
	// entries. Zero keeps the sturdyc default.
	EvictionInterval time.Duration

	Redis RedisConfig
}

// RedisConfig configures the shared Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces every cache key. Required for the redis backend.
	KeyPrefix string

	// DialTimeout and IOTimeout default to 5s and 3s.
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

// DefaultConfig returns the in-memory configuration used by default.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendMemory,
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			KeyPrefix:   "tiered:",
			DialTimeout: 5 * time.Second,
			IOTimeout:   3 * time.Second,
		},
	}
}

// ToSturdycOptions converts the Config to sturdyc options. Capacity,
// NumShards, TTL and EvictionPercentage go to sturdyc.New directly.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case "", BackendMemory, BackendRedis:
	default:
		return &ConfigError{Field: "Backend", Message: "must be one of memory, redis"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.isRedis() {
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return &ConfigError{Field: "Redis.Addr", Message: "cannot be empty"}
		}
		if c.Redis.DB < 0 {
			return &ConfigError{Field: "Redis.DB", Message: "must be non-negative"}
		}
		// Keys, Clear and Invalidate scan under the prefix; an empty one
		// would reach every key of the database.
		if strings.TrimSpace(c.Redis.KeyPrefix) == "" {
			return &ConfigError{Field: "Redis.KeyPrefix", Message: "cannot be empty"}
		}
		return nil
	}

	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

func (c Config) isRedis() bool {
	return strings.EqualFold(c.Backend, BackendRedis)
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
