package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

// ErrNoKeyPrefix is returned by RedisStore.Keys when the store has no prefix.
var ErrNoKeyPrefix = errors.New("redis store has no key prefix")

// RedisStore shares cache entries between processes through Redis. Keys are
// namespaced with Config.Redis.KeyPrefix.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to the configured Redis server and pings it.
func NewRedisStore(ctx context.Context, cfg Config) (*RedisStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  orDefault(cfg.Redis.DialTimeout, 5*time.Second),
		ReadTimeout:  orDefault(cfg.Redis.IOTimeout, 3*time.Second),
		WriteTimeout: orDefault(cfg.Redis.IOTimeout, 3*time.Second),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	return NewRedisStoreWithClient(client, cfg.Redis.KeyPrefix, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the stored bytes for key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Delete removes keys. Missing keys are ignored.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.prefix + key
	}
	return s.client.Del(ctx, full...).Err()
}

// Keys scans every key under the prefix and returns them without it. A store
// without a prefix refuses to scan.
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	if s.prefix == "" {
		return nil, ErrNoKeyPrefix
	}

	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// escapeGlob escapes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
