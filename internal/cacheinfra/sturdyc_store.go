package cacheinfra

import (
	"context"

	"github.com/viccon/sturdyc"
)

// SturdycStore is a bounded, sharded in-process byte store.
type SturdycStore struct {
	client *sturdyc.Client[[]byte]
}

// NewSturdycStore validates cfg and builds a sturdyc client from it:
// Capacity, NumShards, TTL and EvictionPercentage go to sturdyc.New, the
// rest through ToSturdycOptions.
func NewSturdycStore(cfg Config) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycStore{client: client}, nil
}

// Get returns the stored bytes for key.
func (s *SturdycStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *SturdycStore) Set(_ context.Context, key string, value []byte) error {
	s.client.Set(key, value)
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *SturdycStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Keys lists every key currently held by the store.
func (s *SturdycStore) Keys(_ context.Context) ([]string, error) {
	return s.client.ScanKeys(), nil
}

// Len returns the number of stored entries.
func (s *SturdycStore) Len() int {
	return s.client.Size()
}
