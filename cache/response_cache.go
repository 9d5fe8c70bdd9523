package cache

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// entry is the stored form of a cached value. The payload stays encoded so
// callers always decode their own copy.
type entry struct {
	Timestamp int64  `msgpack:"ts"`
	Payload   []byte `msgpack:"p"`
}

// ResponseCache maps request fingerprints to previously fetched responses.
// Entries share a single TTL and expire lazily on read. No method returns an
// error: store, encode and decode failures are logged and degrade to a miss
// or a no-op.
type ResponseCache struct {
	store  Store
	ttl    time.Duration
	clock  Clock
	logger zerolog.Logger

	hits     *xsync.Counter
	misses   *xsync.Counter
	failures *xsync.Counter
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithClock replaces the clock used for expiry checks.
func WithClock(clock Clock) Option {
	return func(c *ResponseCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for cache failure warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *ResponseCache) {
		c.logger = logger
	}
}

// New builds a ResponseCache over the store selected by cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*ResponseCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStore(store, cfg.TTL, opts...), nil
}

// NewWithStore builds a ResponseCache over an existing store.
func NewWithStore(store Store, ttl time.Duration, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		store:    store,
		ttl:      ttl,
		clock:    SystemClock,
		logger:   zerolog.Nop(),
		hits:     xsync.NewCounter(),
		misses:   xsync.NewCounter(),
		failures: xsync.NewCounter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the lifetime shared by all entries.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Get decodes the value stored under key into out, which must be a pointer.
// It reports false when the key is absent, the entry is older than the TTL,
// or anything fails along the way.
func (c *ResponseCache) Get(ctx context.Context, key string, out any) (ok bool) {
	if key == "" {
		return false
	}
	defer c.recoverFailure("get", key, func() { ok = false })

	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.fail("get", key, err)
		return false
	}
	if !found {
		c.misses.Inc()
		return false
	}

	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		c.fail("decode entry", key, err)
		return false
	}

	if c.clock.Now().Sub(time.Unix(0, e.Timestamp)) >= c.ttl {
		c.misses.Inc()
		return false
	}

	if err := decode(e.Payload, out); err != nil {
		c.fail("decode value", key, err)
		return false
	}

	c.hits.Inc()
	return true
}

// Set stores value under key, overwriting any previous entry.
func (c *ResponseCache) Set(ctx context.Context, key string, value any) {
	if key == "" {
		return
	}
	defer c.recoverFailure("set", key, nil)

	payload, err := encode(value)
	if err != nil {
		c.fail("encode value", key, err)
		return
	}

	raw, err := msgpack.Marshal(entry{
		Timestamp: c.clock.Now().UnixNano(),
		Payload:   payload,
	})
	if err != nil {
		c.fail("encode entry", key, err)
		return
	}

	if err := c.store.Set(ctx, key, raw); err != nil {
		c.fail("set", key, err)
	}
}

// Delete removes a single key.
func (c *ResponseCache) Delete(ctx context.Context, key string) {
	defer c.recoverFailure("delete", key, nil)
	if err := c.store.Delete(ctx, key); err != nil {
		c.fail("delete", key, err)
	}
}

// Invalidate removes every key containing pattern and returns how many keys
// were removed. An empty pattern removes nothing; use Clear for that.
func (c *ResponseCache) Invalidate(ctx context.Context, pattern string) (removed int) {
	if pattern == "" {
		return 0
	}
	defer c.recoverFailure("invalidate", pattern, func() { removed = 0 })

	keys, err := c.store.Keys(ctx)
	if err != nil {
		c.fail("invalidate", pattern, err)
		return 0
	}

	var matched []string
	for _, key := range keys {
		if strings.Contains(key, pattern) {
			matched = append(matched, key)
		}
	}
	if len(matched) == 0 {
		return 0
	}

	if err := c.store.Delete(ctx, matched...); err != nil {
		c.fail("invalidate", pattern, err)
		return 0
	}

	c.logger.Debug().
		Str("pattern", pattern).
		Int("removed", len(matched)).
		Msg("cache invalidated")
	return len(matched)
}

// Clear removes every entry.
func (c *ResponseCache) Clear(ctx context.Context) {
	defer c.recoverFailure("clear", "*", nil)

	keys, err := c.store.Keys(ctx)
	if err != nil {
		c.fail("clear", "*", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.fail("clear", "*", err)
	}
}

// Stats returns a snapshot of the hit, miss and failure counters.
func (c *ResponseCache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Value(),
		Misses:   c.misses.Value(),
		Failures: c.failures.Value(),
	}
}

func (c *ResponseCache) fail(op, key string, err error) {
	c.failures.Inc()
	c.logger.Warn().
		Err(err).
		Str("op", op).
		Str("key", key).
		Msg("cache operation failed, continuing without cache")
}

func (c *ResponseCache) recoverFailure(op, key string, onPanic func()) {
	if r := recover(); r != nil {
		c.fail(op, key, fmt.Errorf("panic: %v", r))
		if onPanic != nil {
			onPanic()
		}
	}
}

// Copy deep copies value into out with the codec used for cached entries, so
// out matches what a later Get would decode.
func (c *ResponseCache) Copy(value, out any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// Values are encoded with json struct tags so cached payloads line up with
// the field names used on the wire.
func encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, out any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(out)
}
