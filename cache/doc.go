// Package cache provides the response cache and fingerprint serializer used
// by the orchestrator.
//
// # Overview
//
// A ResponseCache maps a request fingerprint to a previously fetched
// response. All entries share one TTL and expire lazily: an entry older than
// the TTL is reported as a miss but stays in the store until it is
// overwritten, invalidated or evicted by the backend.
//
//	rc, err := cache.New(ctx, cache.DefaultConfig(), cache.WithLogger(logger))
//	rc.Set(ctx, "auth:user:u1", user)
//
//	var u User
//	if rc.Get(ctx, "auth:user:u1", &u) {
//		// hit
//	}
//
//	rc.Invalidate(ctx, "profile:42") // every key containing "profile:42"
//	rc.Clear(ctx)                    // sign out
//
// Values are copies: Set encodes the value and Get decodes a fresh one, so
// callers never share memory through the cache. Copy applies the same round
// trip to a value held outside the cache.
//
// # Stores
//
// Values are msgpack encoded (using json struct tags) and handed to a Store.
// The default Store is a bounded, sharded sturdyc client; Config.Backend
// "redis" selects a shared Redis store instead. Capacity bounds the in-memory
// store, so high cardinality fingerprints evict old entries rather than grow
// without limit.
//
// # Failures
//
// The cache is an optimization. Get, Set, Invalidate and Clear never return
// errors or panic: store errors, encode and decode failures are logged at warn
// level and counted in Stats().Failures, and the call degrades to a miss or a
// no-op.
//
// # Fingerprints
//
// NewDefaultKeySerializer joins a namespace and ordered args with ":".
// Scalars and Stringers render verbatim so "profile:42" stays a substring of
// every key for that record; maps, slices and structs render with sorted keys
// and are hashed with xxhash once they exceed 64 bytes.
package cache
