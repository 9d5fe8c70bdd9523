package orchestrator

import (
	"context"
)

type cacheBypassContextKey struct{}

// WithCacheBypass marks ctx so Run skips the cache pre-check. The fresh result
// is still stored, which makes this a forced refresh.
func WithCacheBypass(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, cacheBypassContextKey{}, true)
}

func bypassCache(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	bypass, _ := ctx.Value(cacheBypassContextKey{}).(bool)
	return bypass
}
