package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-tiered-service/internal/metrics"
	"github.com/goliatone/go-tiered-service/orchestrator"
)

// HeaderCache reports whether a response was served from the response cache.
const HeaderCache = "X-Cache"

// HeaderUserID carries the signed in user id resolved by the auth provider.
const HeaderUserID = "X-User-ID"

// RequestLogger logs one line per request, at warn for 4xx and error for 5xx.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
		} else if status >= 400 {
			event = logger.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", routePath(c)).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Str("cache", c.Writer.Header().Get(HeaderCache)).
			Msg("http_request")
	}
}

// RequestMetrics records request counts and latency per route.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RecordHTTPRequest(c.Request.Method, routePath(c), c.Writer.Status(), time.Since(start))
	}
}

// CacheControl turns "Cache-Control: no-cache" into a cache bypass for every
// operation served by the request.
func CacheControl() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Cache-Control") == "no-cache" {
			c.Request = c.Request.WithContext(orchestrator.WithCacheBypass(c.Request.Context()))
		}
		c.Next()
	}
}

func routePath(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return c.Request.URL.Path
}
