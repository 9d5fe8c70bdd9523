package orchestrator

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-tiered-service/cache"
)

// DefaultSlowOperationThreshold is the elapsed time above which a successful
// operation emits a warning.
const DefaultSlowOperationThreshold = time.Second

// Config holds orchestrator settings.
type Config struct {
	// SlowOperationThreshold triggers a warning log for successful operations
	// that take longer. Zero disables the warning.
	SlowOperationThreshold time.Duration
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{SlowOperationThreshold: DefaultSlowOperationThreshold}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger for slow operation warnings and failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock replaces the clock used to time operations.
func WithClock(clock cache.Clock) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithKeySerializer replaces the fingerprint builder used by Key.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(o *Orchestrator) {
		if keys != nil {
			o.keys = keys
		}
	}
}

// WithObserver registers an Observer for completed operations.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		if observer != nil {
			o.observer = observer
		}
	}
}
