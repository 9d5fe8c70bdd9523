package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-tiered-service/cache"
	"github.com/goliatone/go-tiered-service/envelope"
)

// FetchFn is the remote call wrapped by an operation.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Operation describes one orchestrated call.
type Operation[T any] struct {
	// Context groups operations of a feature ("auth", "profiles") and is the
	// first segment of error codes.
	Context string
	// Name is the operation name ("getCurrentUser").
	Name string
	// Key is the cache fingerprint. Empty disables caching and in-flight
	// de-duplication.
	Key string
	// Validate runs before the cache or the remote call are touched.
	Validate func() error
	Fetch    FetchFn[T]
	// Meta derives envelope metadata (pagination) from the data, for fresh
	// and cached results alike.
	Meta func(T) *envelope.Meta
}

// Outcome labels how an operation completed.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeMiss    Outcome = "miss"
	OutcomeShared  Outcome = "shared"
	OutcomeInvalid Outcome = "invalid"
	OutcomeError   Outcome = "error"
)

// Observer receives one event per completed operation.
type Observer interface {
	ObserveOperation(context, operation string, outcome Outcome, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, Outcome, time.Duration) {}

// Orchestrator is the single seam every feature operation flows through. It
// owns no global state; each instance is built with its own cache.
type Orchestrator struct {
	cache    *cache.ResponseCache
	keys     cache.KeySerializer
	logger   zerolog.Logger
	clock    cache.Clock
	slow     time.Duration
	observer Observer
	group    singleflight.Group
}

// New creates an Orchestrator. A nil cache disables caching.
func New(rc *cache.ResponseCache, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:    rc,
		keys:     cache.NewDefaultKeySerializer(),
		logger:   zerolog.Nop(),
		clock:    cache.SystemClock,
		slow:     cfg.SlowOperationThreshold,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Key builds a fingerprint from a namespace and ordered params, e.g.
// Key("auth", "user", id) == "auth:user:<id>".
func (o *Orchestrator) Key(namespace string, params ...any) string {
	return o.keys.SerializeKey(namespace, params...)
}

// GetCached decodes the cached value for key into out.
func (o *Orchestrator) GetCached(ctx context.Context, key string, out any) bool {
	if o.cache == nil {
		return false
	}
	return o.cache.Get(ctx, key, out)
}

// SetCached stores value under key.
func (o *Orchestrator) SetCached(ctx context.Context, key string, value any) {
	if o.cache == nil {
		return
	}
	o.cache.Set(ctx, key, value)
}

// InvalidateCache removes every cached key containing pattern.
func (o *Orchestrator) InvalidateCache(ctx context.Context, pattern string) int {
	if o.cache == nil {
		return 0
	}
	return o.cache.Invalidate(ctx, pattern)
}

// ClearCache drops every cached entry, typically on sign out.
func (o *Orchestrator) ClearCache(ctx context.Context) {
	if o.cache == nil {
		return
	}
	o.cache.Clear(ctx)
}

// Cache exposes the underlying response cache.
func (o *Orchestrator) Cache() *cache.ResponseCache {
	return o.cache
}

// Run executes op: validation, cache pre-check, a single remote attempt on a
// miss, cache store and timing. Every failure is returned as an
// *envelope.ErrorEnvelope; the cache is left untouched on failure and nothing
// is retried.
func Run[T any](ctx context.Context, o *Orchestrator, op Operation[T]) (envelope.Envelope[T], error) {
	start := o.clock.Now()
	var zero envelope.Envelope[T]

	if op.Validate != nil {
		if err := op.Validate(); err != nil {
			return zero, o.fail(op.Context, op.Name, envelope.Validation(err, op.Context, op.Name), OutcomeInvalid, start)
		}
	}

	if op.Fetch == nil {
		err := envelope.Normalize(errors.New("operation has no fetch function"), op.Context, op.Name)
		err.Kind = envelope.KindInternal
		return zero, o.fail(op.Context, op.Name, err, OutcomeError, start)
	}

	if err := ctx.Err(); err != nil {
		return zero, o.fail(op.Context, op.Name, envelope.Normalize(err, op.Context, op.Name), OutcomeError, start)
	}

	cacheable := op.Key != "" && o.cache != nil

	if cacheable && !bypassCache(ctx) {
		var cached T
		if o.cache.Get(ctx, op.Key, &cached) {
			return succeed(o, op, cached, true, OutcomeHit, start), nil
		}
	}

	data, shared, err := fetch(ctx, o, op, cacheable)
	if err != nil {
		return zero, o.fail(op.Context, op.Name, envelope.Normalize(err, op.Context, op.Name), OutcomeError, start)
	}

	outcome := OutcomeMiss
	if shared {
		outcome = OutcomeShared
	}
	return succeed(o, op, data, false, outcome, start), nil
}

// fetch performs the remote call. Concurrent calls with the same key share a
// single in-flight call; waiting callers still honour their own context.
func fetch[T any](ctx context.Context, o *Orchestrator, op Operation[T], cacheable bool) (T, bool, error) {
	var zero T

	if !cacheable {
		data, err := op.Fetch(ctx)
		return data, false, err
	}

	// The flight runs with the leader's ctx: if the leader is canceled every
	// waiter of that flight fails too. Waiters can still leave early on their
	// own ctx below.
	ch := o.group.DoChan(op.Key, func() (any, error) {
		data, err := op.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		o.cache.Set(ctx, op.Key, data)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		data, ok := res.Val.(T)
		if !ok {
			return zero, res.Shared, fmt.Errorf("in-flight result for %q has type %T", op.Key, res.Val)
		}
		if res.Shared {
			// Every caller of a shared flight gets its own copy, as a cache
			// hit would.
			var copied T
			if err := o.cache.Copy(data, &copied); err != nil {
				o.logger.Debug().Err(err).Str("key", op.Key).Msg("sharing in-flight result without copy")
				return data, true, nil
			}
			return copied, true, nil
		}
		return data, false, nil
	}
}

func succeed[T any](o *Orchestrator, op Operation[T], data T, cached bool, outcome Outcome, start time.Time) envelope.Envelope[T] {
	elapsed := o.clock.Now().Sub(start)

	var meta *envelope.Meta
	if op.Meta != nil {
		meta = op.Meta(data)
	}
	if meta == nil {
		meta = &envelope.Meta{}
	}
	meta.Cached = cached
	meta.Elapsed = elapsed

	if o.slow > 0 && elapsed > o.slow {
		o.logger.Warn().
			Str("context", op.Context).
			Str("operation", op.Name).
			Dur("elapsed", elapsed).
			Dur("threshold", o.slow).
			Msg("slow operation")
	}

	o.observer.ObserveOperation(op.Context, op.Name, outcome, elapsed)
	return envelope.Envelope[T]{Data: data, Meta: meta}
}

func (o *Orchestrator) fail(context, operation string, err *envelope.ErrorEnvelope, outcome Outcome, start time.Time) error {
	elapsed := o.clock.Now().Sub(start)

	event := o.logger.Error()
	if err.Kind == envelope.KindValidation || err.Kind == envelope.KindNotFound {
		event = o.logger.Debug()
	}
	event.
		Err(err.Details).
		Str("code", err.Code).
		Str("kind", string(err.Kind)).
		Str("context", context).
		Str("operation", operation).
		Dur("elapsed", elapsed).
		Msg("operation failed")

	o.observer.ObserveOperation(context, operation, outcome, elapsed)
	return err
}
