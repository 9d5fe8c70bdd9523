package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-tiered-service/cache"
	"github.com/goliatone/go-tiered-service/envelope"
	"github.com/goliatone/go-tiered-service/pkg/testsupport"
)

type user struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type countingStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	sets    int
	getHook func()
}

func newCountingStore() *countingStore {
	return &countingStore{data: make(map[string][]byte)}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	s.gets++
	v, ok := s.data[key]
	hook := s.getHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return v, ok, nil
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.data[key] = value
	return nil
}

func (s *countingStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *countingStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *countingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.sets
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recordingObserver) ObserveOperation(context, operation string, outcome Outcome, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type fixture struct {
	orch     *Orchestrator
	store    *countingStore
	clock    *testsupport.FakeClock
	logs     *bytes.Buffer
	observer *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newCountingStore()
	clock := testsupport.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	logs := &bytes.Buffer{}
	logger := zerolog.New(logs)
	observer := &recordingObserver{}

	rc := cache.NewWithStore(store, 5*time.Minute, cache.WithClock(clock), cache.WithLogger(logger))
	orch := New(rc, DefaultConfig(),
		WithClock(clock),
		WithLogger(logger),
		WithObserver(observer),
	)
	return &fixture{orch: orch, store: store, clock: clock, logs: logs, observer: observer}
}

func getCurrentUser(f *fixture, id string, calls *int32) Operation[user] {
	return Operation[user]{
		Context:  "auth",
		Name:     "getCurrentUser",
		Key:      f.orch.Key("auth", "user", id),
		Validate: func() error { return validation.Validate(id, validation.Required) },
		Fetch: func(ctx context.Context) (user, error) {
			atomic.AddInt32(calls, 1)
			return user{ID: id, Name: "remote"}, nil
		},
	}
}

func TestRun_CacheHitAvoidsRemoteCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.orch.SetCached(ctx, "auth:user:u1", user{ID: "u1"})

	var calls int32
	env, err := Run(ctx, f.orch, getCurrentUser(f, "u1", &calls))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 0 {
		t.Errorf("remote call invoked %d times", calls)
	}
	if env.Data != (user{ID: "u1"}) {
		t.Errorf("unexpected data %+v", env.Data)
	}
	if !env.Meta.Cached {
		t.Error("expected cached meta flag")
	}
}

func TestRun_MissFetchesAndStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var calls int32
	op := getCurrentUser(f, "u2", &calls)

	env, err := Run(ctx, f.orch, op)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if env.Meta.Cached {
		t.Error("first call should not be cached")
	}

	env, err = Run(ctx, f.orch, op)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one remote call, got %d", calls)
	}
	if !env.Meta.Cached || env.Data.Name != "remote" {
		t.Errorf("expected cached remote value, got %+v %+v", env.Data, env.Meta)
	}

	f.clock.Advance(5 * time.Minute)
	if _, err := Run(ctx, f.orch, op); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Errorf("expired entry should refetch, got %d calls", calls)
	}
}

func TestRun_SlowCallWarning(t *testing.T) {
	f := newFixture(t)

	env, err := Run(context.Background(), f.orch, Operation[user]{
		Context: "auth",
		Name:    "getCurrentUser",
		Key:     "auth:user:slow",
		Fetch: func(ctx context.Context) (user, error) {
			f.clock.Advance(1200 * time.Millisecond)
			return user{ID: "slow"}, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if env.Data.ID != "slow" {
		t.Errorf("unexpected data %+v", env.Data)
	}
	if env.Meta.Elapsed != 1200*time.Millisecond {
		t.Errorf("unexpected elapsed %v", env.Meta.Elapsed)
	}

	logs := f.logs.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, "slow operation") {
		t.Errorf("expected slow operation warning, got %q", logs)
	}
}

func TestRun_FastCallDoesNotWarn(t *testing.T) {
	f := newFixture(t)

	_, err := Run(context.Background(), f.orch, Operation[user]{
		Context: "auth",
		Name:    "getCurrentUser",
		Fetch: func(ctx context.Context) (user, error) {
			f.clock.Advance(999 * time.Millisecond)
			return user{ID: "fast"}, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(f.logs.String(), "slow operation") {
		t.Errorf("unexpected warning %q", f.logs.String())
	}
}

func TestRun_ValidationBeforeCacheAndRemote(t *testing.T) {
	f := newFixture(t)

	var calls int32
	_, err := Run(context.Background(), f.orch, getCurrentUser(f, "", &calls))
	if err == nil {
		t.Fatal("expected validation failure")
	}

	var env *envelope.ErrorEnvelope
	if !errors.As(err, &env) {
		t.Fatalf("expected *envelope.ErrorEnvelope, got %T", err)
	}
	if env.Kind != envelope.KindValidation {
		t.Errorf("expected validation kind, got %s", env.Kind)
	}
	if env.Code != "AUTH_GETCURRENTUSER_FAILED" {
		t.Errorf("unexpected code %s", env.Code)
	}
	if calls != 0 {
		t.Errorf("remote call invoked %d times", calls)
	}
	if gets, sets := f.store.counts(); gets != 0 || sets != 0 {
		t.Errorf("cache touched: gets=%d sets=%d", gets, sets)
	}
}

func TestRun_FailFastNoRetry(t *testing.T) {
	f := newFixture(t)
	raw := errors.New("permission denied")

	var calls int32
	op := Operation[user]{
		Context: "profiles",
		Name:    "getProfile",
		Key:     "profile:42:enhanced",
		Fetch: func(ctx context.Context) (user, error) {
			atomic.AddInt32(&calls, 1)
			return user{}, raw
		},
	}

	for i := 1; i <= 3; i++ {
		_, err := Run(context.Background(), f.orch, op)
		if err == nil {
			t.Fatal("expected failure")
		}
		if int(calls) != i {
			t.Fatalf("expected %d remote calls, got %d", i, calls)
		}
	}

	if _, sets := f.store.counts(); sets != 0 {
		t.Errorf("failed operation wrote to cache %d times", sets)
	}
}

func TestRun_ErrorShape(t *testing.T) {
	f := newFixture(t)
	raw := errors.New("row not visible")

	_, err := Run(context.Background(), f.orch, Operation[user]{
		Context: "events",
		Name:    "getEvent",
		Fetch: func(ctx context.Context) (user, error) {
			return user{}, raw
		},
	})

	var env *envelope.ErrorEnvelope
	if !errors.As(err, &env) {
		t.Fatalf("expected *envelope.ErrorEnvelope, got %T", err)
	}
	if !envelope.CodePattern.MatchString(env.Code) {
		t.Errorf("code %q does not match pattern", env.Code)
	}
	if env.Details != raw {
		t.Errorf("details should be the raw error, got %v", env.Details)
	}
	if env.Message != "row not visible" || env.Context != "events" || env.Operation != "getEvent" {
		t.Errorf("unexpected envelope %+v", env)
	}
	if env.Kind != envelope.KindRemote {
		t.Errorf("expected remote kind, got %s", env.Kind)
	}
	if !errors.Is(err, raw) {
		t.Error("errors.Is should reach the raw error")
	}
	if !strings.Contains(f.logs.String(), `"level":"error"`) {
		t.Errorf("expected error log, got %q", f.logs.String())
	}
}

func TestRun_EnvelopeFromFetchIsNotWrappedTwice(t *testing.T) {
	f := newFixture(t)
	inner := envelope.Normalize(errors.New("boom"), "tickets", "listUserTickets")

	_, err := Run(context.Background(), f.orch, Operation[user]{
		Context: "auth",
		Name:    "getCurrentUser",
		Fetch: func(ctx context.Context) (user, error) {
			return user{}, inner
		},
	})
	if err != error(inner) {
		t.Errorf("expected the original envelope, got %v", err)
	}
}

func TestRun_MissingFetch(t *testing.T) {
	f := newFixture(t)

	_, err := Run(context.Background(), f.orch, Operation[user]{Context: "auth", Name: "noop"})
	if !envelope.IsKind(err, envelope.KindInternal) {
		t.Errorf("expected internal failure, got %v", err)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	_, err := Run(ctx, f.orch, getCurrentUser(f, "u1", &calls))
	if !envelope.IsKind(err, envelope.KindCanceled) {
		t.Errorf("expected canceled failure, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected context.Canceled in chain")
	}
	if calls != 0 {
		t.Errorf("remote call invoked %d times", calls)
	}
}

func TestRun_ContextPropagatedToFetch(t *testing.T) {
	f := newFixture(t)
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "tenant-a")

	env, err := Run(ctx, f.orch, Operation[string]{
		Context: "auth",
		Name:    "tenant",
		Fetch: func(ctx context.Context) (string, error) {
			v, _ := ctx.Value(key{}).(string)
			return v, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if env.Data != "tenant-a" {
		t.Errorf("context value lost, got %q", env.Data)
	}
}

func TestRun_CacheBypassForcesRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.orch.SetCached(ctx, "auth:user:u1", user{ID: "u1", Name: "stale"})

	var calls int32
	env, err := Run(WithCacheBypass(ctx), f.orch, getCurrentUser(f, "u1", &calls))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 || env.Data.Name != "remote" || env.Meta.Cached {
		t.Errorf("expected fresh fetch, calls=%d data=%+v", calls, env.Data)
	}

	var cached user
	if !f.orch.GetCached(ctx, "auth:user:u1", &cached) || cached.Name != "remote" {
		t.Errorf("refresh should overwrite cache, got %+v", cached)
	}
}

func TestRun_MetaDerivedForFreshAndCached(t *testing.T) {
	f := newFixture(t)
	op := Operation[[]user]{
		Context: "events",
		Name:    "listEvents",
		Key:     "event:list:limit=2",
		Fetch: func(ctx context.Context) ([]user, error) {
			return []user{{ID: "a"}, {ID: "b"}}, nil
		},
		Meta: func(items []user) *envelope.Meta {
			return envelope.Page(5, 2, 0, len(items))
		},
	}

	for _, wantCached := range []bool{false, true} {
		env, err := Run(context.Background(), f.orch, op)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if env.Meta.Total != 5 || !env.Meta.HasMore || env.Meta.Cached != wantCached {
			t.Errorf("unexpected meta %+v", env.Meta)
		}
	}
}

func TestRun_ConcurrentMissesShareOneCall(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	started := make(chan struct{})
	secondLookup := make(chan struct{})

	var calls int32
	op := Operation[user]{
		Context: "profiles",
		Name:    "getProfile",
		Key:     "profile:7:full",
		Fetch: func(ctx context.Context) (user, error) {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return user{ID: "7"}, nil
		},
	}

	var wg sync.WaitGroup
	results := make([]envelope.Envelope[user], 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = Run(context.Background(), f.orch, op)
	}()
	<-started

	var once sync.Once
	f.store.mu.Lock()
	f.store.getHook = func() { once.Do(func() { close(secondLookup) }) }
	f.store.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = Run(context.Background(), f.orch, op)
	}()
	<-secondLookup
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
		if results[i].Data.ID != "7" {
			t.Errorf("caller %d: unexpected data %+v", i, results[i].Data)
		}
	}
	if calls != 1 {
		t.Errorf("expected one shared remote call, got %d", calls)
	}

	f.observer.mu.Lock()
	defer f.observer.mu.Unlock()
	var shared int
	for _, o := range f.observer.outcomes {
		if o == OutcomeShared {
			shared++
		}
	}
	if shared != 2 {
		t.Errorf("expected both callers to report a shared call, got %v", f.observer.outcomes)
	}
}

func TestRun_SharedCallersGetSeparateCopies(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	started := make(chan struct{})
	secondLookup := make(chan struct{})

	op := Operation[*user]{
		Context: "profiles",
		Name:    "getProfile",
		Key:     "profile:8:full",
		Fetch: func(ctx context.Context) (*user, error) {
			close(started)
			<-release
			return &user{ID: "8", Name: "Ada"}, nil
		},
	}

	var wg sync.WaitGroup
	results := make([]envelope.Envelope[*user], 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = Run(context.Background(), f.orch, op)
	}()
	<-started

	var once sync.Once
	f.store.mu.Lock()
	f.store.getHook = func() { once.Do(func() { close(secondLookup) }) }
	f.store.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = Run(context.Background(), f.orch, op)
	}()
	<-secondLookup
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
		if results[i].Data == nil || results[i].Data.Name != "Ada" {
			t.Fatalf("caller %d: unexpected data %+v", i, results[i].Data)
		}
	}
	if results[0].Data == results[1].Data {
		t.Fatal("shared callers should not alias the same value")
	}

	results[0].Data.Name = "mutated"
	if results[1].Data.Name != "Ada" {
		t.Error("mutation leaked across callers of one flight")
	}
}

func TestRun_WaiterHonoursOwnContext(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	started := make(chan struct{})
	defer close(release)

	op := Operation[user]{
		Context: "profiles",
		Name:    "getProfile",
		Key:     "profile:9:basic",
		Fetch: func(ctx context.Context) (user, error) {
			close(started)
			<-release
			return user{ID: "9"}, nil
		},
	}

	go func() {
		_, _ = Run(context.Background(), f.orch, op)
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Run(ctx, f.orch, op)
	if !envelope.IsKind(err, envelope.KindCanceled) {
		t.Errorf("expected canceled failure for the waiting caller, got %v", err)
	}
}

func TestOrchestrator_CacheHelpers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.orch.SetCached(ctx, "profile:42", user{ID: "42"})
	f.orch.SetCached(ctx, "profile:42:full", user{ID: "42"})
	f.orch.SetCached(ctx, "event:42", user{ID: "e42"})

	if n := f.orch.InvalidateCache(ctx, "profile:42"); n != 2 {
		t.Errorf("expected 2 invalidated, got %d", n)
	}
	var got user
	if !f.orch.GetCached(ctx, "event:42", &got) || got.ID != "e42" {
		t.Error("unrelated key should survive")
	}

	f.orch.ClearCache(ctx)
	if f.orch.GetCached(ctx, "event:42", &got) {
		t.Error("clear should drop everything")
	}
}

func TestOrchestrator_NilCache(t *testing.T) {
	orch := New(nil, DefaultConfig())
	ctx := context.Background()

	orch.SetCached(ctx, "k", 1)
	var v int
	if orch.GetCached(ctx, "k", &v) {
		t.Error("nil cache should always miss")
	}
	if orch.InvalidateCache(ctx, "k") != 0 {
		t.Error("nil cache should invalidate nothing")
	}
	orch.ClearCache(ctx)

	var calls int32
	op := Operation[int]{
		Context: "x",
		Name:    "y",
		Key:     "k",
		Fetch: func(ctx context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 3, nil
		},
	}
	for i := 0; i < 2; i++ {
		if env, err := Run(ctx, orch, op); err != nil || env.Data != 3 {
			t.Fatalf("Run: %v %+v", err, env)
		}
	}
	if calls != 2 {
		t.Errorf("without a cache every call should fetch, got %d", calls)
	}
}
