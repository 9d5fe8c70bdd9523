package di

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/goliatone/go-tiered-service/cache"
	"github.com/goliatone/go-tiered-service/internal/store"
	"github.com/goliatone/go-tiered-service/orchestrator"
	"github.com/goliatone/go-tiered-service/pkg/testsupport"
)

const (
	adaID   = "6f1c0a52-2d1e-4b7a-9c3e-0a1b2c3d4e01"
	jazzID  = "8a2b7c10-5e4f-4d3c-8b2a-1f0e9d8c7b01"
	orgID   = "2b3c4d5e-6f70-4812-9a3b-4c5d6e7f8091"
	postID  = "9d8c7b6a-5f4e-4d3c-8b2a-190817263544"
	ownerID = "6f1c0a52-2d1e-4b7a-9c3e-0a1b2c3d4e02"
)

// fakeRepo is an in-memory repository that counts calls per method.
type fakeRepo[T any] struct {
	mu    sync.Mutex
	calls map[string]int
	byID  map[string]T
	items []T
	delay time.Duration
}

func newFakeRepo[T any](id func(T) string, items ...T) *fakeRepo[T] {
	r := &fakeRepo[T]{calls: make(map[string]int), byID: make(map[string]T), items: items}
	for _, item := range items {
		r.byID[id(item)] = item
	}
	return r
}

func (r *fakeRepo[T]) hit(method string) {
	r.mu.Lock()
	r.calls[method]++
	r.mu.Unlock()
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
}

func (r *fakeRepo[T]) count(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *fakeRepo[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	r.hit("Get")
	var zero T
	if len(r.items) == 0 {
		return zero, sql.ErrNoRows
	}
	return r.items[0], nil
}

func (r *fakeRepo[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	r.hit("GetByID")
	item, ok := r.byID[id]
	if !ok {
		var zero T
		return zero, sql.ErrNoRows
	}
	return item, nil
}

func (r *fakeRepo[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	r.hit("List")
	return r.items, len(r.items), nil
}

func (r *fakeRepo[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	r.hit("Count")
	return len(r.items), nil
}

func (r *fakeRepo[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	r.hit("Update")
	return record, nil
}

func (r *fakeRepo[T]) Delete(ctx context.Context, record T) error {
	r.hit("Delete")
	return nil
}

type fakes struct {
	profiles      *fakeRepo[*store.Profile]
	organizations *fakeRepo[*store.Organization]
	events        *fakeRepo[*store.Event]
	tickets       *fakeRepo[*store.Ticket]
	posts         *fakeRepo[*store.Post]
}

func newFakes() fakes {
	return fakes{
		profiles: newFakeRepo(func(p *store.Profile) string { return p.ID.String() },
			&store.Profile{ID: uuid.MustParse(adaID), UserID: "auth0|ada", DisplayName: "Ada Lovelace", Username: "ada"},
		),
		organizations: newFakeRepo(func(o *store.Organization) string { return o.ID.String() },
			&store.Organization{ID: uuid.MustParse(orgID), Name: "Elm Street Collective"},
		),
		events: newFakeRepo(func(e *store.Event) string { return e.ID.String() },
			&store.Event{ID: uuid.MustParse(jazzID), Title: "Backyard Jazz Night", City: "austin"},
		),
		tickets: newFakeRepo(func(tk *store.Ticket) string { return tk.ID.String() },
			&store.Ticket{ID: uuid.New(), EventID: uuid.MustParse(jazzID), OwnerID: uuid.MustParse(ownerID)},
		),
		posts: newFakeRepo(func(p *store.Post) string { return p.ID.String() },
			&store.Post{ID: uuid.MustParse(postID), EventID: uuid.MustParse(jazzID)},
		),
	}
}

func (f fakes) repositories() Repositories {
	return Repositories{
		Profiles:      f.profiles,
		Organizations: f.organizations,
		Events:        f.events,
		Tickets:       f.tickets,
		Posts:         f.posts,
	}
}

func TestNewContainer(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.Capacity = 100
	cfg.NumShards = 4

	container, err := NewContainer(context.Background(), cfg, orchestrator.DefaultConfig(), newFakes().repositories())
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}

	if container.Cache() == nil {
		t.Fatal("container should own a response cache")
	}
	if container.Orchestrator().Cache() != container.Cache() {
		t.Error("orchestrator should use the container cache")
	}
	if container.Cache().TTL() != cfg.TTL {
		t.Errorf("expected TTL %v, got %v", cfg.TTL, container.Cache().TTL())
	}

	services := container.APIServices()
	if services.Auth == nil || services.Profiles == nil || services.Events == nil || services.Tickets == nil {
		t.Errorf("expected every feature service, got %+v", services)
	}
	if services.Organizations == nil || services.Posts == nil {
		t.Error("expected cached organization and post repositories")
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults(context.Background(), newFakes().repositories())
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	if got, want := container.Cache().TTL(), cache.DefaultConfig().TTL; got != want {
		t.Errorf("expected default TTL %v, got %v", want, got)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*cache.Config)
	}{
		{"zero ttl", func(c *cache.Config) { c.TTL = 0 }},
		{"zero capacity", func(c *cache.Config) { c.Capacity = 0 }},
		{"eviction percentage out of range", func(c *cache.Config) { c.EvictionPercentage = 150 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cache.DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewContainer(context.Background(), cfg, orchestrator.DefaultConfig(), newFakes().repositories()); err == nil {
				t.Fatal("expected an error for invalid cache config")
			}
		})
	}
}

func TestNewContainer_WithResponseCache(t *testing.T) {
	mem := testsupport.NewMemoryStore()
	rc := cache.NewWithStore(mem, time.Minute)

	container, err := NewContainer(context.Background(), cache.Config{}, orchestrator.DefaultConfig(), newFakes().repositories(), WithResponseCache(rc))
	if err != nil {
		t.Fatalf("an injected cache should skip config validation: %v", err)
	}
	if container.Cache() != rc {
		t.Fatal("expected the injected cache")
	}

	if _, err := container.Profiles().GetProfile(context.Background(), adaID, "basic"); err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !mem.Has("profile:" + adaID + ":basic") {
		t.Error("expected the read to be cached in the injected store")
	}
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes []orchestrator.Outcome
}

func (o *countingObserver) ObserveOperation(context, operation string, outcome orchestrator.Outcome, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func TestNewContainer_Observer(t *testing.T) {
	observer := &countingObserver{}
	rc := cache.NewWithStore(testsupport.NewMemoryStore(), time.Minute)
	container, err := NewContainer(context.Background(), cache.Config{}, orchestrator.DefaultConfig(), newFakes().repositories(),
		WithResponseCache(rc),
		WithObserver(observer),
	)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	ctx := context.Background()
	_, _ = container.Events().GetEvent(ctx, jazzID, "")
	_, _ = container.Events().GetEvent(ctx, jazzID, "")

	observer.mu.Lock()
	defer observer.mu.Unlock()
	want := []orchestrator.Outcome{orchestrator.OutcomeMiss, orchestrator.OutcomeHit}
	if len(observer.outcomes) != len(want) {
		t.Fatalf("expected %v, got %v", want, observer.outcomes)
	}
	for i := range want {
		if observer.outcomes[i] != want[i] {
			t.Errorf("outcome %d: expected %s, got %s", i, want[i], observer.outcomes[i])
		}
	}
}
