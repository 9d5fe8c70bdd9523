package di

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-tiered-service/cache"
	"github.com/goliatone/go-tiered-service/fields"
	"github.com/goliatone/go-tiered-service/internal/api"
	"github.com/goliatone/go-tiered-service/internal/features"
	"github.com/goliatone/go-tiered-service/internal/store"
	"github.com/goliatone/go-tiered-service/orchestrator"
	"github.com/goliatone/go-tiered-service/repositorycache"
)

// ProfileRepository is what the profile and auth services need from the
// profile store.
type ProfileRepository interface {
	repositorycache.Reader[*store.Profile]
	features.ProfileGetter
}

// Repositories are the uncached data sources behind the services.
type Repositories struct {
	Profiles      ProfileRepository
	Organizations repositorycache.Reader[*store.Organization]
	Events        repositorycache.Reader[*store.Event]
	Tickets       repositorycache.Reader[*store.Ticket]
	Posts         repositorycache.Reader[*store.Post]
}

// FromStore adapts the bun backed repositories.
func FromStore(r store.Repositories) Repositories {
	return Repositories{
		Profiles:      r.Profiles,
		Organizations: r.Organizations,
		Events:        r.Events,
		Tickets:       r.Tickets,
		Posts:         r.Posts,
	}
}

// Option configures a Container.
type Option func(*options)

type options struct {
	logger   zerolog.Logger
	observer orchestrator.Observer
	cache    *cache.ResponseCache
	clock    cache.Clock
}

// WithLogger sets the logger shared by the cache and the orchestrator.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver forwards completed operations to observer.
func WithObserver(observer orchestrator.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithResponseCache uses rc instead of building one from the cache config.
func WithResponseCache(rc *cache.ResponseCache) Option {
	return func(o *options) {
		o.cache = rc
	}
}

// WithClock sets the clock used to time operations.
func WithClock(clock cache.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// Container owns the response cache, the orchestrator built on it and every
// feature service. There is exactly one cache per container.
type Container struct {
	cache *cache.ResponseCache
	orch  *orchestrator.Orchestrator

	auth          *features.AuthService
	profiles      *features.ProfileService
	events        *features.EventService
	tickets       *features.TicketService
	organizations *repositorycache.CachedRepository[*store.Organization]
	posts         *repositorycache.CachedRepository[*store.Post]
}

// NewContainer builds the cache from cacheCfg, the orchestrator from
// orchCfg and the services over repos.
func NewContainer(ctx context.Context, cacheCfg cache.Config, orchCfg orchestrator.Config, repos Repositories, opts ...Option) (*Container, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	rc := o.cache
	if rc == nil {
		var err error
		rc, err = cache.New(ctx, cacheCfg, cache.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(o.logger),
		orchestrator.WithObserver(o.observer),
	}
	if o.clock != nil {
		orchOpts = append(orchOpts, orchestrator.WithClock(o.clock))
	}
	orch := orchestrator.New(rc, orchCfg, orchOpts...)

	return &Container{
		cache:         rc,
		orch:          orch,
		auth:          features.NewAuthService(orch, repos.Profiles),
		profiles:      features.NewProfileService(orch, repos.Profiles),
		events:        features.NewEventService(orch, repos.Events),
		tickets:       features.NewTicketService(orch, repos.Tickets),
		organizations: NewCachedRepository(orch, repos.Organizations, fields.EntityOrganization),
		posts:         NewCachedRepository(orch, repos.Posts, fields.EntityPost),
	}, nil
}

// NewContainerWithDefaults builds a container with the default in-memory
// cache and orchestrator settings.
func NewContainerWithDefaults(ctx context.Context, repos Repositories, opts ...Option) (*Container, error) {
	return NewContainer(ctx, cache.DefaultConfig(), orchestrator.DefaultConfig(), repos, opts...)
}

// Cache returns the response cache.
func (c *Container) Cache() *cache.ResponseCache { return c.cache }

// Orchestrator returns the shared orchestrator.
func (c *Container) Orchestrator() *orchestrator.Orchestrator { return c.orch }

// Auth returns the auth service.
func (c *Container) Auth() *features.AuthService { return c.auth }

// Profiles returns the profile service.
func (c *Container) Profiles() *features.ProfileService { return c.profiles }

// Events returns the event service.
func (c *Container) Events() *features.EventService { return c.events }

// Tickets returns the ticket service.
func (c *Container) Tickets() *features.TicketService { return c.tickets }

// Organizations returns the cached organization repository.
func (c *Container) Organizations() *repositorycache.CachedRepository[*store.Organization] {
	return c.organizations
}

// Posts returns the cached event post repository.
func (c *Container) Posts() *repositorycache.CachedRepository[*store.Post] {
	return c.posts
}

// APIServices returns the services exposed over HTTP.
func (c *Container) APIServices() api.Services {
	return api.Services{
		Orchestrator:  c.orch,
		Auth:          c.auth,
		Profiles:      c.profiles,
		Events:        c.events,
		Tickets:       c.tickets,
		Organizations: c.organizations,
		Posts:         c.posts,
	}
}

// NewCachedRepository wraps base so its reads of entity go through the
// container's orchestrator.
//
// Since Go methods cannot have type parameters, this is provided as a
// package-level function.
func NewCachedRepository[T any](orch *orchestrator.Orchestrator, base repositorycache.Reader[T], entity fields.EntityType, opts ...repositorycache.Option[T]) *repositorycache.CachedRepository[T] {
	return repositorycache.New(base, orch, entity, opts...)
}
