package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-tiered-service/internal/features"
	"github.com/goliatone/go-tiered-service/internal/store"
	"github.com/goliatone/go-tiered-service/orchestrator"
	"github.com/goliatone/go-tiered-service/repositorycache"
)

// Services are the feature services exposed over HTTP.
type Services struct {
	Orchestrator *orchestrator.Orchestrator
	Auth         *features.AuthService
	Profiles     *features.ProfileService
	Events       *features.EventService
	Tickets      *features.TicketService

	Organizations *repositorycache.CachedRepository[*store.Organization]
	Posts         *repositorycache.CachedRepository[*store.Post]
}

// Server serves the read API.
type Server struct {
	router   *gin.Engine
	handlers *Handlers
	logger   zerolog.Logger
	started  time.Time
}

// NewServer builds the gin engine with logging, metrics and recovery
// middleware and registers every route.
func NewServer(svc Services, logger zerolog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(RequestMetrics())
	r.Use(CacheControl())

	s := &Server{
		router:   r,
		handlers: NewHandlers(svc),
		logger:   logger,
		started:  time.Now(),
	}
	s.RegisterRoutes()
	return s
}

// Handler exposes the engine, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RegisterRoutes wires every endpoint.
func (s *Server) RegisterRoutes() {
	h := s.handlers

	s.router.GET("/healthz", func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": "tiered-api",
		}
		if rc := h.svc.Orchestrator.Cache(); rc != nil {
			body["cache"] = rc.Stats()
		}
		c.JSON(http.StatusOK, body)
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/me", h.CurrentUser)
	s.router.POST("/signout", h.SignOut)

	s.router.GET("/profiles", h.SearchProfiles)
	s.router.GET("/profiles/:id", h.GetProfile)
	s.router.PUT("/profiles/:id", h.UpdateProfile)

	s.router.GET("/events", h.ListEvents)
	s.router.GET("/events/:id", h.GetEvent)

	s.router.GET("/users/:id/tickets", h.ListUserTickets)

	if h.svc.Organizations != nil {
		s.router.GET("/organizations/:id", getByID(h.svc.Organizations))
	}
	if h.svc.Posts != nil {
		s.router.GET("/posts/:id", getByID(h.svc.Posts))
	}

	s.router.DELETE("/cache", h.InvalidateCache)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
