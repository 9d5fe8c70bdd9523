package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-tiered-service/envelope"
	"github.com/goliatone/go-tiered-service/fields"
	"github.com/goliatone/go-tiered-service/internal/features"
	"github.com/goliatone/go-tiered-service/internal/store"
	"github.com/goliatone/go-tiered-service/repositorycache"
)

type pageParams struct {
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
	Tier   string `form:"tier"`
}

func (p pageParams) page() features.Page {
	return features.Page{Limit: p.Limit, Offset: p.Offset}
}

type eventParams struct {
	pageParams
	Organizer string `form:"organizer"`
	City      string `form:"city"`
	Category  string `form:"category"`
	Status    string `form:"status"`
}

type searchParams struct {
	pageParams
	Query string `form:"q"`
}

// Handlers adapts feature services to gin handlers.
type Handlers struct {
	svc Services
}

// NewHandlers creates Handlers over svc.
func NewHandlers(svc Services) *Handlers {
	return &Handlers{svc: svc}
}

// CurrentUser serves GET /me.
func (h *Handlers) CurrentUser(c *gin.Context) {
	env, err := h.svc.Auth.GetCurrentUser(c.Request.Context(), c.GetHeader(HeaderUserID))
	respond(c, env, err)
}

// SignOut serves POST /signout. Only the caller's current user entry is
// dropped; the cache is shared by every user of the server.
func (h *Handlers) SignOut(c *gin.Context) {
	if _, err := h.svc.Auth.SignOutUser(c.Request.Context(), c.GetHeader(HeaderUserID)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProfile serves GET /profiles/:id?tier=.
func (h *Handlers) GetProfile(c *gin.Context) {
	tier := fields.ParseTier(c.Query("tier"))
	env, err := h.svc.Profiles.GetProfile(c.Request.Context(), c.Param("id"), tier)
	respond(c, env, err)
}

// SearchProfiles serves GET /profiles?q=&limit=&offset=.
func (h *Handlers) SearchProfiles(c *gin.Context) {
	var params searchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		fail(c, envelope.Validation(err, "profiles", "searchProfiles"))
		return
	}
	env, err := h.svc.Profiles.SearchProfiles(c.Request.Context(), params.Query, params.page())
	respond(c, env, err)
}

// UpdateProfile serves PUT /profiles/:id with a JSON profile body.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, envelope.Validation(validation.Errors{"id": err}, "profiles", "updateProfile"))
		return
	}

	var profile store.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		fail(c, envelope.Validation(err, "profiles", "updateProfile"))
		return
	}
	profile.ID = id

	env, err := h.svc.Profiles.UpdateProfile(c.Request.Context(), &profile)
	respond(c, env, err)
}

// GetEvent serves GET /events/:id?tier=.
func (h *Handlers) GetEvent(c *gin.Context) {
	tier := fields.ParseTier(c.Query("tier"))
	env, err := h.svc.Events.GetEvent(c.Request.Context(), c.Param("id"), tier)
	respond(c, env, err)
}

// ListEvents serves GET /events with pagination and filter params.
func (h *Handlers) ListEvents(c *gin.Context) {
	var params eventParams
	if err := c.ShouldBindQuery(&params); err != nil {
		fail(c, envelope.Validation(err, "events", "listEvents"))
		return
	}

	filter := store.EventFilter{
		OrganizerID: params.Organizer,
		City:        params.City,
		Category:    params.Category,
		Status:      params.Status,
	}
	env, err := h.svc.Events.ListEvents(c.Request.Context(), filter, params.page(), fields.ParseTier(params.Tier))
	respond(c, env, err)
}

// ListUserTickets serves GET /users/:id/tickets.
func (h *Handlers) ListUserTickets(c *gin.Context) {
	var params pageParams
	if err := c.ShouldBindQuery(&params); err != nil {
		fail(c, envelope.Validation(err, "tickets", "listUserTickets"))
		return
	}
	env, err := h.svc.Tickets.ListUserTickets(c.Request.Context(), c.Param("id"), params.page())
	respond(c, env, err)
}

// InvalidateCache serves DELETE /cache?pattern=. The pattern is required so
// a request never clears the cache shared by every user.
func (h *Handlers) InvalidateCache(c *gin.Context) {
	pattern := c.Query("pattern")
	if err := validation.Validate(pattern, validation.Required); err != nil {
		fail(c, envelope.Validation(validation.Errors{"pattern": err}, "cache", "invalidate"))
		return
	}

	removed := h.svc.Orchestrator.InvalidateCache(c.Request.Context(), pattern)
	c.JSON(http.StatusOK, gin.H{"pattern": pattern, "removed": removed})
}

// getByID serves GET /<entities>/:id?tier= straight from a cached
// repository.
func getByID[T any](repo *repositorycache.CachedRepository[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		env, err := repo.GetByID(c.Request.Context(), c.Param("id"), fields.ParseTier(c.Query("tier")))
		respond(c, env, err)
	}
}

func respond[T any](c *gin.Context, env envelope.Envelope[T], err error) {
	if err != nil {
		fail(c, err)
		return
	}

	if env.Meta != nil && env.Meta.Cached {
		c.Header(HeaderCache, "HIT")
	} else {
		c.Header(HeaderCache, "MISS")
	}
	c.JSON(http.StatusOK, env)
}

func fail(c *gin.Context, err error) {
	var env *envelope.ErrorEnvelope
	if !errors.As(err, &env) {
		env = envelope.Normalize(err, "api", "request")
	}
	c.AbortWithStatusJSON(env.HTTPStatus(), gin.H{"error": env})
}
