package features

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-tiered-service/envelope"
	"github.com/goliatone/go-tiered-service/fields"
	"github.com/goliatone/go-tiered-service/internal/store"
	"github.com/goliatone/go-tiered-service/orchestrator"
)

const authContext = "auth"

// ProfileGetter loads a single profile by criteria. Every
// repository.Repository[*store.Profile] satisfies it.
type ProfileGetter interface {
	Get(ctx context.Context, criteria ...repository.SelectCriteria) (*store.Profile, error)
}

// AuthService resolves the signed in user. Identity itself is owned by the
// managed auth provider; user ids are opaque strings.
type AuthService struct {
	orch     *orchestrator.Orchestrator
	profiles ProfileGetter
}

// NewAuthService creates an AuthService.
func NewAuthService(orch *orchestrator.Orchestrator, profiles ProfileGetter) *AuthService {
	return &AuthService{orch: orch, profiles: profiles}
}

// GetCurrentUser returns the profile of userID, cached under auth:user:<id>.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (envelope.Envelope[*store.Profile], error) {
	profile := fields.MustLookup(fields.EntityProfile, fields.TierEnhanced)

	return orchestrator.Run(ctx, s.orch, orchestrator.Operation[*store.Profile]{
		Context: authContext,
		Name:    "getCurrentUser",
		Key:     CurrentUserKey(s.orch, userID),
		Validate: func() error {
			return validation.Validate(userID, validation.Required, validation.Length(1, 128))
		},
		Fetch: func(ctx context.Context) (*store.Profile, error) {
			return s.profiles.Get(ctx, profile.Criteria(), func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.user_id = ?", userID)
			})
		},
	})
}

// SignOut drops every cached response. Use it when the cache belongs to a
// single session, as in a client process.
func (s *AuthService) SignOut(ctx context.Context) {
	s.orch.ClearCache(ctx)
}

// SignOutUser drops the cached current user entry of userID and leaves
// entries shared with other users in place. It returns the number of keys
// removed.
func (s *AuthService) SignOutUser(ctx context.Context, userID string) (int, error) {
	if err := validation.Validate(userID, validation.Required, validation.Length(1, 128)); err != nil {
		return 0, envelope.Validation(err, authContext, "signOut")
	}
	return s.orch.InvalidateCache(ctx, CurrentUserKey(s.orch, userID)), nil
}

// CurrentUserKey is the cache key of the current user lookup.
func CurrentUserKey(orch *orchestrator.Orchestrator, userID string) string {
	return orch.Key(authContext, "user", userID)
}
