package features

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-tiered-service/envelope"
	"github.com/goliatone/go-tiered-service/fields"
	"github.com/goliatone/go-tiered-service/internal/store"
	"github.com/goliatone/go-tiered-service/orchestrator"
	"github.com/goliatone/go-tiered-service/repositorycache"
)

// ProfileService reads and updates user profiles.
type ProfileService struct {
	orch     *orchestrator.Orchestrator
	profiles *repositorycache.CachedRepository[*store.Profile]
}

// NewProfileService creates a ProfileService over a profile reader.
func NewProfileService(orch *orchestrator.Orchestrator, profiles repositorycache.Reader[*store.Profile]) *ProfileService {
	return &ProfileService{
		orch:     orch,
		profiles: repositorycache.New(profiles, orch, fields.EntityProfile),
	}
}

// GetProfile returns the profile with id at tier.
func (s *ProfileService) GetProfile(ctx context.Context, id string, tier fields.Tier) (envelope.Envelope[*store.Profile], error) {
	return s.profiles.GetByID(ctx, id, tier)
}

// SearchProfiles matches profiles by display name or username using the
// search tier.
func (s *ProfileService) SearchProfiles(ctx context.Context, query string, page Page) (envelope.Envelope[repositorycache.Page[*store.Profile]], error) {
	search := store.ProfileSearch{Query: query}

	return s.profiles.List(ctx, repositorycache.ListQuery{
		Name: "searchProfiles",
		Check: func() error {
			return validation.Validate(search.Query, validation.Required, validation.Length(2, 64))
		},
		Tier:     fields.TierSearch,
		Limit:    page.Limit,
		Offset:   page.Offset,
		Filter:   search,
		Criteria: search.Criteria(),
	})
}

// UpdateProfile writes the non-zero fields of profile and invalidates its
// cached reads, including the current user entry of its owner. The owner is
// read from the updated row, so profile may omit user_id.
func (s *ProfileService) UpdateProfile(ctx context.Context, profile *store.Profile) (envelope.Envelope[*store.Profile], error) {
	env, err := s.profiles.Update(ctx, profile)
	if err != nil {
		return env, err
	}

	owner := profile.UserID
	if env.Data != nil && env.Data.UserID != "" {
		owner = env.Data.UserID
	}
	if owner != "" {
		s.orch.InvalidateCache(ctx, CurrentUserKey(s.orch, owner))
	}
	return env, nil
}
