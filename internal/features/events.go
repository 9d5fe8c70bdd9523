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

// Page is a requested list window.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// EventService reads events.
type EventService struct {
	events *repositorycache.CachedRepository[*store.Event]
}

// NewEventService creates an EventService over an event reader.
func NewEventService(orch *orchestrator.Orchestrator, events repositorycache.Reader[*store.Event]) *EventService {
	return &EventService{
		events: repositorycache.New(events, orch, fields.EntityEvent),
	}
}

// GetEvent returns the event with id at tier.
func (s *EventService) GetEvent(ctx context.Context, id string, tier fields.Tier) (envelope.Envelope[*store.Event], error) {
	return s.events.GetByID(ctx, id, tier)
}

// ListEvents returns a window of events matching filter, upcoming first.
func (s *EventService) ListEvents(ctx context.Context, filter store.EventFilter, page Page, tier fields.Tier) (envelope.Envelope[repositorycache.Page[*store.Event]], error) {
	var key any
	if !filter.IsZero() {
		key = filter
	}

	return s.events.List(ctx, repositorycache.ListQuery{
		Check: func() error {
			return validation.ValidateStruct(&filter,
				validation.Field(&filter.OrganizerID, repositorycache.IsUUID),
				validation.Field(&filter.City, validation.Length(0, 64)),
				validation.Field(&filter.Category, validation.Length(0, 64)),
				validation.Field(&filter.Status, validation.In("draft", "published", "cancelled", "completed")),
			)
		},
		Tier:     tier,
		Limit:    page.Limit,
		Offset:   page.Offset,
		Filter:   key,
		Criteria: filter.Criteria(),
	})
}

// Invalidate drops cached reads of event id and every event list.
func (s *EventService) Invalidate(ctx context.Context, id string) int {
	return s.events.Invalidate(ctx, id)
}
