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

// TicketService reads the tickets of a user. Purchases and transfers are
// owned by the payment provider.
type TicketService struct {
	orch    *orchestrator.Orchestrator
	tickets *repositorycache.CachedRepository[*store.Ticket]
}

// NewTicketService creates a TicketService over a ticket reader.
func NewTicketService(orch *orchestrator.Orchestrator, tickets repositorycache.Reader[*store.Ticket]) *TicketService {
	return &TicketService{
		orch:    orch,
		tickets: repositorycache.New(tickets, orch, fields.EntityTicket),
	}
}

// ListUserTickets returns the tickets owned by ownerID with their event and
// tier.
func (s *TicketService) ListUserTickets(ctx context.Context, ownerID string, page Page) (envelope.Envelope[repositorycache.Page[*store.Ticket]], error) {
	owner := store.TicketOwner{OwnerID: ownerID}

	return s.tickets.List(ctx, repositorycache.ListQuery{
		Name: "listUserTickets",
		Check: func() error {
			return validation.Validate(ownerID, validation.Required, repositorycache.IsUUID)
		},
		Tier:     fields.TierFull,
		Limit:    page.Limit,
		Offset:   page.Offset,
		Filter:   owner,
		Criteria: owner.Criteria(),
	})
}

// Invalidate drops every cached ticket list of ownerID, typically after the
// payment provider reports a purchase.
func (s *TicketService) Invalidate(ctx context.Context, ownerID string) int {
	if ownerID == "" {
		return 0
	}
	return s.orch.InvalidateCache(ctx, s.ownerScope(ownerID))
}

// ownerScope renders the owner filter the way list and count keys embed it,
// hashed or not.
func (s *TicketService) ownerScope(ownerID string) string {
	return s.orch.Key("", store.TicketOwner{OwnerID: ownerID})
}
