package store

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repositories groups the go-repository-bun repositories of every entity.
type Repositories struct {
	Profiles      repository.Repository[*Profile]
	Organizations repository.Repository[*Organization]
	Events        repository.Repository[*Event]
	Tickets       repository.Repository[*Ticket]
	Posts         repository.Repository[*Post]
}

// NewRepositories builds the repositories over db.
func NewRepositories(db *bun.DB) Repositories {
	return Repositories{
		Profiles:      repository.NewRepository[*Profile](db, ProfileHandlers()),
		Organizations: repository.NewRepository[*Organization](db, OrganizationHandlers()),
		Events:        repository.NewRepository[*Event](db, EventHandlers()),
		Tickets:       repository.NewRepository[*Ticket](db, TicketHandlers()),
		Posts:         repository.NewRepository[*Post](db, PostHandlers()),
	}
}

// ProfileHandlers returns the model handlers for user_profiles.
func ProfileHandlers() repository.ModelHandlers[*Profile] {
	return repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID:         func(p *Profile, id uuid.UUID) { p.ID = id },
		GetIdentifier: func() string { return "username" },
	}
}

// OrganizationHandlers returns the model handlers for organizations.
func OrganizationHandlers() repository.ModelHandlers[*Organization] {
	return repository.ModelHandlers[*Organization]{
		NewRecord: func() *Organization { return &Organization{} },
		GetID: func(o *Organization) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID:         func(o *Organization, id uuid.UUID) { o.ID = id },
		GetIdentifier: func() string { return "slug" },
	}
}

// EventHandlers returns the model handlers for events.
func EventHandlers() repository.ModelHandlers[*Event] {
	return repository.ModelHandlers[*Event]{
		NewRecord: func() *Event { return &Event{} },
		GetID: func(e *Event) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID:         func(e *Event, id uuid.UUID) { e.ID = id },
		GetIdentifier: func() string { return "slug" },
	}
}

// TicketHandlers returns the model handlers for tickets.
func TicketHandlers() repository.ModelHandlers[*Ticket] {
	return repository.ModelHandlers[*Ticket]{
		NewRecord: func() *Ticket { return &Ticket{} },
		GetID: func(t *Ticket) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID:         func(t *Ticket, id uuid.UUID) { t.ID = id },
		GetIdentifier: func() string { return "qr_code" },
	}
}

// PostHandlers returns the model handlers for event_posts.
func PostHandlers() repository.ModelHandlers[*Post] {
	return repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID:         func(p *Post, id uuid.UUID) { p.ID = id },
		GetIdentifier: func() string { return "id" },
	}
}
