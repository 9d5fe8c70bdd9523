package store

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// EventFilter narrows event lists. Its fields are part of the list cache key.
type EventFilter struct {
	OrganizerID string `json:"organizer_id,omitempty"`
	City        string `json:"city,omitempty"`
	Category    string `json:"category,omitempty"`
	Status      string `json:"status,omitempty"`
}

// IsZero reports whether no filter is set.
func (f EventFilter) IsZero() bool {
	return f == EventFilter{}
}

// Criteria converts the filter into select criteria, upcoming events first.
func (f EventFilter) Criteria() []repository.SelectCriteria {
	criteria := []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("start_at ASC")
		},
	}
	if f.OrganizerID != "" {
		criteria = append(criteria, whereEq("organizer_id", f.OrganizerID))
	}
	if f.City != "" {
		criteria = append(criteria, whereEq("city", f.City))
	}
	if f.Category != "" {
		criteria = append(criteria, whereEq("category", f.Category))
	}
	if f.Status != "" {
		criteria = append(criteria, whereEq("status", f.Status))
	}
	return criteria
}

// ProfileSearch matches profiles by display name or username.
type ProfileSearch struct {
	Query string `json:"q"`
}

// Criteria returns a case insensitive match on display_name or username.
func (s ProfileSearch) Criteria() []repository.SelectCriteria {
	pattern := "%" + escapeLike(strings.TrimSpace(s.Query)) + "%"
	return []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					Where("?TableAlias.display_name ILIKE ?", pattern).
					WhereOr("?TableAlias.username ILIKE ?", pattern)
			}).Order("display_name ASC")
		},
	}
}

// TicketOwner selects the tickets of one owner, newest first.
type TicketOwner struct {
	OwnerID string `json:"owner_id"`
}

// Criteria filters tickets by owner.
func (o TicketOwner) Criteria() []repository.SelectCriteria {
	return []repository.SelectCriteria{
		whereEq("owner_id", o.OwnerID),
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("purchased_at DESC")
		},
	}
}

func whereEq(column, value string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
