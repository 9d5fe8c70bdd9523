package repositorycache

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-tiered-service/envelope"
	"github.com/goliatone/go-tiered-service/fields"
	"github.com/goliatone/go-tiered-service/orchestrator"
)

// MaxLimit caps list page sizes.
const MaxLimit = 100

// DefaultLimit is used when a list query does not set a limit.
const DefaultLimit = 20

// Reader is the subset of repository.Repository[T] used by CachedRepository.
// Every go-repository-bun repository satisfies it.
type Reader[T any] interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error)
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
	Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error)
	Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error)
	Delete(ctx context.Context, record T) error
}

var _ Reader[any] = (repository.Repository[any])(nil)

// Page is a cached window of list results.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListQuery selects a window of records. Filter identifies the criteria in
// the cache key and must describe them completely; two queries with equal
// Filter values are assumed to return the same rows.
type ListQuery struct {
	// Name overrides the operation name, "list<Entity>s" by default.
	Name string
	// Check runs extra input validation before the cache is consulted.
	Check    func() error
	Tier     fields.Tier
	Limit    int
	Offset   int
	Filter   any
	Criteria []repository.SelectCriteria
}

func (q ListQuery) normalized() ListQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Validate checks pagination bounds.
func (q ListQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Limit, validation.Min(0), validation.Max(MaxLimit)),
		validation.Field(&q.Offset, validation.Min(0)),
	)
}

// CachedRepository routes reads of one entity type through the orchestrator
// with tier-aware fingerprints:
//
//	<entity>:<id>:<tier>
//	<entity>:list:<tier>:<limit>:<offset>[:<filter>]
//	<entity>:count[:<filter>]
//
// Successful writes invalidate every key of the written record and all list
// and count keys of the entity.
type CachedRepository[T any] struct {
	base    Reader[T]
	orch    *orchestrator.Orchestrator
	entity  fields.EntityType
	context string
	getID   func(T) string
}

// Option configures a CachedRepository.
type Option[T any] func(*CachedRepository[T])

// WithContext sets the orchestrator context used in error codes. Defaults to
// the plural entity name ("profiles").
func WithContext[T any](name string) Option[T] {
	return func(c *CachedRepository[T]) {
		if name != "" {
			c.context = name
		}
	}
}

// WithIDFunc sets how record ids are read for write invalidation.
func WithIDFunc[T any](fn func(T) string) Option[T] {
	return func(c *CachedRepository[T]) {
		if fn != nil {
			c.getID = fn
		}
	}
}

// New wraps base so reads of entity are cached by orch.
func New[T any](base Reader[T], orch *orchestrator.Orchestrator, entity fields.EntityType, opts ...Option[T]) *CachedRepository[T] {
	c := &CachedRepository[T]{
		base:    base,
		orch:    orch,
		entity:  entity,
		context: string(entity) + "s",
		getID:   extractID[T],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Entity returns the entity type served by the repository.
func (c *CachedRepository[T]) Entity() fields.EntityType {
	return c.entity
}

// GetByID returns the record with id selected at tier. Tiers the entity does
// not define fall back to fields.DefaultTier and share its cache entry.
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, tier fields.Tier) (envelope.Envelope[T], error) {
	profile, err := fields.Lookup(c.entity, tier)
	name := "get" + title(string(c.entity))

	return orchestrator.Run(ctx, c.orch, orchestrator.Operation[T]{
		Context: c.context,
		Name:    name,
		Key:     c.orch.Key(string(c.entity), id, profile.Tier),
		Validate: func() error {
			if err != nil {
				return err
			}
			return validation.Validate(id, validation.Required, IsUUID)
		},
		Fetch: func(ctx context.Context) (T, error) {
			return c.base.GetByID(ctx, id, profile.Criteria())
		},
	})
}

// List returns a page of records selected at q.Tier.
func (c *CachedRepository[T]) List(ctx context.Context, q ListQuery) (envelope.Envelope[Page[T]], error) {
	q = q.normalized()
	profile, err := fields.Lookup(c.entity, q.Tier)

	keyParts := []any{"list", profile.Tier, q.Limit, q.Offset}
	if q.Filter != nil {
		keyParts = append(keyParts, q.Filter)
	}

	name := q.Name
	if name == "" {
		name = "list" + title(string(c.entity)) + "s"
	}

	return orchestrator.Run(ctx, c.orch, orchestrator.Operation[Page[T]]{
		Context: c.context,
		Name:    name,
		Key:     c.orch.Key(string(c.entity), keyParts...),
		Validate: func() error {
			if err != nil {
				return err
			}
			if q.Check != nil {
				if err := q.Check(); err != nil {
					return err
				}
			}
			return q.Validate()
		},
		Fetch: func(ctx context.Context) (Page[T], error) {
			criteria := make([]repository.SelectCriteria, 0, len(q.Criteria)+2)
			criteria = append(criteria, profile.Criteria())
			criteria = append(criteria, q.Criteria...)
			criteria = append(criteria, paginate(q.Limit, q.Offset))

			items, total, err := c.base.List(ctx, criteria...)
			if err != nil {
				return Page[T]{}, err
			}
			return Page[T]{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
		},
		Meta: func(p Page[T]) *envelope.Meta {
			return envelope.Page(p.Total, p.Limit, p.Offset, len(p.Items))
		},
	})
}

// Count returns the number of records matching filter and criteria.
func (c *CachedRepository[T]) Count(ctx context.Context, filter any, criteria ...repository.SelectCriteria) (envelope.Envelope[int], error) {
	keyParts := []any{"count"}
	if filter != nil {
		keyParts = append(keyParts, filter)
	}

	return orchestrator.Run(ctx, c.orch, orchestrator.Operation[int]{
		Context: c.context,
		Name:    "count" + title(string(c.entity)) + "s",
		Key:     c.orch.Key(string(c.entity), keyParts...),
		Fetch: func(ctx context.Context) (int, error) {
			return c.base.Count(ctx, criteria...)
		},
	})
}

// Update writes record and invalidates its cached reads on success.
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (envelope.Envelope[T], error) {
	return orchestrator.Run(ctx, c.orch, orchestrator.Operation[T]{
		Context: c.context,
		Name:    "update" + title(string(c.entity)),
		Validate: func() error {
			return validation.Validate(c.getID(record), validation.Required, IsUUID)
		},
		Fetch: func(ctx context.Context) (T, error) {
			updated, err := c.base.Update(ctx, record, criteria...)
			if err != nil {
				return updated, err
			}
			c.invalidateRecord(ctx, c.getID(record))
			return updated, nil
		},
	})
}

// Delete removes record and invalidates its cached reads on success.
func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	_, err := orchestrator.Run(ctx, c.orch, orchestrator.Operation[struct{}]{
		Context: c.context,
		Name:    "delete" + title(string(c.entity)),
		Validate: func() error {
			return validation.Validate(c.getID(record), validation.Required, IsUUID)
		},
		Fetch: func(ctx context.Context) (struct{}, error) {
			if err := c.base.Delete(ctx, record); err != nil {
				return struct{}{}, err
			}
			c.invalidateRecord(ctx, c.getID(record))
			return struct{}{}, nil
		},
	})
	return err
}

// Invalidate drops every cached read of the record with id, and every list
// and count of the entity. It returns the number of keys removed.
func (c *CachedRepository[T]) Invalidate(ctx context.Context, id string) int {
	return c.invalidateRecord(ctx, id)
}

func (c *CachedRepository[T]) invalidateRecord(ctx context.Context, id string) int {
	entity := string(c.entity)
	removed := 0
	if id != "" {
		removed += c.orch.InvalidateCache(ctx, c.orch.Key(entity, id))
	}
	removed += c.orch.InvalidateCache(ctx, c.orch.Key(entity, "list"))
	removed += c.orch.InvalidateCache(ctx, c.orch.Key(entity, "count"))
	return removed
}

// IsUUID validates that a string value is a canonical uuid.
var IsUUID = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_is_uuid", "must be a valid UUID")
	}
	return nil
})

func paginate(limit, offset int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(limit).Offset(offset)
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// extractID reads an ID field from a record using reflection.
func extractID[T any](record T) string {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}

	for _, fieldName := range []string{"ID", "Id"} {
		field := v.FieldByName(fieldName)
		if !field.IsValid() || !field.CanInterface() {
			continue
		}
		if id, ok := field.Interface().(uuid.UUID); ok {
			if id == uuid.Nil {
				return ""
			}
			return id.String()
		}
		return fmt.Sprintf("%v", field.Interface())
	}
	return ""
}
