package fields

import (
	"errors"
	"fmt"
	"strings"
)

// EntityType identifies a backing table family that has field profiles.
type EntityType string

const (
	EntityProfile      EntityType = "profile"
	EntityEvent        EntityType = "event"
	EntityTicket       EntityType = "ticket"
	EntityOrganization EntityType = "organization"
	EntityPost         EntityType = "post"
)

// Tier is a named level of field-selection detail.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierEnhanced Tier = "enhanced"
	TierFull     Tier = "full"
	TierSearch   Tier = "search"
	TierSocial   Tier = "social"
)

// DefaultTier is used whenever a requested tier is not defined for an entity.
const DefaultTier = TierEnhanced

// ErrUnknownEntity is returned by Lookup for entity types without profiles.
var ErrUnknownEntity = errors.New("fields: unknown entity type")

// Field is a column name on the backing table. Only the constants declared in
// entities.go are ever used, callers cannot inject their own.
type Field string

// Relation is a nested sub-selection over a related table.
type Relation struct {
	// Table is the related table name used in select strings.
	Table string
	// Model is the relation name on the bun model.
	Model  string
	Fields []FieldSpec
}

// FieldSpec is either a scalar column or a nested relation.
type FieldSpec struct {
	Name     Field
	Relation *Relation
}

// IsRelation reports whether the field selects a related table.
func (f FieldSpec) IsRelation() bool {
	return f.Relation != nil
}

// String renders the field using the select string syntax.
func (f FieldSpec) String() string {
	if f.Relation == nil {
		return string(f.Name)
	}
	parts := make([]string, len(f.Relation.Fields))
	for i, sub := range f.Relation.Fields {
		parts[i] = sub.String()
	}
	return fmt.Sprintf("%s:%s(%s)", f.Name, f.Relation.Table, strings.Join(parts, ","))
}

// Profile is the ordered field selection for an entity at a given tier.
type Profile struct {
	Entity EntityType
	Tier   Tier
	Fields []FieldSpec
	// Fallback is true when the requested tier was not defined and
	// DefaultTier was returned instead.
	Fallback bool
}

// Names returns the scalar column names in order.
func (p Profile) Names() []string {
	names := make([]string, 0, len(p.Fields))
	for _, f := range p.Fields {
		if f.IsRelation() {
			continue
		}
		names = append(names, string(f.Name))
	}
	return names
}

// Relations returns the nested selections in order.
func (p Profile) Relations() []FieldSpec {
	var rels []FieldSpec
	for _, f := range p.Fields {
		if f.IsRelation() {
			rels = append(rels, f)
		}
	}
	return rels
}

// Select renders the profile as a select string, e.g.
// "id,title,organizer:user_profiles(id,display_name)".
func (p Profile) Select() string {
	parts := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

// Contains reports whether every field of other is present in p.
func (p Profile) Contains(other Profile) bool {
	have := make(map[string]struct{}, len(p.Fields))
	for _, f := range p.Fields {
		have[f.String()] = struct{}{}
	}
	for _, f := range other.Fields {
		if _, ok := have[f.String()]; !ok {
			return false
		}
	}
	return true
}

// ParseTier normalizes user input into a Tier. Unknown values are returned
// as-is so Lookup can apply the fallback.
func ParseTier(raw string) Tier {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultTier
	}
	return Tier(raw)
}

// Lookup returns the field profile for entity at tier. A tier that is not
// defined for the entity falls back to DefaultTier.
func Lookup(entity EntityType, tier Tier) (Profile, error) {
	tiers, ok := registry[entity]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}

	fallback := false
	specs, ok := tiers[tier]
	if !ok {
		specs = tiers[DefaultTier]
		tier = DefaultTier
		fallback = true
	}

	return Profile{
		Entity:   entity,
		Tier:     tier,
		Fields:   cloneSpecs(specs),
		Fallback: fallback,
	}, nil
}

// MustLookup is like Lookup but panics on unknown entities.
func MustLookup(entity EntityType, tier Tier) Profile {
	p, err := Lookup(entity, tier)
	if err != nil {
		panic(err)
	}
	return p
}

// Entities lists the entity types with registered profiles in a stable order.
func Entities() []EntityType {
	return append([]EntityType(nil), entityOrder...)
}

// Tiers lists the tiers explicitly defined for entity.
func Tiers(entity EntityType) []Tier {
	tiers := registry[entity]
	out := make([]Tier, 0, len(tiers))
	for _, t := range tierOrder {
		if _, ok := tiers[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

func cloneSpecs(in []FieldSpec) []FieldSpec {
	out := make([]FieldSpec, len(in))
	for i, f := range in {
		out[i] = FieldSpec{Name: f.Name}
		if f.Relation != nil {
			out[i].Relation = &Relation{
				Table:  f.Relation.Table,
				Model:  f.Relation.Model,
				Fields: cloneSpecs(f.Relation.Fields),
			}
		}
	}
	return out
}
