// Package fields holds the static field-selection profiles used to build
// partial projections against the backing store.
//
// Each entity type defines a set of tiers. Tiers are composed at package init:
//
//	enhanced = basic + scalar fields
//	full     = enhanced + nested relations
//	search   = basic + search columns
//	social   = basic + counters
//
// so every "full" profile contains its "enhanced" profile, which contains its
// "basic" profile. A tier that an entity does not define resolves to
// DefaultTier (enhanced) and the returned Profile has Fallback set.
//
// Profiles render two ways:
//
//	p := fields.MustLookup(fields.EntityEvent, fields.TierFull)
//	p.Select()   // "id,title,...,organizer:user_profiles(id,display_name,avatar_url),..."
//	p.Criteria() // repository.SelectCriteria applying Column/Relation on a bun query
//
// Field names are compile time constants. There is no API that accepts a
// caller supplied column name.
package fields
