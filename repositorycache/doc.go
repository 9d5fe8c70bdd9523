// Package repositorycache wraps go-repository-bun repositories so reads of an
// entity go through the orchestrator with tier aware cache keys.
//
// # Basic Usage
//
//	base := repository.NewRepository[*store.Profile](db, store.ProfileHandlers())
//	profiles := repositorycache.New[*store.Profile](base, orch, fields.EntityProfile)
//
//	env, err := profiles.GetByID(ctx, id, fields.TierFull)
//	page, err := profiles.List(ctx, repositorycache.ListQuery{Tier: fields.TierSearch, Limit: 20})
//
// # Keys
//
// Reads are keyed by entity, id and the resolved tier:
//
//	profile:<id>:full
//	event:list:search:20:0:{city=austin}
//	ticket:count:{owner_id=...}
//
// A tier the entity does not define resolves to fields.DefaultTier and shares
// its entry. List filters are part of the key, so ListQuery.Filter must
// describe ListQuery.Criteria completely.
//
// # Invalidation
//
// Update and Delete invalidate on success only. Invalidation is by substring:
// "profile:<id>" drops every tier of the record, "profile:list" and
// "profile:count" drop every window and total of the entity.
//
// # Errors
//
// Every method returns *envelope.ErrorEnvelope failures coded
// "<CONTEXT>_<OPERATION>_FAILED", e.g. PROFILES_GETPROFILE_FAILED. The
// context defaults to the plural entity name and can be changed with
// WithContext.
package repositorycache
