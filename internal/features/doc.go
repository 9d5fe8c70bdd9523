// Package features holds the feature services that consume the tiered
// read layer: auth, profiles, events and tickets. Every call is validated
// before the cache or the store is touched and fails with an
// *envelope.ErrorEnvelope.
package features
