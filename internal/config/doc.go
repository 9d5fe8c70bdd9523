// Package config loads tiered-api settings from a TOML file over defaults.
// Only keys present in the file override a default; TIERED_DATABASE_DSN
// overrides the database DSN.
package config
