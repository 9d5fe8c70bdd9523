// Package store holds the bun models of the remote store and their
// go-repository-bun repositories. Column names match the field profiles in
// package fields.
package store
