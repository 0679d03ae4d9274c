// Package kvstore provides the shared key-value store behind form
// snapshots and the settings record. The namespace holds one reserved
// "settings" key; every other key is a form key mapping to an opaque,
// atomically replaced snapshot blob. No cross-key transactions are offered
// or needed: concurrent writers race benignly to last-write-wins.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the contract consumed by the recovery core, the options UI, and
// the background sweeper.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// GetAll returns every entry in the namespace.
	GetAll(ctx context.Context) (map[string][]byte, error)
	// Set replaces the value under key in full.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes the given keys. Missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
	// Clear empties the namespace.
	Clear(ctx context.Context) error
}
