// Package store persists knowledge items and their secondary indexes over a
// plain key-value store.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no value. A missing value is "not
// found", never a store failure; store failures come back as their own errors.
var ErrNotFound = errors.New("store: key not found")

// KV is the key-value binding underneath the knowledge store. Index lists are
// stored as JSON string arrays under ordinary keys; ListAppend is atomic and
// dedups by membership, which is what keeps concurrent ingestions from losing
// index updates.
type KV interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes value at key with the given expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// ListGet returns the string list at key. A missing key is an empty list.
	ListGet(ctx context.Context, key string) ([]string, error)

	// ListAppend appends member to the list at key unless already present.
	// The append is atomic with respect to concurrent ListAppend calls on the
	// same key. Returns whether the member was added.
	ListAppend(ctx context.Context, key, member string, ttl time.Duration) (bool, error)

	// Ping verifies the binding is reachable.
	Ping(ctx context.Context) error

	// Close releases the binding.
	Close() error
}
