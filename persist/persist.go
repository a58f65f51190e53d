// Package persist defines the durability contract Cache's optional second
// tier implements, plus concrete backends: a local-file store, Google
// Cloud Datastore, Valkey/Redis, and a Cloud Run auto-selector between the
// first two.
//
// Persistence is always best-effort from Cache's point of view: memory is
// authoritative, and a Store failure is logged and surfaced as an error to
// the caller without ever discarding the in-memory write.
package persist

import (
	"context"
	"time"
)

// Store is the durability contract a Cache persistence backend must
// satisfy. Every backend in this package implements it.
type Store[K comparable, V any] interface {
	// ValidateKey rejects keys the backend cannot address (empty or
	// over-length keys, per each backend's own limits) before any network
	// or filesystem call is attempted.
	ValidateKey(key K) error

	// Get returns the stored value, its expiry (zero if the entry never
	// expires), and whether it was found. A not-found entry is not an
	// error.
	Get(ctx context.Context, key K) (value V, expiry time.Time, found bool, err error)

	// Set stores value under key with the given expiry (zero means no
	// expiration).
	Set(ctx context.Context, key K, value V, expiry time.Time) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key K) error

	// Cleanup deletes entries whose expiry passed more than maxAge ago and
	// reports how many were removed; entries with no expiry are kept.
	// Backends with native TTL support may implement this as a no-op.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)

	// Location returns a backend-specific human-readable address for key,
	// for logging and diagnostics only.
	Location(key K) string

	// Flush deletes every entry this store owns and reports how many were
	// removed.
	Flush(ctx context.Context) (int, error)

	// Len reports the current number of entries in the store.
	Len(ctx context.Context) (int, error)

	// Close releases any held resources (client connections, file
	// handles).
	Close() error
}

// EntryLister is an optional capability a Store may implement to support
// Cache's warmup pass. Backends that cannot enumerate their keys cheaply
// (Valkey, Datastore) don't implement it, and Cache simply skips warmup
// for them.
type EntryLister[K comparable, V any] interface {
	// Entries streams every live (non-expired) entry the store holds.
	// The error channel carries at most one error, sent once the walk ends
	// and before either channel is closed.
	Entries(ctx context.Context) (<-chan Entry[K, V], <-chan error)
}

// Entry is the serialization envelope localfs writes to disk, and the item
// EntryLister streams for warmup: the cached value plus the bookkeeping
// needed to reconstruct expiry. Datastore uses its own record type.
type Entry[K comparable, V any] struct {
	Key       K
	Value     V
	Expiry    time.Time
	UpdatedAt time.Time
}
