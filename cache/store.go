package cache

import (
	"context"
	"time"
)

// Entry is the unit stored under a serialized key. Entries are replaced
// wholesale on every write; readers never observe a partially updated
// value.
type Entry struct {
	// Value is the cached payload: a single record or a full list/search
	// result.
	Value any

	// FetchedAt is when the value was last confirmed against the source.
	FetchedAt time.Time

	// Invalid marks the entry as no longer trustworthy. An invalid entry
	// forces the next read to refetch but remains available as a stale
	// fallback if that refetch fails.
	Invalid bool
}

// Fresh reports whether the entry can be served without a refetch.
func (e Entry) Fresh(now time.Time, staleTime time.Duration) bool {
	return !e.Invalid && now.Sub(e.FetchedAt) < staleTime
}

// Store is the process-wide cache the executors read and write. Keys are
// serialized Key tuples. The query executor is the only reader-that-writes
// (storing fetch results); the mutation executor is the only other writer
// (optimistic applies, commits, rollbacks).
type Store interface {
	// Get returns the entry for key, refreshing its eviction deadline.
	Get(ctx context.Context, key string) (Entry, bool)

	// Set stores the entry, evicting it after ttl without reads.
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error

	// Delete removes the entry.
	Delete(ctx context.Context, key string) error

	// Invalidate marks the entry as untrustworthy without removing it.
	Invalidate(ctx context.Context, key string) error

	// InvalidatePrefix marks every entry whose key starts with prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error

	// KeysWithPrefix lists live keys starting with prefix. The mutation
	// executor uses it to find the cached list pages a write touches.
	KeysWithPrefix(ctx context.Context, prefix string) []string

	// Len reports the number of live entries.
	Len() int

	// Stop halts background eviction. The store remains usable.
	Stop()
}
