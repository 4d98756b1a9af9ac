// Package entityops runs resolved entity configs: the query executor for
// cached reads and the mutation executor for optimistic writes, combined
// into one Ops facade per entity type.
//
// # Read path
//
// A read computes its cache key, serves a fresh cache hit without a
// network call, and otherwise fetches through singleflight so concurrent
// callers for the same key share one transport invocation. Transient
// failures retry with exponential backoff (base * 2^attempt, clamped).
// When retries are exhausted any previously cached value stays in place
// and is returned stale alongside the error; good data is never cleared
// by a failed refetch. Gated reads — get with an empty id, search with an
// empty query — never call the transport and report Disabled, not an
// error.
//
// # Write path
//
// A write runs a four-phase protocol: snapshot the affected cache
// entries, apply the optimistic projection, await the transport and
// either commit the authoritative result (updating the single-item entry
// and invalidating or touching cached lists) or restore the exact
// snapshot, then settle. The tagged Outcome carries the snapshot and the
// phase result so the protocol can be audited and tested in isolation.
// A failed write always leaves the cache exactly as it was before the
// attempt.
//
// Phases 1-2 and commit/rollback hold a per-target lock while the
// transport await does not, so a second mutation on the same target
// snapshots the first one's post-optimistic state and its rollback never
// erases still-pending speculative writes.
package entityops
