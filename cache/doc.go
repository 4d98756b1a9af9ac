// Package cache defines the cache model shared by the query and mutation
// executors: composite tuple keys, staleness/eviction policies, and the
// Store contract.
//
// # Overview
//
// The package exports three pieces:
//
//   - Key and KeySerializer: ordered tuple keys and their deterministic
//     string form
//   - Policy: per-operation staleness, eviction, and retry configuration
//   - Store and Entry: the process-wide key/value store contract
//
// # Keys
//
// Cache keys are ordered tuples starting with the entity name and the
// operation name, followed by the parameters that distinguish one result
// from another. List keys embed the full list parameters so distinct
// page/filter/sort combinations occupy distinct cache slots:
//
//	cache.ListKey("user", params)   // ["user", "list", {...}]
//	cache.GetKey("user", "u1")      // ["user", "get", "u1"]
//	cache.SearchKey("user", params) // ["user", "search", {...}]
//
// The default serializer walks segments with reflection: maps are
// serialized with sorted keys, structs by exported field, and anything
// else falls back to JSON. Oversized segments are replaced with an xxhash
// digest so the store never sees unbounded keys.
//
// # Staleness vs eviction
//
// A cached entry has two clocks. Within StaleTime of its last fetch it is
// served without touching the transport. Past StaleTime it is refetched on
// the next read but kept as a stale fallback should that refetch fail.
// After GCTime without any read the store discards it entirely.
//
// # Invalidation
//
// Invalidate marks an entry untrustworthy without dropping its value: the
// next read must refetch, but the old value still backs the
// stale-but-available degradation path.
package cache
