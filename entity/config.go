package entity

import (
	"context"

	"github.com/goliatone/go-entity-client/cache"
)

// QueryConfig wires one cached read operation: the key function, the
// transport-bound fetcher, and the cache policy governing staleness and
// retries. Built once by the resolver and treated as read-only afterwards.
type QueryConfig[T any, P any] struct {
	// Key computes the cache key for a given set of parameters.
	Key func(params P) cache.Key

	// Fetch performs the transport call.
	Fetch func(ctx context.Context, params P) (T, error)

	// Transform, when set, post-processes fetched data before caching.
	Transform func(T) T

	// Policy is the staleness/eviction/retry policy for this operation.
	Policy cache.Policy
}

// MutationConfig wires one write operation: the transport call, the
// optimistic projection, the keys it invalidates on commit, and the
// lifecycle callbacks. Built once by the resolver and treated as
// read-only afterwards.
type MutationConfig[T any, V any] struct {
	// Key names this mutation for logging and diagnostics.
	Key cache.Key

	// Fn performs the transport call.
	Fn func(ctx context.Context, vars V) (T, error)

	// Optimistic computes the speculative result written into the cache
	// before Fn resolves. prev is the currently cached record (zero for
	// creates). Nil disables the optimistic apply for this mutation.
	Optimistic func(prev T, vars V) (T, error)

	// Invalidates lists cache key prefixes marked untrustworthy after a
	// successful commit. Always includes the entity's list prefix.
	Invalidates []cache.Key

	// OnMutate runs after the snapshot, before the optimistic apply. An
	// error aborts the mutation without calling the transport.
	OnMutate func(ctx context.Context, vars V) error

	// OnSuccess runs after a successful commit.
	OnSuccess func(ctx context.Context, result T, vars V)

	// OnError runs after a rollback or abort.
	OnError func(ctx context.Context, err error, vars V)

	// OnSettled always runs last, on success and failure alike. Cleanup
	// belongs here.
	OnSettled func(ctx context.Context, vars V)
}

// Config is the resolved, transport-bound bundle for one entity type.
// Built once (typically at startup) and reused for the process lifetime;
// nil operation configs mean the operation was not configured.
type Config[T any] struct {
	Metadata Metadata

	List   *QueryConfig[ListResult[T], ListParams]
	Get    *QueryConfig[T, ID]
	Search *QueryConfig[SearchResult[T], SearchParams]

	Create *MutationConfig[T, T]
	Update *MutationConfig[T, UpdateVars]
	Delete *MutationConfig[struct{}, ID]

	// ExtraQueries and ExtraMutations hold custom operations accumulated
	// through a resolver.Builder, keyed by operation name. Values are
	// *QueryConfig[...] / *MutationConfig[...] of caller-known shapes.
	ExtraQueries   map[string]any
	ExtraMutations map[string]any
}
