// Package resolver turns declarative entity definitions into the
// transport-bound, cache-wired configs the executors run.
//
// A Definition names the entity, picks a transport (REST with a base
// endpoint, or server actions with a map of functions), and optionally
// overrides endpoints, cache policies, and operation availability.
// Resolve produces one QueryConfig per readable operation and one
// MutationConfig per writable operation, each with its cache key
// function, fetcher, and policy:
//
//	cfg, err := resolver.Resolve(resolver.Definition[User]{
//		Name:         "user",
//		Transport:    resolver.KindREST,
//		BaseEndpoint: "https://api.example.com/users",
//	})
//
// Inclusion policy: HTTP operations are enabled unless explicitly
// disabled; server-action operations exist iff a function was supplied —
// absence simply omits the capability.
//
// The Registry replaces validator-keyed global state with an explicit
// object: register definitions at startup, Freeze, then resolve by
// validator identity with ResolveFromRegistry. The Builder accumulates
// custom named operations and finalizes once into the same immutable
// config shape.
package resolver
