package resolver

import (
	"context"
	"time"

	"github.com/goliatone/go-entity-client/cache"
	"github.com/goliatone/go-entity-client/entity"
	"github.com/goliatone/go-entity-client/transport"
)

// Kind selects the transport strategy for an entity definition.
type Kind string

const (
	// KindREST executes operations against an HTTP backend.
	KindREST Kind = "rest"

	// KindServerActions executes operations by invoking supplied
	// functions in-process.
	KindServerActions Kind = "server-actions"
)

// Definition is the declarative input describing one entity type. Resolve
// turns it into the transport-bound, cache-wired entity.Config consumed by
// the executors.
type Definition[T any] struct {
	// Name is the entity name and cache namespace. Required.
	Name string

	// Version is an optional caller-defined schema version.
	Version string

	// Validator checks write payloads before they reach the transport.
	// Optional for resolution, required for registry registration.
	Validator entity.Validator

	// Transport selects the strategy. Required.
	Transport Kind

	// BaseEndpoint roots the HTTP wire conventions for KindREST.
	BaseEndpoint string

	// Endpoints overrides individual endpoint templates; each override
	// replaces only that one endpoint.
	Endpoints map[entity.Operation]string

	// RESTOptions passes extra options (client, headers) to the REST
	// transport.
	RESTOptions []transport.RESTOption

	// Actions supplies the functions for KindServerActions. An operation
	// is included iff its function is non-nil.
	Actions transport.Actions[T]

	// Operations disables HTTP operations explicitly: an entry with value
	// false excludes that operation; absence means enabled.
	Operations map[entity.Operation]bool

	// Cache overrides the default policy per operation. Zero fields in an
	// override fall back to the defaults; cache.StaleTimeNone and
	// cache.RetryNone pin a field at an explicit zero.
	Cache map[entity.Operation]cache.Policy

	// DisableOptimistic turns off the default optimistic projections so
	// writes only touch the cache after the transport commits.
	DisableOptimistic bool

	// ExtraInvalidates lists additional cache key prefixes every
	// successful mutation invalidates, beyond the entity's list prefix.
	ExtraInvalidates []cache.Key

	// Clock supplies the current time for temporary ids and optimistic
	// timestamps. Nil uses time.Now.
	Clock func() time.Time
}

// Resolve wires a Definition into an immutable entity.Config: one
// QueryConfig per readable operation, one MutationConfig per writable
// operation, each carrying its cache key function, fetcher, and policy.
func Resolve[T any](def Definition[T]) (*entity.Config[T], error) {
	if def.Name == "" {
		return nil, entity.NewConfigError("definition requires a name")
	}
	if def.Clock == nil {
		def.Clock = time.Now
	}

	tr, endpoints, err := buildTransport(def)
	if err != nil {
		return nil, err
	}

	cfg := &entity.Config[T]{
		Metadata: entity.Metadata{
			Name:      def.Name,
			Version:   def.Version,
			Validator: def.Validator,
			Endpoints: endpoints,
		},
	}

	invalidates := append([]cache.Key{cache.ListPrefix(def.Name)}, def.ExtraInvalidates...)

	if included(def, tr, entity.OpList) {
		cfg.List = &entity.QueryConfig[entity.ListResult[T], entity.ListParams]{
			Key:    func(p entity.ListParams) cache.Key { return cache.ListKey(def.Name, p) },
			Fetch:  tr.List,
			Policy: policyFor(def, entity.OpList, cache.DefaultReadPolicy()),
		}
		cfg.Metadata.Flags.CanList = true
	}
	if included(def, tr, entity.OpGet) {
		cfg.Get = &entity.QueryConfig[T, entity.ID]{
			Key:    func(id entity.ID) cache.Key { return cache.GetKey(def.Name, id) },
			Fetch:  tr.Get,
			Policy: policyFor(def, entity.OpGet, cache.DefaultReadPolicy()),
		}
		cfg.Metadata.Flags.CanGet = true
	}
	if included(def, tr, entity.OpSearch) {
		cfg.Search = &entity.QueryConfig[entity.SearchResult[T], entity.SearchParams]{
			Key:    func(p entity.SearchParams) cache.Key { return cache.SearchKey(def.Name, p) },
			Fetch:  tr.Search,
			Policy: policyFor(def, entity.OpSearch, cache.DefaultSearchPolicy()),
		}
		cfg.Metadata.Flags.CanSearch = true
	}

	if included(def, tr, entity.OpCreate) {
		cfg.Create = &entity.MutationConfig[T, T]{
			Key:         cache.Key{def.Name, string(entity.OpCreate)},
			Fn:          validatedCreate(def, tr),
			Invalidates: invalidates,
		}
		if !def.DisableOptimistic {
			cfg.Create.Optimistic = defaultCreateProjection[T](def.Clock)
		}
		cfg.Metadata.Flags.CanCreate = true
	}
	if included(def, tr, entity.OpUpdate) {
		cfg.Update = &entity.MutationConfig[T, entity.UpdateVars]{
			Key:         cache.Key{def.Name, string(entity.OpUpdate)},
			Fn:          validatedUpdate(def, tr),
			Invalidates: invalidates,
		}
		if !def.DisableOptimistic {
			cfg.Update.Optimistic = defaultUpdateProjection[T](def.Clock)
		}
		cfg.Metadata.Flags.CanUpdate = true
	}
	if included(def, tr, entity.OpDelete) {
		cfg.Delete = &entity.MutationConfig[struct{}, entity.ID]{
			Key: cache.Key{def.Name, string(entity.OpDelete)},
			Fn: func(ctx context.Context, id entity.ID) (struct{}, error) {
				return struct{}{}, tr.Delete(ctx, id)
			},
			Invalidates: invalidates,
		}
		cfg.Metadata.Flags.CanDelete = true
	}

	return cfg, nil
}

// buildTransport materializes the transport strategy and, for REST, the
// resolved endpoint templates exposed through metadata.
func buildTransport[T any](def Definition[T]) (transport.Transport[T], map[entity.Operation]string, error) {
	switch def.Transport {
	case KindREST:
		opts := append([]transport.RESTOption(nil), def.RESTOptions...)
		for op, template := range def.Endpoints {
			opts = append(opts, transport.WithEndpoint(op, template))
		}
		rest, err := transport.NewREST[T](def.BaseEndpoint, opts...)
		if err != nil {
			return nil, nil, err
		}
		endpoints := make(map[entity.Operation]string)
		for _, op := range append(append([]entity.Operation(nil), entity.ReadOperations...), entity.WriteOperations...) {
			endpoints[op] = def.BaseEndpoint + rest.EndpointTemplate(op)
		}
		return rest, endpoints, nil

	case KindServerActions:
		return transport.NewServerActions(def.Actions), nil, nil

	default:
		return nil, nil, entity.NewConfigError("unsupported transport %q", def.Transport)
	}
}

// included applies the inclusion policy: HTTP operations are enabled
// unless explicitly disabled; server-action operations exist iff a
// function was supplied.
func included[T any](def Definition[T], tr transport.Transport[T], op entity.Operation) bool {
	if enabled, ok := def.Operations[op]; ok && !enabled {
		return false
	}
	return tr.Supports(op)
}

func policyFor[T any](def Definition[T], op entity.Operation, defaults cache.Policy) cache.Policy {
	if override, ok := def.Cache[op]; ok {
		return override.Merged(defaults)
	}
	return defaults
}

// validatedCreate runs the definition's validator over the payload before
// the transport sees it. Validation failures are recoverable transport
// boundary errors: the mutation executor rolls back and reports them.
func validatedCreate[T any](def Definition[T], tr transport.Transport[T]) func(context.Context, T) (T, error) {
	return func(ctx context.Context, record T) (T, error) {
		if def.Validator != nil {
			if err := def.Validator.Parse(record); err != nil {
				var zero T
				return zero, err
			}
		}
		return tr.Create(ctx, record)
	}
}

func validatedUpdate[T any](def Definition[T], tr transport.Transport[T]) func(context.Context, entity.UpdateVars) (T, error) {
	return func(ctx context.Context, vars entity.UpdateVars) (T, error) {
		if def.Validator != nil {
			if err := def.Validator.Parse(vars.Patch); err != nil {
				var zero T
				return zero, err
			}
		}
		return tr.Update(ctx, vars.ID, vars.Patch)
	}
}

// defaultCreateProjection speculates the created record as the submitted
// payload with a temporary id and fresh envelope timestamps, so every
// entity gets usable optimistic behavior without bespoke code.
func defaultCreateProjection[T any](clock func() time.Time) func(T, T) (T, error) {
	return func(_ T, payload T) (T, error) {
		now := clock()
		out := entity.WithID(payload, entity.TempID(now))
		return entity.WithTimestamps(out, now, now), nil
	}
}

// defaultUpdateProjection merges the partial payload over the cached
// record, preserving the target id and refreshing only UpdatedAt.
func defaultUpdateProjection[T any](clock func() time.Time) func(T, entity.UpdateVars) (T, error) {
	return func(prev T, vars entity.UpdateVars) (T, error) {
		merged, err := entity.MergePatch(prev, vars.Patch)
		if err != nil {
			return prev, err
		}
		merged = entity.WithID(merged, vars.ID)
		return entity.WithTimestamps(merged, time.Time{}, clock()), nil
	}
}
