package resolver

import (
	"github.com/goliatone/go-entity-client/entity"
)

// Builder accumulates custom query and mutation definitions on top of a
// base Definition, then finalizes once into an immutable config. At
// runtime this is a plain map from operation name to definition; the
// accumulated entries surface on Config.ExtraQueries/ExtraMutations.
type Builder[T any] struct {
	def       Definition[T]
	queries   map[string]any
	mutations map[string]any
	finalized bool
	err       error
}

// NewBuilder starts a builder from a base definition.
func NewBuilder[T any](def Definition[T]) *Builder[T] {
	return &Builder[T]{
		def:       def,
		queries:   make(map[string]any),
		mutations: make(map[string]any),
	}
}

// Query registers a custom read operation. cfg should be a
// *entity.QueryConfig of the caller's shapes.
func (b *Builder[T]) Query(name string, cfg any) *Builder[T] {
	b.add(b.queries, "query", name, cfg)
	return b
}

// Mutation registers a custom write operation. cfg should be a
// *entity.MutationConfig of the caller's shapes.
func (b *Builder[T]) Mutation(name string, cfg any) *Builder[T] {
	b.add(b.mutations, "mutation", name, cfg)
	return b
}

func (b *Builder[T]) add(dst map[string]any, kind, name string, cfg any) {
	if b.err != nil {
		return
	}
	if b.finalized {
		b.err = entity.NewConfigError("builder: cannot add %s %q after finalize", kind, name)
		return
	}
	if name == "" {
		b.err = entity.NewConfigError("builder: %s requires a name", kind)
		return
	}
	if cfg == nil {
		b.err = entity.NewConfigError("builder: %s %q requires a config", kind, name)
		return
	}
	if _, exists := dst[name]; exists {
		b.err = entity.NewConfigError("builder: duplicate %s %q", kind, name)
		return
	}
	dst[name] = cfg
}

// Err returns the first accumulation error, if any. Finalize surfaces it
// as well.
func (b *Builder[T]) Err() error {
	return b.err
}

// Finalize resolves the base definition and attaches the accumulated
// custom operations. A builder finalizes exactly once.
func (b *Builder[T]) Finalize() (*entity.Config[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.finalized {
		return nil, entity.NewConfigError("builder: already finalized")
	}
	b.finalized = true

	cfg, err := Resolve(b.def)
	if err != nil {
		return nil, err
	}
	if len(b.queries) > 0 {
		cfg.ExtraQueries = make(map[string]any, len(b.queries))
		for name, q := range b.queries {
			cfg.ExtraQueries[name] = q
		}
	}
	if len(b.mutations) > 0 {
		cfg.ExtraMutations = make(map[string]any, len(b.mutations))
		for name, m := range b.mutations {
			cfg.ExtraMutations[name] = m
		}
	}
	return cfg, nil
}
