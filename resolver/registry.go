package resolver

import (
	"reflect"
	"sync"

	"github.com/goliatone/go-entity-client/entity"
)

// Registry associates validators with entity definitions, replacing the
// hidden global side-table pattern with an explicit object: populate it at
// startup, Freeze it, then pass it by reference wherever configuration is
// resolved.
type Registry struct {
	mu     sync.RWMutex
	frozen bool
	defs   map[any]registration
}

type registration struct {
	name string
	def  any // Definition[T]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[any]registration)}
}

// Register records a definition under its validator's identity. Fails
// with a ConfigError when the registry is frozen, the validator is
// missing, or the validator is already registered.
//
// Func-backed validators compare by code pointer, so two ValidatorFunc
// values built from the same function literal count as the same validator
// and the second registration fails as a duplicate. Give each entity its
// own validator instance (pointer validators compare by object identity).
func Register[T any](r *Registry, def Definition[T]) error {
	if def.Validator == nil {
		return entity.NewConfigError("registry: definition %q has no validator", def.Name)
	}

	key := validatorKey(def.Validator)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return entity.NewConfigError("registry: frozen, cannot register %q", def.Name)
	}
	if existing, ok := r.defs[key]; ok {
		return entity.NewConfigError("registry: validator already registered for %q", existing.name)
	}
	r.defs[key] = registration{name: def.Name, def: def}
	return nil
}

// Freeze makes the registry read-only. Idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether the registry accepts further registrations.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Names lists the registered entity names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for _, reg := range r.defs {
		names = append(names, reg.name)
	}
	return names
}

// ResolveFromRegistry resolves the definition registered under the given
// validator. Fails with a ConfigError when no definition was registered
// for it, or when it was registered for a different record type.
func ResolveFromRegistry[T any](r *Registry, v entity.Validator) (*entity.Config[T], error) {
	if v == nil {
		return nil, entity.NewConfigError("registry: nil validator")
	}

	r.mu.RLock()
	reg, ok := r.defs[validatorKey(v)]
	r.mu.RUnlock()

	if !ok {
		return nil, entity.NewConfigError("registry: no metadata registered for validator")
	}
	def, ok := reg.def.(Definition[T])
	if !ok {
		return nil, entity.NewConfigError("registry: %q registered for a different record type", reg.name)
	}
	return Resolve(def)
}

// validatorKey derives a comparable identity for a validator. Pointer
// validators compare by object identity; func-backed validators fall back
// to their code pointer since func values are not comparable.
func validatorKey(v entity.Validator) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return rv.Pointer()
	default:
		return v
	}
}
