// Package di wires the entity layer's shared pieces — store, key
// serializer, registry, logger — into one container with factory helpers
// for per-entity operation facades.
package di

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-entity-client/cache"
	"github.com/goliatone/go-entity-client/entity"
	"github.com/goliatone/go-entity-client/entityops"
	"github.com/goliatone/go-entity-client/internal/cachestore"
	"github.com/goliatone/go-entity-client/resolver"
)

// Config holds the container's store settings. It mirrors the internal
// store config so callers outside the module can set it.
type Config struct {
	// SweepInterval is how often expired cache entries are evicted. Zero
	// disables background eviction.
	SweepInterval time.Duration

	// Clock supplies the current time for the store and executors. Nil
	// uses time.Now.
	Clock func() time.Time
}

// DefaultConfig returns the default container configuration.
func DefaultConfig() Config {
	internal := cachestore.DefaultConfig()
	return Config{SweepInterval: internal.SweepInterval}
}

// Container manages the singletons shared by every entity facade.
type Container struct {
	store    cache.Store
	ser      cache.KeySerializer
	registry *resolver.Registry
	log      zerolog.Logger
	cfg      Config
}

// ContainerOption configures a Container at construction.
type ContainerOption func(*Container)

// WithLogger attaches a structured logger propagated to every facade
// built through the container.
func WithLogger(log zerolog.Logger) ContainerOption {
	return func(c *Container) { c.log = log }
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg Config, opts ...ContainerOption) (*Container, error) {
	store, err := cachestore.New(cachestore.Config{
		SweepInterval: cfg.SweepInterval,
		Clock:         cfg.Clock,
	})
	if err != nil {
		return nil, err
	}

	c := &Container{
		store:    store,
		ser:      cache.NewDefaultKeySerializer(),
		registry: resolver.NewRegistry(),
		log:      zerolog.Nop(),
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewContainerWithDefaults creates a container using default
// configuration.
func NewContainerWithDefaults(opts ...ContainerOption) (*Container, error) {
	return NewContainer(DefaultConfig(), opts...)
}

// Store returns the shared cache store.
func (c *Container) Store() cache.Store { return c.store }

// KeySerializer returns the shared key serializer.
func (c *Container) KeySerializer() cache.KeySerializer { return c.ser }

// Registry returns the validator registry. Populate it at startup, then
// Freeze it.
func (c *Container) Registry() *resolver.Registry { return c.registry }

// Config returns a copy of the container configuration.
func (c *Container) Config() Config { return c.cfg }

// Close stops the store's background eviction.
func (c *Container) Close() { c.store.Stop() }

// NewOps builds the operations facade for a resolved entity config,
// sharing the container's store and serializer.
//
// Since Go methods cannot have type parameters, this is provided as a
// package-level function.
func NewOps[T any](c *Container, cfg *entity.Config[T], opts ...entityops.Option) *entityops.Ops[T] {
	opts = append([]entityops.Option{entityops.WithLogger(c.log)}, opts...)
	if c.cfg.Clock != nil {
		opts = append(opts, entityops.WithClock(c.cfg.Clock))
	}
	return entityops.New(cfg, c.store, c.ser, opts...)
}

// ResolveOps resolves a definition and builds its facade in one step.
func ResolveOps[T any](c *Container, def resolver.Definition[T], opts ...entityops.Option) (*entityops.Ops[T], error) {
	cfg, err := resolver.Resolve(def)
	if err != nil {
		return nil, err
	}
	return NewOps(c, cfg, opts...), nil
}
