package entityops

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-entity-client/cache"
)

// runtime bundles the shared machinery behind every Ops instance: the
// store, key serialization, request de-duplication, per-key mutation
// locks, and the injectable clock/sleeper used by tests.
type runtime struct {
	store cache.Store
	ser   cache.KeySerializer
	log   zerolog.Logger
	group *singleflight.Group
	locks *xsync.MapOf[string, *sync.Mutex]
	clock func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newRuntime(store cache.Store, ser cache.KeySerializer, opts ...Option) *runtime {
	rt := &runtime{
		store: store,
		ser:   ser,
		log:   zerolog.Nop(),
		group: &singleflight.Group{},
		locks: xsync.NewMapOf[string, *sync.Mutex](),
		clock: time.Now,
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Option configures the executors behind an Ops instance.
type Option func(*runtime)

// WithLogger attaches a structured logger. The executors log at debug
// level on fetches, retries, optimistic applies, and rollbacks.
func WithLogger(log zerolog.Logger) Option {
	return func(rt *runtime) { rt.log = log }
}

// WithClock injects the time source used for staleness decisions.
func WithClock(clock func() time.Time) Option {
	return func(rt *runtime) { rt.clock = clock }
}

// WithSleep injects the retry delay function. Tests replace it to avoid
// real backoff waits.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(rt *runtime) { rt.sleep = sleep }
}

// lock returns the mutex serializing mutation phases for a key.
func (rt *runtime) lock(key string) *sync.Mutex {
	mu, _ := rt.locks.LoadOrStore(key, &sync.Mutex{})
	return mu
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
