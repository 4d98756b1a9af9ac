package entityops

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-entity-client/cache"
	"github.com/goliatone/go-entity-client/entity"
	"github.com/goliatone/go-entity-client/internal/cachestore"
	"github.com/goliatone/go-entity-client/pkg/testsupport"
)

type todo struct {
	entity.BaseEntity
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// fixture wires an Ops[todo] to a fake backend, a manual clock, and a
// recording sleeper so tests control time and observe backoff.
type fixture struct {
	ft    *testsupport.FakeTransport[todo]
	ops   *Ops[todo]
	store *cachestore.Store
	ser   cache.KeySerializer
	clock *testsupport.Clock

	mu     sync.Mutex
	sleeps []time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := testsupport.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store, err := cachestore.New(cachestore.Config{Clock: clock.Now})
	if err != nil {
		t.Fatalf("cachestore.New() error: %v", err)
	}
	t.Cleanup(store.Stop)

	f := &fixture{
		ft:    testsupport.NewFakeTransport[todo](),
		store: store,
		ser:   cache.NewDefaultKeySerializer(),
		clock: clock,
	}
	f.ops = New(f.config(), store, f.ser,
		WithClock(clock.Now),
		WithSleep(f.recordSleep),
	)
	return f
}

// config mirrors what the resolver produces for a fully-enabled entity,
// but bound to the fake backend.
func (f *fixture) config() *entity.Config[todo] {
	const name = "todo"
	invalidates := []cache.Key{cache.ListPrefix(name)}

	return &entity.Config[todo]{
		Metadata: entity.Metadata{
			Name: name,
			Flags: entity.Flags{
				CanList: true, CanGet: true, CanSearch: true,
				CanCreate: true, CanUpdate: true, CanDelete: true,
			},
		},
		List: &entity.QueryConfig[entity.ListResult[todo], entity.ListParams]{
			Key:    func(p entity.ListParams) cache.Key { return cache.ListKey(name, p) },
			Fetch:  f.ft.List,
			Policy: cache.DefaultReadPolicy(),
		},
		Get: &entity.QueryConfig[todo, entity.ID]{
			Key:    func(id entity.ID) cache.Key { return cache.GetKey(name, id) },
			Fetch:  f.ft.Get,
			Policy: cache.DefaultReadPolicy(),
		},
		Search: &entity.QueryConfig[entity.SearchResult[todo], entity.SearchParams]{
			Key:    func(p entity.SearchParams) cache.Key { return cache.SearchKey(name, p) },
			Fetch:  f.ft.Search,
			Policy: cache.DefaultSearchPolicy(),
		},
		Create: &entity.MutationConfig[todo, todo]{
			Key: cache.Key{name, "create"},
			Fn:  f.ft.Create,
			Optimistic: func(_ todo, payload todo) (todo, error) {
				now := f.clock.Now()
				out := entity.WithID(payload, entity.TempID(now))
				return entity.WithTimestamps(out, now, now), nil
			},
			Invalidates: invalidates,
		},
		Update: &entity.MutationConfig[todo, entity.UpdateVars]{
			Key: cache.Key{name, "update"},
			Fn: func(ctx context.Context, vars entity.UpdateVars) (todo, error) {
				return f.ft.Update(ctx, vars.ID, vars.Patch)
			},
			Optimistic: func(prev todo, vars entity.UpdateVars) (todo, error) {
				merged, err := entity.MergePatch(prev, vars.Patch)
				if err != nil {
					return prev, err
				}
				merged = entity.WithID(merged, vars.ID)
				return entity.WithTimestamps(merged, time.Time{}, f.clock.Now()), nil
			},
			Invalidates: invalidates,
		},
		Delete: &entity.MutationConfig[struct{}, entity.ID]{
			Key: cache.Key{name, "delete"},
			Fn: func(ctx context.Context, id entity.ID) (struct{}, error) {
				return struct{}{}, f.ft.Delete(ctx, id)
			},
			Invalidates: invalidates,
		},
	}
}

func (f *fixture) recordSleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	f.mu.Unlock()
	return ctx.Err()
}

func (f *fixture) recordedSleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

func (f *fixture) getKey(id entity.ID) string {
	return f.ser.SerializeKey(cache.GetKey("todo", id))
}

func (f *fixture) listKey(p entity.ListParams) string {
	return f.ser.SerializeKey(cache.ListKey("todo", p))
}

func (f *fixture) seeded(id, title string) todo {
	rec := todo{
		BaseEntity: entity.BaseEntity{
			ID:        id,
			CreatedAt: f.clock.Now(),
			UpdatedAt: f.clock.Now(),
		},
		Title: title,
	}
	f.ft.Seed(rec)
	return rec
}
