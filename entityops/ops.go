package entityops

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-entity-client/cache"
	"github.com/goliatone/go-entity-client/entity"
)

// Ops is the public surface for one entity type: cached reads, optimistic
// writes, and manual cache controls, all sharing the process-wide store.
// Build one per entity type and reuse it for the process lifetime.
type Ops[T any] struct {
	cfg     *entity.Config[T]
	rt      *runtime
	pending atomic.Int64
}

// New wires a resolved entity config to a store and key serializer.
func New[T any](cfg *entity.Config[T], store cache.Store, ser cache.KeySerializer, opts ...Option) *Ops[T] {
	return &Ops[T]{cfg: cfg, rt: newRuntime(store, ser, opts...)}
}

// Metadata returns the resolved entity metadata, including which
// operations are configured.
func (o *Ops[T]) Metadata() entity.Metadata {
	return o.cfg.Metadata
}

func (o *Ops[T]) name() string { return o.cfg.Metadata.Name }

// List returns a page of records, served from cache when fresh.
func (o *Ops[T]) List(ctx context.Context, params entity.ListParams) QueryResult[entity.ListResult[T]] {
	return runQuery(ctx, o.rt, o.cfg.List, params)
}

// Get returns a single record by id. An empty id fails the gate: the
// transport is never called and the result is Disabled, not an error.
func (o *Ops[T]) Get(ctx context.Context, id entity.ID) QueryResult[T] {
	if id == "" {
		return QueryResult[T]{Disabled: true}
	}
	return runQuery(ctx, o.rt, o.cfg.Get, id)
}

// Search runs a search. An empty query fails the gate: the transport is
// never called and the result is Disabled, not an error.
func (o *Ops[T]) Search(ctx context.Context, params entity.SearchParams) QueryResult[entity.SearchResult[T]] {
	if params.Query == "" {
		return QueryResult[entity.SearchResult[T]]{Disabled: true}
	}
	return runQuery(ctx, o.rt, o.cfg.Search, params)
}

// Create submits a new record and waits for the outcome. The optimistic
// projection, when configured, lands in cached lists before the transport
// resolves and is rolled back exactly on failure.
func (o *Ops[T]) Create(ctx context.Context, record T) (T, error) {
	out := o.CreateOutcome(ctx, record)
	return out.Result, out.Err
}

// CreateOutcome is Create exposing the full tagged outcome.
func (o *Ops[T]) CreateOutcome(ctx context.Context, record T) Outcome[T] {
	mc := o.cfg.Create
	if mc == nil {
		return Outcome[T]{Kind: OutcomeRolledBack, Err: entity.NewConfigError("operation %q not configured for %q", entity.OpCreate, o.name())}
	}

	listPrefix := o.listPrefix()
	plan := mutationPlan[T]{
		lockKey:      listPrefix,
		snapshotKeys: o.listSnapshotKeys(listPrefix),
		commit: func(ctx context.Context, result T) error {
			id, ok := entity.IDOf(result)
			if !ok {
				return nil
			}
			key := o.rt.ser.SerializeKey(cache.GetKey(o.name(), id))
			return o.rt.store.Set(ctx, key, cache.Entry{Value: result, FetchedAt: o.rt.clock()}, o.getTTL())
		},
	}
	if mc.Optimistic != nil {
		plan.applyOptimistic = func(ctx context.Context) error {
			var zero T
			projected, err := mc.Optimistic(zero, record)
			if err != nil {
				return err
			}
			return o.appendToCachedLists(ctx, listPrefix, projected)
		}
	}
	return runMutation(ctx, o.rt, mc, record, plan)
}

// Update applies a partial payload to the record with the given id and
// waits for the outcome.
func (o *Ops[T]) Update(ctx context.Context, id entity.ID, patch entity.Patch) (T, error) {
	out := o.UpdateOutcome(ctx, id, patch)
	return out.Result, out.Err
}

// UpdateOutcome is Update exposing the full tagged outcome.
func (o *Ops[T]) UpdateOutcome(ctx context.Context, id entity.ID, patch entity.Patch) Outcome[T] {
	mc := o.cfg.Update
	if mc == nil {
		return Outcome[T]{Kind: OutcomeRolledBack, Err: entity.NewConfigError("operation %q not configured for %q", entity.OpUpdate, o.name())}
	}
	if id == "" {
		return Outcome[T]{Kind: OutcomeRolledBack, Err: entity.NewConfigError("update requires an id")}
	}

	vars := entity.UpdateVars{ID: id, Patch: patch}
	getKey := o.rt.ser.SerializeKey(cache.GetKey(o.name(), id))
	listPrefix := o.listPrefix()

	plan := mutationPlan[T]{
		lockKey: getKey,
		snapshotKeys: func(ctx context.Context) map[string]time.Duration {
			keys := o.listSnapshotKeys(listPrefix)(ctx)
			keys[getKey] = o.getTTL()
			return keys
		},
		commit: func(ctx context.Context, result T) error {
			e := cache.Entry{Value: result, FetchedAt: o.rt.clock()}
			if err := o.rt.store.Set(ctx, getKey, e, o.getTTL()); err != nil {
				return err
			}
			return o.replaceInCachedLists(ctx, listPrefix, id, result)
		},
	}
	if mc.Optimistic != nil {
		plan.applyOptimistic = func(ctx context.Context) error {
			var prev T
			fetchedAt := o.rt.clock()
			if e, ok := o.rt.store.Get(ctx, getKey); ok {
				prev = e.Value.(T)
				fetchedAt = e.FetchedAt
			} else {
				prev = entity.WithID(prev, id)
			}
			projected, err := mc.Optimistic(prev, vars)
			if err != nil {
				return err
			}
			return o.rt.store.Set(ctx, getKey, cache.Entry{Value: projected, FetchedAt: fetchedAt}, o.getTTL())
		}
	}
	return runMutation(ctx, o.rt, mc, vars, plan)
}

// Delete removes the record with the given id and waits for the outcome.
func (o *Ops[T]) Delete(ctx context.Context, id entity.ID) error {
	return o.DeleteOutcome(ctx, id).Err
}

// DeleteOutcome is Delete exposing the full tagged outcome.
func (o *Ops[T]) DeleteOutcome(ctx context.Context, id entity.ID) Outcome[struct{}] {
	mc := o.cfg.Delete
	if mc == nil {
		return Outcome[struct{}]{Kind: OutcomeRolledBack, Err: entity.NewConfigError("operation %q not configured for %q", entity.OpDelete, o.name())}
	}
	if id == "" {
		return Outcome[struct{}]{Kind: OutcomeRolledBack, Err: entity.NewConfigError("delete requires an id")}
	}

	getKey := o.rt.ser.SerializeKey(cache.GetKey(o.name(), id))
	listPrefix := o.listPrefix()

	plan := mutationPlan[struct{}]{
		lockKey: getKey,
		snapshotKeys: func(ctx context.Context) map[string]time.Duration {
			keys := o.listSnapshotKeys(listPrefix)(ctx)
			keys[getKey] = o.getTTL()
			return keys
		},
		// Optimistic deletes only touch lists; the single-item entry
		// survives until commit so a rollback has less to repair.
		applyOptimistic: func(ctx context.Context) error {
			return o.removeFromCachedLists(ctx, listPrefix, id)
		},
		commit: func(ctx context.Context, _ struct{}) error {
			return o.rt.store.Delete(ctx, getKey)
		},
	}
	return runMutation(ctx, o.rt, mc, id, plan)
}

// CreateAsync runs Create on its own goroutine, reporting the outcome on
// the returned channel. Pending counts in-flight async mutations.
func (o *Ops[T]) CreateAsync(ctx context.Context, record T) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)
	o.pending.Add(1)
	go func() {
		defer o.pending.Add(-1)
		ch <- o.CreateOutcome(ctx, record)
		close(ch)
	}()
	return ch
}

// UpdateAsync runs Update on its own goroutine.
func (o *Ops[T]) UpdateAsync(ctx context.Context, id entity.ID, patch entity.Patch) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)
	o.pending.Add(1)
	go func() {
		defer o.pending.Add(-1)
		ch <- o.UpdateOutcome(ctx, id, patch)
		close(ch)
	}()
	return ch
}

// DeleteAsync runs Delete on its own goroutine.
func (o *Ops[T]) DeleteAsync(ctx context.Context, id entity.ID) <-chan Outcome[struct{}] {
	ch := make(chan Outcome[struct{}], 1)
	o.pending.Add(1)
	go func() {
		defer o.pending.Add(-1)
		ch <- o.DeleteOutcome(ctx, id)
		close(ch)
	}()
	return ch
}

// Pending reports the number of in-flight async mutations.
func (o *Ops[T]) Pending() int {
	return int(o.pending.Load())
}

// InvalidateKey marks one cached entry untrustworthy so the next read
// refetches. The key shape is the stable contract: [name, "list", params],
// [name, "get", id], [name, "search", params].
func (o *Ops[T]) InvalidateKey(ctx context.Context, key cache.Key) error {
	return o.rt.store.Invalidate(ctx, o.rt.ser.SerializeKey(key))
}

// InvalidateLists marks every cached list page for this entity.
func (o *Ops[T]) InvalidateLists(ctx context.Context) error {
	return o.rt.store.InvalidatePrefix(ctx, o.listPrefix())
}

// InvalidateAll marks every cached entry for this entity.
func (o *Ops[T]) InvalidateAll(ctx context.Context) error {
	return o.rt.store.InvalidatePrefix(ctx, cache.EntityNamespace(o.rt.ser, o.name()))
}

// RefetchGet invalidates the cached record and reads it again. Hosts wire
// this to whatever refresh trigger they own (focus, polling).
func (o *Ops[T]) RefetchGet(ctx context.Context, id entity.ID) QueryResult[T] {
	if id != "" {
		_ = o.InvalidateKey(ctx, cache.GetKey(o.name(), id))
	}
	return o.Get(ctx, id)
}

// RefetchList invalidates the cached page and reads it again.
func (o *Ops[T]) RefetchList(ctx context.Context, params entity.ListParams) QueryResult[entity.ListResult[T]] {
	_ = o.InvalidateKey(ctx, cache.ListKey(o.name(), params))
	return o.List(ctx, params)
}

func (o *Ops[T]) listPrefix() string {
	return o.rt.ser.SerializeKey(cache.ListPrefix(o.name()))
}

func (o *Ops[T]) listTTL() time.Duration {
	if o.cfg.List != nil {
		return o.cfg.List.Policy.GCTime
	}
	return cache.DefaultReadPolicy().GCTime
}

func (o *Ops[T]) getTTL() time.Duration {
	if o.cfg.Get != nil {
		return o.cfg.Get.Policy.GCTime
	}
	return cache.DefaultReadPolicy().GCTime
}

func (o *Ops[T]) listSnapshotKeys(listPrefix string) func(ctx context.Context) map[string]time.Duration {
	return func(ctx context.Context) map[string]time.Duration {
		keys := make(map[string]time.Duration)
		for _, key := range o.rt.store.KeysWithPrefix(ctx, listPrefix) {
			keys[key] = o.listTTL()
		}
		return keys
	}
}

// appendToCachedLists appends the speculative record to every cached list
// page and bumps its total. Entries are rebuilt, never mutated in place,
// so concurrent readers keep a coherent previous value.
func (o *Ops[T]) appendToCachedLists(ctx context.Context, listPrefix string, record T) error {
	return o.eachCachedList(ctx, listPrefix, func(lr entity.ListResult[T]) entity.ListResult[T] {
		lr.Data = append(append([]T(nil), lr.Data...), record)
		lr.Meta.Total++
		return lr
	})
}

// replaceInCachedLists swaps the authoritative record into every cached
// list page that holds its id.
func (o *Ops[T]) replaceInCachedLists(ctx context.Context, listPrefix string, id entity.ID, record T) error {
	return o.eachCachedList(ctx, listPrefix, func(lr entity.ListResult[T]) entity.ListResult[T] {
		data := append([]T(nil), lr.Data...)
		for i, item := range data {
			if itemID, ok := entity.IDOf(item); ok && itemID == id {
				data[i] = record
			}
		}
		lr.Data = data
		return lr
	})
}

// removeFromCachedLists drops the record from every cached list page and
// decrements its total.
func (o *Ops[T]) removeFromCachedLists(ctx context.Context, listPrefix string, id entity.ID) error {
	return o.eachCachedList(ctx, listPrefix, func(lr entity.ListResult[T]) entity.ListResult[T] {
		data := make([]T, 0, len(lr.Data))
		removed := 0
		for _, item := range lr.Data {
			if itemID, ok := entity.IDOf(item); ok && itemID == id {
				removed++
				continue
			}
			data = append(data, item)
		}
		lr.Data = data
		lr.Meta.Total -= removed
		return lr
	})
}

func (o *Ops[T]) eachCachedList(ctx context.Context, listPrefix string, apply func(entity.ListResult[T]) entity.ListResult[T]) error {
	for _, key := range o.rt.store.KeysWithPrefix(ctx, listPrefix) {
		e, ok := o.rt.store.Get(ctx, key)
		if !ok {
			continue
		}
		lr, ok := e.Value.(entity.ListResult[T])
		if !ok {
			continue
		}
		e.Value = apply(lr)
		if err := o.rt.store.Set(ctx, key, e, o.listTTL()); err != nil {
			return err
		}
	}
	return nil
}
