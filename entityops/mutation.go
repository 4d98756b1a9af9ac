package entityops

import (
	"context"
	"time"

	"github.com/goliatone/go-entity-client/cache"
	"github.com/goliatone/go-entity-client/entity"
)

// OutcomeKind tags how a mutation ended.
type OutcomeKind string

const (
	// OutcomeCommitted means the transport call succeeded and the cache
	// holds the authoritative result.
	OutcomeCommitted OutcomeKind = "committed"

	// OutcomeRolledBack means the mutation failed and every affected
	// cache entry was restored to its pre-mutation snapshot.
	OutcomeRolledBack OutcomeKind = "rolledBack"
)

// Outcome is the tagged result threaded through a mutation's phases,
// carrying the rollback snapshot alongside the result so the protocol is
// auditable rather than hidden in closures.
type Outcome[T any] struct {
	Kind     OutcomeKind
	Snapshot Snapshot
	Result   T
	Err      error
}

// Snapshot captures the exact cache state a mutation may need to restore:
// for each affected key, either the entry that existed or the fact that
// none did.
type Snapshot struct {
	Taken   time.Time
	entries map[string]*snapshotEntry
}

type snapshotEntry struct {
	entry cache.Entry
	ttl   time.Duration
}

// Entry returns the snapshotted entry for key. ok is false when the key
// was absent at capture time.
func (s Snapshot) Entry(key string) (cache.Entry, bool) {
	se, present := s.entries[key]
	if se == nil || !present {
		return cache.Entry{}, false
	}
	return se.entry, true
}

// Keys lists the captured keys, present or absent.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// captureSnapshot reads the current state of every affected key. keys
// maps each key to the ttl used if its entry has to be restored.
func captureSnapshot(ctx context.Context, rt *runtime, keys map[string]time.Duration) Snapshot {
	snap := Snapshot{
		Taken:   rt.clock(),
		entries: make(map[string]*snapshotEntry, len(keys)),
	}
	for key, ttl := range keys {
		if e, ok := rt.store.Get(ctx, key); ok {
			snap.entries[key] = &snapshotEntry{entry: e, ttl: ttl}
		} else {
			snap.entries[key] = nil
		}
	}
	return snap
}

// restore puts every captured key back exactly as it was: entries that
// existed are re-set, entries that did not are deleted. Partial
// restoration is a correctness bug, so errors do not short-circuit.
func (s Snapshot) restore(ctx context.Context, rt *runtime) {
	for key, se := range s.entries {
		if se == nil {
			_ = rt.store.Delete(ctx, key)
			continue
		}
		_ = rt.store.Set(ctx, key, se.entry, se.ttl)
	}
}

// mutationPlan supplies the operation-specific cache choreography to the
// shared four-phase runner.
type mutationPlan[T any] struct {
	// lockKey serializes the snapshot/optimistic and commit/rollback
	// phases for mutations contending on the same target.
	lockKey string

	// snapshotKeys lists the affected keys and their restore ttls.
	snapshotKeys func(ctx context.Context) map[string]time.Duration

	// applyOptimistic writes the speculative state into the cache. Nil
	// skips the optimistic phase.
	applyOptimistic func(ctx context.Context) error

	// commit writes the authoritative result into the cache.
	commit func(ctx context.Context, result T) error
}

// runMutation executes the four-phase optimistic protocol:
//
//  1. Snapshot the affected entries (the sole rollback source).
//  2. Apply the optimistic projection, if configured.
//  3. Await the transport; commit the authoritative result or roll back
//     to the exact snapshot.
//  4. Settle: the caller's OnSettled always runs.
//
// Phases 1-2 and the commit/rollback step run under the plan's lock; the
// transport await does not, so a second mutation on the same target
// snapshots the first one's post-optimistic state.
func runMutation[T any, V any](ctx context.Context, rt *runtime, mc *entity.MutationConfig[T, V], vars V, plan mutationPlan[T]) Outcome[T] {
	if mc == nil {
		return Outcome[T]{Kind: OutcomeRolledBack, Err: entity.NewConfigError("operation not configured")}
	}

	settle := func(out Outcome[T]) Outcome[T] {
		if out.Err != nil && mc.OnError != nil {
			mc.OnError(ctx, out.Err, vars)
		}
		if out.Err == nil && mc.OnSuccess != nil {
			mc.OnSuccess(ctx, out.Result, vars)
		}
		if mc.OnSettled != nil {
			mc.OnSettled(ctx, vars)
		}
		return out
	}

	mu := rt.lock(plan.lockKey)
	mu.Lock()

	snap := captureSnapshot(ctx, rt, plan.snapshotKeys(ctx))

	// OnMutate errors abort before the transport is ever called.
	if mc.OnMutate != nil {
		if err := mc.OnMutate(ctx, vars); err != nil {
			mu.Unlock()
			return settle(Outcome[T]{Kind: OutcomeRolledBack, Snapshot: snap, Err: err})
		}
	}

	if plan.applyOptimistic != nil {
		if err := plan.applyOptimistic(ctx); err != nil {
			// A half-applied projection is restored before reporting.
			snap.restore(ctx, rt)
			mu.Unlock()
			return settle(Outcome[T]{Kind: OutcomeRolledBack, Snapshot: snap, Err: err})
		}
		rt.log.Debug().Str("mutation", rt.ser.SerializeKey(mc.Key)).Msg("optimistic apply")
	}

	mu.Unlock()

	result, err := mc.Fn(ctx, vars)

	mu.Lock()
	if err != nil {
		snap.restore(ctx, rt)
		mu.Unlock()
		rt.log.Debug().Str("mutation", rt.ser.SerializeKey(mc.Key)).Err(err).Msg("rolled back")
		return settle(Outcome[T]{Kind: OutcomeRolledBack, Snapshot: snap, Err: err})
	}

	if cerr := plan.commit(ctx, result); cerr != nil {
		snap.restore(ctx, rt)
		mu.Unlock()
		return settle(Outcome[T]{Kind: OutcomeRolledBack, Snapshot: snap, Err: cerr})
	}
	for _, key := range mc.Invalidates {
		_ = rt.store.InvalidatePrefix(ctx, rt.ser.SerializeKey(key))
	}
	mu.Unlock()

	return settle(Outcome[T]{Kind: OutcomeCommitted, Snapshot: snap, Result: result})
}
