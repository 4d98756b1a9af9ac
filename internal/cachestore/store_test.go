package cachestore

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-entity-client/cache"
)

// manualClock lets tests move time without sleeping.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, clock *manualClock) *Store {
	t.Helper()
	s, err := New(Config{SweepInterval: 0, Clock: clock.Now})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestStore_SetGet(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	e := cache.Entry{Value: "v1", FetchedAt: clock.Now()}
	if err := s.Set(ctx, "user::get::u1", e, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, ok := s.Get(ctx, "user::get::u1")
	if !ok {
		t.Fatal("Get() miss for stored key")
	}
	if got.Value != "v1" {
		t.Errorf("Value = %v, want v1", got.Value)
	}
	if got.Invalid {
		t.Error("fresh entry must not be invalid")
	}

	if _, ok := s.Get(ctx, "user::get::other"); ok {
		t.Error("Get() hit for missing key")
	}
}

func TestStore_SetRejectsNonPositiveTTL(t *testing.T) {
	s := newTestStore(t, newManualClock())
	if err := s.Set(context.Background(), "k", cache.Entry{}, 0); err == nil {
		t.Error("Set() with zero ttl must fail")
	}
}

func TestStore_ExpiryIsAMiss(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	s.Set(ctx, "k", cache.Entry{Value: 1}, time.Minute)

	clock.Advance(2 * time.Minute)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("expired entry must read as a miss")
	}
}

func TestStore_GetExtendsDeadline(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	s.Set(ctx, "k", cache.Entry{Value: 1}, time.Minute)

	// Keep reading just inside the deadline; the entry must survive well
	// past its original expiry.
	for i := 0; i < 5; i++ {
		clock.Advance(50 * time.Second)
		if _, ok := s.Get(ctx, "k"); !ok {
			t.Fatalf("entry evicted despite active reads (iteration %d)", i)
		}
	}
}

func TestStore_InvalidateKeepsValue(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	s.Set(ctx, "k", cache.Entry{Value: "stale-fallback"}, time.Minute)
	if err := s.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}

	got, ok := s.Get(ctx, "k")
	if !ok {
		t.Fatal("invalidated entry must remain readable")
	}
	if !got.Invalid {
		t.Error("entry must be flagged invalid")
	}
	if got.Value != "stale-fallback" {
		t.Errorf("Value = %v, want preserved", got.Value)
	}
}

func TestStore_InvalidateMissingIsNoop(t *testing.T) {
	s := newTestStore(t, newManualClock())
	if err := s.Invalidate(context.Background(), "missing"); err != nil {
		t.Errorf("Invalidate() on missing key: %v", err)
	}
	if s.Len() != 0 {
		t.Error("invalidating a missing key must not create an entry")
	}
}

func TestStore_PrefixOperations(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	s.Set(ctx, "user::list::{page:1}", cache.Entry{Value: 1}, time.Minute)
	s.Set(ctx, "user::list::{page:2}", cache.Entry{Value: 2}, time.Minute)
	s.Set(ctx, "user::get::u1", cache.Entry{Value: 3}, time.Minute)
	s.Set(ctx, "post::list::{page:1}", cache.Entry{Value: 4}, time.Minute)

	keys := s.KeysWithPrefix(ctx, "user::list")
	sort.Strings(keys)
	want := []string{"user::list::{page:1}", "user::list::{page:2}"}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Fatalf("KeysWithPrefix = %v, want %v", keys, want)
	}

	if err := s.InvalidatePrefix(ctx, "user::list"); err != nil {
		t.Fatalf("InvalidatePrefix() error: %v", err)
	}
	for _, key := range want {
		e, ok := s.Get(ctx, key)
		if !ok || !e.Invalid {
			t.Errorf("entry %q must be invalid after prefix invalidation", key)
		}
	}
	if e, _ := s.Get(ctx, "user::get::u1"); e.Invalid {
		t.Error("get entry must not be touched by list prefix invalidation")
	}
	if e, _ := s.Get(ctx, "post::list::{page:1}"); e.Invalid {
		t.Error("other entity must not be touched")
	}
}

func TestStore_Sweep(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	s.Set(ctx, "short", cache.Entry{Value: 1}, time.Minute)
	s.Set(ctx, "long", cache.Entry{Value: 2}, time.Hour)

	clock.Advance(10 * time.Minute)
	removed := s.Sweep()
	if removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if _, ok := s.Get(ctx, "long"); !ok {
		t.Error("unexpired entry must survive the sweep")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStore_Delete(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	s.Set(ctx, "k", cache.Entry{Value: 1}, time.Minute)
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("deleted entry must not be readable")
	}
}

func TestStore_WholeEntryReplacement(t *testing.T) {
	clock := newManualClock()
	s := newTestStore(t, clock)
	ctx := context.Background()

	// Concurrent readers and writers on one key: every read must observe
	// a coherent entry, never a torn one.
	type pair struct{ A, B int }
	s.Set(ctx, "k", cache.Entry{Value: pair{0, 0}}, time.Hour)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Set(ctx, "k", cache.Entry{Value: pair{i, i}}, time.Hour)
			}
		}(w)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 400; i++ {
			if e, ok := s.Get(ctx, "k"); ok {
				p := e.Value.(pair)
				if p.A != p.B {
					t.Errorf("torn read: %+v", p)
					return
				}
			}
		}
	}()
	wg.Wait()
	<-done
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{SweepInterval: -1}).Validate(); err == nil {
		t.Error("negative SweepInterval must fail validation")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
