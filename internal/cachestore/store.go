// Package cachestore is the in-process implementation of the cache.Store
// contract: a sharded concurrent map with per-entry eviction deadlines and
// a background janitor sweep.
package cachestore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-entity-client/cache"
)

// Interface assertion to ensure Store implements cache.Store.
var _ cache.Store = (*Store)(nil)

// Config holds settings for the in-process store.
type Config struct {
	// SweepInterval is how often the janitor scans for expired entries.
	// Zero disables the background sweep; Sweep can still be called
	// directly.
	SweepInterval time.Duration

	// Clock supplies the current time. Nil uses time.Now. Injected by
	// tests that reason about eviction deadlines.
	Clock func() time.Time
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SweepInterval: time.Minute,
		Clock:         time.Now,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.SweepInterval < 0 {
		return &ConfigError{Field: "SweepInterval", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "cachestore config error in field " + e.Field + ": " + e.Message
}

// record wraps a cache entry with its eviction bookkeeping. Records are
// replaced wholesale so concurrent readers never see a torn entry.
type record struct {
	entry     cache.Entry
	ttl       time.Duration
	expiresAt time.Time
}

// Store is a cache.Store backed by an xsync map. All entry updates go
// through Compute so read-side deadline refreshes never clobber a
// concurrent write.
type Store struct {
	entries  *xsync.MapOf[string, record]
	cfg      Config
	stopOnce sync.Once
	stop     chan struct{}
}

// New creates a store and, when SweepInterval is positive, starts its
// janitor goroutine. Call Stop to halt the janitor.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &Store{
		entries: xsync.NewMapOf[string, record](),
		cfg:     cfg,
		stop:    make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go s.janitor()
	}
	return s, nil
}

func (s *Store) janitor() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

// Get returns the live entry for key and extends its eviction deadline.
// Expired entries are treated as misses and removed.
func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool) {
	now := s.cfg.Clock()
	var out cache.Entry
	_, ok := s.entries.Compute(key, func(old record, loaded bool) (record, bool) {
		if !loaded {
			return record{}, true // nothing stored; do not create
		}
		if now.After(old.expiresAt) {
			return record{}, true // expired; drop it
		}
		old.expiresAt = now.Add(old.ttl)
		out = old.entry
		return old, false
	})
	if !ok {
		return cache.Entry{}, false
	}
	return out, true
}

// Set stores entry under key with an eviction deadline of now+ttl.
func (s *Store) Set(ctx context.Context, key string, entry cache.Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return &ConfigError{Field: "ttl", Message: "must be positive"}
	}
	s.entries.Store(key, record{
		entry:     entry,
		ttl:       ttl,
		expiresAt: s.cfg.Clock().Add(ttl),
	})
	return nil
}

// Delete removes the entry for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// Invalidate marks the entry untrustworthy, keeping its value available as
// a stale fallback.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	s.entries.Compute(key, func(old record, loaded bool) (record, bool) {
		if !loaded {
			return record{}, true
		}
		old.entry.Invalid = true
		return old, false
	})
	return nil
}

// InvalidatePrefix marks every live entry whose key starts with prefix.
func (s *Store) InvalidatePrefix(ctx context.Context, prefix string) error {
	for _, key := range s.KeysWithPrefix(ctx, prefix) {
		if err := s.Invalidate(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// KeysWithPrefix lists live keys starting with prefix.
func (s *Store) KeysWithPrefix(ctx context.Context, prefix string) []string {
	now := s.cfg.Clock()
	var keys []string
	s.entries.Range(func(key string, rec record) bool {
		if strings.HasPrefix(key, prefix) && !now.After(rec.expiresAt) {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

// Len reports the number of stored entries, expired or not.
func (s *Store) Len() int {
	return s.entries.Size()
}

// Sweep removes every expired entry. The janitor calls this on its
// interval; tests call it directly for deterministic eviction.
func (s *Store) Sweep() int {
	now := s.cfg.Clock()
	removed := 0
	s.entries.Range(func(key string, _ record) bool {
		_, kept := s.entries.Compute(key, func(old record, loaded bool) (record, bool) {
			if !loaded || now.After(old.expiresAt) {
				return record{}, true
			}
			return old, false
		})
		if !kept {
			removed++
		}
		return true
	})
	return removed
}

// Stop halts the janitor goroutine. The store remains usable.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
