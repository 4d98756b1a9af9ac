package cache

import (
	"fmt"
	"time"
)

// Policy describes how long a cached read stays usable and how its fetch
// retries on transient failure.
type Policy struct {
	// StaleTime is how long after a successful fetch a cached value is
	// served without touching the transport.
	StaleTime time.Duration

	// GCTime is how long an entry survives without being read before the
	// store evicts it.
	GCTime time.Duration

	// RefetchOnFocus is advisory for UI hosts; the executors never act on
	// it themselves.
	RefetchOnFocus bool

	// Retry is the number of additional transport attempts after the first
	// failure.
	Retry int

	// RetryBaseDelay seeds the exponential backoff between attempts.
	RetryBaseDelay time.Duration

	// RetryMaxDelay clamps the backoff.
	RetryMaxDelay time.Duration
}

// Collection and single-item reads tolerate more staleness than search,
// where underlying relevance can shift quickly.
const (
	defaultStaleTime = 5 * time.Minute
	defaultGCTime    = 10 * time.Minute

	defaultSearchStaleTime = 30 * time.Second
	defaultSearchGCTime    = 5 * time.Minute

	defaultRetryBaseDelay = time.Second
)

// Merged treats zero override fields as unset, so these sentinels mark a
// field as deliberately zero: StaleTimeNone forces every read through the
// transport, RetryNone disables retries. Merged normalizes both to 0.
const (
	StaleTimeNone time.Duration = -1
	RetryNone     int           = -1
)

// DefaultReadPolicy returns the policy applied to list and get operations
// when the entity definition does not override it.
func DefaultReadPolicy() Policy {
	return Policy{
		StaleTime:      defaultStaleTime,
		GCTime:         defaultGCTime,
		Retry:          3,
		RetryBaseDelay: defaultRetryBaseDelay,
		RetryMaxDelay:  30 * time.Second,
	}
}

// DefaultSearchPolicy returns the policy applied to search operations when
// the entity definition does not override it.
func DefaultSearchPolicy() Policy {
	return Policy{
		StaleTime:      defaultSearchStaleTime,
		GCTime:         defaultSearchGCTime,
		Retry:          2,
		RetryBaseDelay: defaultRetryBaseDelay,
		RetryMaxDelay:  15 * time.Second,
	}
}

// Backoff returns the delay before the given retry attempt, starting at
// zero: base * 2^attempt, clamped to RetryMaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.RetryBaseDelay
	if base <= 0 {
		base = defaultRetryBaseDelay
	}
	d := base << uint(attempt)
	if d <= 0 || (p.RetryMaxDelay > 0 && d > p.RetryMaxDelay) {
		return p.RetryMaxDelay
	}
	return d
}

// Validate checks the policy for values the executors cannot work with.
func (p Policy) Validate() error {
	if p.StaleTime < 0 {
		return fmt.Errorf("cache policy: StaleTime must be non-negative, got %v", p.StaleTime)
	}
	if p.GCTime <= 0 {
		return fmt.Errorf("cache policy: GCTime must be positive, got %v", p.GCTime)
	}
	if p.GCTime < p.StaleTime {
		return fmt.Errorf("cache policy: GCTime %v must not be shorter than StaleTime %v", p.GCTime, p.StaleTime)
	}
	if p.Retry < 0 {
		return fmt.Errorf("cache policy: Retry must be non-negative, got %d", p.Retry)
	}
	if p.RetryBaseDelay < 0 || p.RetryMaxDelay < 0 {
		return fmt.Errorf("cache policy: retry delays must be non-negative")
	}
	return nil
}

// Merged returns p with zero fields filled from defaults. Used by the
// resolver when a definition overrides only part of a policy. StaleTimeNone
// and RetryNone survive as explicit zeros instead of being filled.
func (p Policy) Merged(defaults Policy) Policy {
	switch p.StaleTime {
	case StaleTimeNone:
		p.StaleTime = 0
	case 0:
		p.StaleTime = defaults.StaleTime
	}
	if p.GCTime == 0 {
		p.GCTime = defaults.GCTime
	}
	switch p.Retry {
	case RetryNone:
		p.Retry = 0
	case 0:
		p.Retry = defaults.Retry
	}
	if p.RetryBaseDelay == 0 {
		p.RetryBaseDelay = defaults.RetryBaseDelay
	}
	if p.RetryMaxDelay == 0 {
		p.RetryMaxDelay = defaults.RetryMaxDelay
	}
	return p
}
