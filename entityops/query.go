package entityops

import (
	"context"
	"time"

	"github.com/goliatone/go-entity-client/cache"
	"github.com/goliatone/go-entity-client/entity"
)

// QueryResult is what a read operation hands back to the caller. Reads
// degrade gracefully: when every retry fails but an older value is
// cached, Data carries that value, Err the failure, and Stale is set.
type QueryResult[T any] struct {
	Data T

	// Err is the last transport error, if the read could not be served
	// fresh.
	Err error

	// Stale marks Data as older than the operation's staleness window.
	Stale bool

	// Disabled marks a read whose gate failed (empty id or query); the
	// transport was never called and Err is nil.
	Disabled bool

	// FetchedAt is when Data was last confirmed against the source.
	FetchedAt time.Time
}

// OK reports whether the result carries fresh, usable data.
func (r QueryResult[T]) OK() bool {
	return r.Err == nil && !r.Disabled
}

// runQuery executes one read: serve a fresh cache hit without a network
// call, otherwise fetch through singleflight so concurrent callers for
// the same key share one transport invocation, retrying transient
// failures with capped exponential backoff.
func runQuery[T any, P any](ctx context.Context, rt *runtime, qc *entity.QueryConfig[T, P], params P) QueryResult[T] {
	if qc == nil {
		return QueryResult[T]{Err: entity.NewConfigError("operation not configured")}
	}

	key := rt.ser.SerializeKey(qc.Key(params))
	now := rt.clock()

	prev, cached := rt.store.Get(ctx, key)
	if cached && prev.Fresh(now, qc.Policy.StaleTime) {
		rt.log.Debug().Str("key", key).Msg("cache hit")
		return QueryResult[T]{Data: prev.Value.(T), FetchedAt: prev.FetchedAt}
	}

	fetched, err, shared := rt.group.Do(key, func() (any, error) {
		return fetchWithRetry(ctx, rt, qc, params, key)
	})
	if err == nil {
		e := fetched.(cache.Entry)
		rt.log.Debug().Str("key", key).Bool("shared", shared).Msg("fetched")
		return QueryResult[T]{Data: e.Value.(T), FetchedAt: e.FetchedAt}
	}

	if cached {
		// Exhausted retries leave the previous value in place: stale but
		// displayed, never cleared.
		rt.log.Debug().Str("key", key).Err(err).Msg("fetch failed, serving stale")
		return QueryResult[T]{Data: prev.Value.(T), Err: err, Stale: true, FetchedAt: prev.FetchedAt}
	}
	return QueryResult[T]{Err: err}
}

func fetchWithRetry[T any, P any](ctx context.Context, rt *runtime, qc *entity.QueryConfig[T, P], params P, key string) (cache.Entry, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		data, err := qc.Fetch(ctx, params)
		if err == nil {
			if qc.Transform != nil {
				data = qc.Transform(data)
			}
			e := cache.Entry{Value: data, FetchedAt: rt.clock()}
			if serr := rt.store.Set(ctx, key, e, qc.Policy.GCTime); serr != nil {
				return cache.Entry{}, serr
			}
			return e, nil
		}

		lastErr = err
		if entity.IsConfigError(err) || attempt >= qc.Policy.Retry {
			return cache.Entry{}, lastErr
		}

		delay := qc.Policy.Backoff(attempt)
		rt.log.Debug().Str("key", key).Int("attempt", attempt).Dur("backoff", delay).Err(err).Msg("retrying fetch")
		if serr := rt.sleep(ctx, delay); serr != nil {
			return cache.Entry{}, lastErr
		}
	}
}
