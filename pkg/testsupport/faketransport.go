package testsupport

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-entity-client/entity"
	"github.com/goliatone/go-entity-client/transport"
)

// Interface assertion to ensure FakeTransport implements Transport[T].
var _ transport.Transport[struct{}] = (*FakeTransport[struct{}])(nil)

// FakeTransport is a scriptable in-memory backend for executor tests. It
// behaves like a well-mannered server — uuid-assigned ids, refreshed
// envelope timestamps — and can be told to fail any operation.
type FakeTransport[T any] struct {
	mu      sync.Mutex
	records map[entity.ID]T
	order   []entity.ID
	calls   map[entity.Operation]int
	fail    map[entity.Operation]error
	clock   func() time.Time

	// Hook, when set, runs at the start of every operation, outside the
	// transport's lock. Tests use it to coordinate concurrent callers.
	Hook func(op entity.Operation)
}

// NewFakeTransport creates an empty fake backend.
func NewFakeTransport[T any]() *FakeTransport[T] {
	return &FakeTransport[T]{
		records: make(map[entity.ID]T),
		calls:   make(map[entity.Operation]int),
		fail:    make(map[entity.Operation]error),
		clock:   time.Now,
	}
}

// Seed loads records directly into the backend, keeping insertion order.
// Records without an id are rejected silently; seed complete fixtures.
func (f *FakeTransport[T]) Seed(records ...T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		if id, ok := entity.IDOf(r); ok && id != "" {
			if _, exists := f.records[id]; !exists {
				f.order = append(f.order, id)
			}
			f.records[id] = r
		}
	}
}

// FailWith makes every subsequent call to op return err. A nil err
// clears the failure.
func (f *FakeTransport[T]) FailWith(op entity.Operation, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// Calls reports how many times op reached the backend.
func (f *FakeTransport[T]) Calls(op entity.Operation) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Supports reports true; the fake backs every operation.
func (f *FakeTransport[T]) Supports(op entity.Operation) bool { return true }

func (f *FakeTransport[T]) begin(op entity.Operation) error {
	if f.Hook != nil {
		f.Hook(op)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *FakeTransport[T]) List(ctx context.Context, params entity.ListParams) (entity.ListResult[T], error) {
	if err := f.begin(entity.OpList); err != nil {
		return entity.ListResult[T]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data := make([]T, 0, len(f.order))
	for _, id := range f.order {
		data = append(data, f.records[id])
	}
	return entity.ListResult[T]{
		Data: data,
		Meta: entity.ListMeta{Page: params.Page, Limit: params.Limit, Total: len(data)},
	}, nil
}

func (f *FakeTransport[T]) Get(ctx context.Context, id entity.ID) (T, error) {
	var zero T
	if err := f.begin(entity.OpGet); err != nil {
		return zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.records[id]
	if !ok {
		return zero, entity.NewNotFoundError("record", id)
	}
	return record, nil
}

func (f *FakeTransport[T]) Search(ctx context.Context, params entity.SearchParams) (entity.SearchResult[T], error) {
	if err := f.begin(entity.OpSearch); err != nil {
		return entity.SearchResult[T]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// Naive matching: a record matches when its id contains the query.
	data := make([]T, 0)
	for _, id := range f.order {
		if strings.Contains(strings.ToLower(id), strings.ToLower(params.Query)) {
			data = append(data, f.records[id])
		}
	}
	return entity.SearchResult[T]{
		Data: data,
		Meta: entity.SearchMeta{Query: params.Query, Total: len(data)},
	}, nil
}

func (f *FakeTransport[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	if err := f.begin(entity.OpCreate); err != nil {
		return zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock()
	id := uuid.NewString()
	record = entity.WithID(record, id)
	record = entity.WithTimestamps(record, now, now)
	f.records[id] = record
	f.order = append(f.order, id)
	return record, nil
}

func (f *FakeTransport[T]) Update(ctx context.Context, id entity.ID, patch entity.Patch) (T, error) {
	var zero T
	if err := f.begin(entity.OpUpdate); err != nil {
		return zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	current, ok := f.records[id]
	if !ok {
		return zero, entity.NewNotFoundError("record", id)
	}
	merged, err := entity.MergePatch(current, patch)
	if err != nil {
		return zero, entity.NewGenericError("MERGE_FAILED", err.Error())
	}
	merged = entity.WithID(merged, id)
	merged = entity.WithTimestamps(merged, time.Time{}, f.clock())
	f.records[id] = merged
	return merged, nil
}

func (f *FakeTransport[T]) Delete(ctx context.Context, id entity.ID) error {
	if err := f.begin(entity.OpDelete); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[id]; !ok {
		return entity.NewNotFoundError("record", id)
	}
	delete(f.records, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}
