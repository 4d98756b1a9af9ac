package transport

import (
	"context"

	"github.com/goliatone/go-entity-client/entity"
)

// Transport turns logical entity operations into actual backend calls.
// Two implementations exist: REST (HTTP) and ServerActions (in-process
// functions). Failures surface as the entity error taxonomy, never raw.
type Transport[T any] interface {
	List(ctx context.Context, params entity.ListParams) (entity.ListResult[T], error)
	Get(ctx context.Context, id entity.ID) (T, error)
	Search(ctx context.Context, params entity.SearchParams) (entity.SearchResult[T], error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, id entity.ID, patch entity.Patch) (T, error)
	Delete(ctx context.Context, id entity.ID) error

	// Supports reports whether the transport can execute the operation.
	// The resolver omits unsupported operations from the entity config.
	Supports(op entity.Operation) bool
}
