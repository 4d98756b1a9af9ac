package entity

// Operation names one of the six logical entity operations.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpSearch Operation = "search"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ReadOperations lists the cached read operations.
var ReadOperations = []Operation{OpList, OpGet, OpSearch}

// WriteOperations lists the cache-mutating write operations.
var WriteOperations = []Operation{OpCreate, OpUpdate, OpDelete}

// Flags records which operations were actually configured for an entity.
// Informational: the facade consults it to decide whether to expose a
// call.
type Flags struct {
	CanList   bool
	CanGet    bool
	CanSearch bool
	CanCreate bool
	CanUpdate bool
	CanDelete bool
}

// Can reports whether the given operation was configured.
func (f Flags) Can(op Operation) bool {
	switch op {
	case OpList:
		return f.CanList
	case OpGet:
		return f.CanGet
	case OpSearch:
		return f.CanSearch
	case OpCreate:
		return f.CanCreate
	case OpUpdate:
		return f.CanUpdate
	case OpDelete:
		return f.CanDelete
	}
	return false
}

// Metadata describes a resolved entity type.
type Metadata struct {
	// Name is the entity's cache namespace and the first segment of every
	// cache key it owns.
	Name string

	// Version is a caller-defined schema version string.
	Version string

	// Validator is the payload validator bound to this entity, if any.
	Validator Validator

	// Flags records the configured operations.
	Flags Flags

	// Endpoints holds the resolved endpoint template per operation for
	// HTTP-backed entities; empty for server-action entities.
	Endpoints map[Operation]string
}
