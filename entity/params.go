package entity

// ListParams selects and orders a page of records. The zero value asks for
// the backend's defaults; every distinct combination occupies its own
// cache slot.
type ListParams struct {
	Page   int               `json:"page,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Sort   string            `json:"sort,omitempty"`
	Order  string            `json:"order,omitempty"`
	Filter map[string]string `json:"filter,omitempty"`
}

// SearchParams drives a search operation. Query must be non-empty for the
// transport to be called at all.
type SearchParams struct {
	Query  string            `json:"query"`
	Limit  int               `json:"limit,omitempty"`
	Filter map[string]string `json:"filter,omitempty"`
}

// ListMeta carries pagination facts alongside a page of records.
type ListMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListResult is a page of records plus its pagination meta.
type ListResult[T any] struct {
	Data []T      `json:"data"`
	Meta ListMeta `json:"meta"`
}

// SearchMeta carries search stats alongside matched records.
type SearchMeta struct {
	Query string `json:"query"`
	Total int    `json:"total"`
}

// SearchResult is the outcome of a search operation.
type SearchResult[T any] struct {
	Data []T        `json:"data"`
	Meta SearchMeta `json:"meta"`
}

// Patch is a partial payload for update operations: json field name to new
// value.
type Patch map[string]any

// UpdateVars identifies an update's target and carries its partial
// payload.
type UpdateVars struct {
	ID    ID
	Patch Patch
}
