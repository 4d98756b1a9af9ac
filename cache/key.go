package cache

// Key is an ordered tuple identifying a cached value. By convention the
// first two segments are the entity name and the operation name, followed
// by whatever parameters distinguish one result from another:
//
//	[entityName, "list", listParams]
//	[entityName, "get", id]
//	[entityName, "search", searchParams]
//
// Two keys are equal iff they are structurally equal; the serialized string
// form produced by a KeySerializer is the store-level identity.
type Key []any

// ListKey returns the canonical key for a list operation. Distinct
// page/filter/sort combinations produce distinct keys.
func ListKey(entityName string, params any) Key {
	return Key{entityName, "list", params}
}

// GetKey returns the canonical key for a single-item fetch.
func GetKey(entityName, id string) Key {
	return Key{entityName, "get", id}
}

// SearchKey returns the canonical key for a search operation.
func SearchKey(entityName string, params any) Key {
	return Key{entityName, "search", params}
}

// ListPrefix returns the key prefix shared by every list entry of an
// entity. Serialized, it is the prefix used to touch or invalidate all
// cached pages at once.
func ListPrefix(entityName string) Key {
	return Key{entityName, "list"}
}

// EntityNamespace returns the serialized prefix covering every cached
// entry for an entity, trailing separator included. Without the separator
// an entity whose name is a proper prefix of another ("user",
// "userProfile") would match the other entity's entries in a shared store.
func EntityNamespace(ser KeySerializer, entityName string) string {
	return ser.SerializeKey(Key{entityName}) + KeySeparator
}

// KeySerializer produces the stable string form of a Key. Implementations
// must be deterministic across runs for any value placed in a key segment.
type KeySerializer interface {
	SerializeKey(key Key) string
}
