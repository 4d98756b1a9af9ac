// Package entity holds the data model of the entity layer: the record
// envelope, operation vocabulary, typed errors, the validator contract,
// and the resolved per-entity configuration consumed by the executors.
//
// Records are plain structs embedding BaseEntity:
//
//	type User struct {
//		entity.BaseEntity
//		Name  string `json:"name"`
//		Email string `json:"email"`
//	}
//
// Identifier and timestamp access goes through reflection helpers (IDOf,
// WithID, WithTimestamps) so the layer places no interface requirements on
// record types.
//
// Errors form a closed taxonomy: ValidationError, NotFoundError,
// ConflictError, and GenericError cover operation failures; ConfigError
// covers programmer errors and is never retried. Transport failures are
// wrapped into one of these at the transport boundary and never surface
// raw.
package entity
