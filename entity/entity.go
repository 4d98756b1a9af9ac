package entity

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// ID uniquely identifies a record and is stable for its lifetime.
// Server-assigned; optimistic creates use a temporary value until the
// write commits.
type ID = string

// BaseEntity is the envelope every record carries. Embed it in concrete
// record types; the envelope fields are never client-mutated directly,
// only a transport write response may change them.
type BaseEntity struct {
	ID        ID        `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TempID returns the temporary identifier assigned to optimistic creates
// before the server responds.
func TempID(now time.Time) ID {
	return fmt.Sprintf("temp-%d", now.UnixMilli())
}

// IDOf extracts the identifier from a record, looking for an ID field
// directly or through an embedded BaseEntity. Works on values and
// pointers.
func IDOf(record any) (ID, bool) {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", false
	}

	field := idField(v)
	if !field.IsValid() || field.Kind() != reflect.String {
		return "", false
	}
	return field.String(), true
}

// idField locates the ID field on a struct value, descending into an
// embedded BaseEntity when present.
func idField(v reflect.Value) reflect.Value {
	if base := v.FieldByName("BaseEntity"); base.IsValid() && base.Kind() == reflect.Struct {
		if f := base.FieldByName("ID"); f.IsValid() {
			return f
		}
	}
	for _, name := range []string{"ID", "Id"} {
		if f := v.FieldByName(name); f.IsValid() {
			return f
		}
	}
	return reflect.Value{}
}

// WithID returns a copy of record with its identifier set. Returns the
// record unchanged when no settable ID field exists.
func WithID[T any](record T, id ID) T {
	v, materialize, ok := addressableCopy(record)
	if !ok {
		return record
	}
	field := idField(v)
	if !field.IsValid() || !field.CanSet() || field.Kind() != reflect.String {
		return record
	}
	field.SetString(id)
	return materialize()
}

// WithTimestamps returns a copy of record with envelope timestamps set.
// Zero created leaves CreatedAt untouched, so updates refresh only
// UpdatedAt.
func WithTimestamps[T any](record T, created, updated time.Time) T {
	v, materialize, ok := addressableCopy(record)
	if !ok {
		return record
	}
	if !created.IsZero() {
		setTimeField(v, "CreatedAt", created)
	}
	if !updated.IsZero() {
		setTimeField(v, "UpdatedAt", updated)
	}
	return materialize()
}

func setTimeField(v reflect.Value, name string, t time.Time) {
	field := v.FieldByName(name)
	if base := v.FieldByName("BaseEntity"); base.IsValid() && base.Kind() == reflect.Struct {
		if f := base.FieldByName(name); f.IsValid() {
			field = f
		}
	}
	if field.IsValid() && field.CanSet() && field.Type() == reflect.TypeOf(time.Time{}) {
		field.Set(reflect.ValueOf(t))
	}
}

// addressableCopy clones record into an addressable value so reflection
// can set fields on it without mutating the caller's copy. The returned
// materialize func reads the clone back out after mutation.
func addressableCopy[T any](record T) (reflect.Value, func() T, bool) {
	rv := reflect.ValueOf(record)
	if rv.Kind() == reflect.Pointer {
		// Pointers are cloned one level deep so the caller's record is
		// never mutated through the shared pointee.
		if rv.IsNil() {
			return reflect.Value{}, nil, false
		}
		clone := reflect.New(rv.Type().Elem())
		clone.Elem().Set(rv.Elem())
		if clone.Elem().Kind() != reflect.Struct {
			return reflect.Value{}, nil, false
		}
		return clone.Elem(), func() T { return clone.Interface().(T) }, true
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, nil, false
	}
	clone := reflect.New(rv.Type())
	clone.Elem().Set(rv)
	return clone.Elem(), func() T { return clone.Elem().Interface().(T) }, true
}

// MergePatch overlays a partial payload onto a record through a JSON
// round-trip, matching the wire semantics of a partial update: patch keys
// replace record fields by their json tag, everything else is preserved.
func MergePatch[T any](record T, patch map[string]any) (T, error) {
	var zero T

	base, err := json.Marshal(record)
	if err != nil {
		return zero, fmt.Errorf("merge patch: marshal record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return zero, fmt.Errorf("merge patch: decode record: %w", err)
	}
	for k, v := range patch {
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return zero, fmt.Errorf("merge patch: marshal merged: %w", err)
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("merge patch: decode merged: %w", err)
	}
	return out, nil
}
