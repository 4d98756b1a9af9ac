package entity

import (
	"errors"
	"fmt"
	"time"
)

// ConflictType categorizes a ConflictError.
type ConflictType string

const (
	ConflictDuplicate  ConflictType = "DUPLICATE"
	ConflictVersion    ConflictType = "VERSION"
	ConflictConstraint ConflictType = "CONSTRAINT"
)

// ValidationError reports a payload that failed validation, with one
// message per offending field.
type ValidationError struct {
	Fields    map[string]string
	Timestamp time.Time
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NewValidationError builds a ValidationError stamped with the current
// time.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields, Timestamp: time.Now()}
}

// NotFoundError reports a record that does not exist.
type NotFoundError struct {
	EntityType string
	EntityID   ID
	Timestamp  time.Time
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.EntityType, e.EntityID)
}

// NewNotFoundError builds a NotFoundError stamped with the current time.
func NewNotFoundError(entityType string, id ID) *NotFoundError {
	return &NotFoundError{EntityType: entityType, EntityID: id, Timestamp: time.Now()}
}

// ConflictError reports a write rejected because of a duplicate, version,
// or constraint conflict.
type ConflictError struct {
	ConflictType ConflictType
	Message      string
	Timestamp    time.Time
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("conflict (%s): %s", e.ConflictType, e.Message)
	}
	return fmt.Sprintf("conflict (%s)", e.ConflictType)
}

// NewConflictError builds a ConflictError stamped with the current time.
func NewConflictError(kind ConflictType, message string) *ConflictError {
	return &ConflictError{ConflictType: kind, Message: message, Timestamp: time.Now()}
}

// GenericError is the catch-all operation error, carrying a
// machine-readable code. HTTP failures surface as GenericError with code
// "HTTP_<status>".
type GenericError struct {
	Code      string
	Message   string
	Timestamp time.Time
}

func (e *GenericError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// NewGenericError builds a GenericError stamped with the current time.
func NewGenericError(code, message string) *GenericError {
	return &GenericError{Code: code, Message: message, Timestamp: time.Now()}
}

// ConfigError reports a programmer error: unknown transport, missing
// registration, operation not configured. Raised synchronously at
// configuration or call time, never retried.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "entity config: " + e.Message
}

// NewConfigError builds a ConfigError.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a configuration error. The query
// executor never retries these.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
