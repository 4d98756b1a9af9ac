package entity

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validator is the narrow contract this layer holds against whatever
// validation library the caller uses. Parse rejects an invalid payload
// with a *ValidationError; SafeParse reports the same outcome without
// requiring the caller to type-switch.
type Validator interface {
	Parse(v any) error
	SafeParse(v any) (bool, error)
}

// ValidatorFunc adapts a plain function into a Validator.
type ValidatorFunc func(v any) error

func (f ValidatorFunc) Parse(v any) error {
	return f(v)
}

func (f ValidatorFunc) SafeParse(v any) (bool, error) {
	if err := f(v); err != nil {
		return false, err
	}
	return true, nil
}

// ozzoValidator validates payloads that implement ozzo's Validatable,
// translating rule failures into the ValidationError taxonomy. It carries
// state so every instance has its own identity; registries key
// definitions by validator instance.
type ozzoValidator struct {
	fallbackField string
}

// NewOzzoValidator returns a Validator backed by ozzo-validation. Payloads
// must implement validation.Validatable; anything else passes through
// unvalidated. Each call returns a distinct instance.
func NewOzzoValidator() Validator {
	return &ozzoValidator{fallbackField: "value"}
}

func (o *ozzoValidator) Parse(v any) error {
	validatable, ok := v.(validation.Validatable)
	if !ok {
		return nil
	}
	if err := validatable.Validate(); err != nil {
		return wrapOzzoError(err, o.fallbackField)
	}
	return nil
}

func (o *ozzoValidator) SafeParse(v any) (bool, error) {
	if err := o.Parse(v); err != nil {
		return false, err
	}
	return true, nil
}

// wrapOzzoError flattens ozzo's per-field error map into the Fields of a
// ValidationError. Non-field errors land under fallbackField.
func wrapOzzoError(err error, fallbackField string) error {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for name, fieldErr := range fieldErrs {
			fields[name] = fieldErr.Error()
		}
		return NewValidationError(fields)
	}
	return NewValidationError(map[string]string{fallbackField: err.Error()})
}
