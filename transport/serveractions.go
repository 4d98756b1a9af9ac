package transport

import (
	"context"

	"github.com/goliatone/go-entity-client/entity"
)

// Actions holds the caller-supplied functions backing a server-action
// entity. A nil function simply omits that capability; absence is not an
// error.
type Actions[T any] struct {
	List   func(ctx context.Context, params entity.ListParams) (entity.ListResult[T], error)
	Get    func(ctx context.Context, id entity.ID) (T, error)
	Search func(ctx context.Context, params entity.SearchParams) (entity.SearchResult[T], error)
	Create func(ctx context.Context, record T) (T, error)
	Update func(ctx context.Context, id entity.ID, patch entity.Patch) (T, error)
	Delete func(ctx context.Context, id entity.ID) error
}

// ServerActions executes entity operations by invoking in-process
// functions directly.
type ServerActions[T any] struct {
	actions Actions[T]
}

// NewServerActions builds an in-process transport from the supplied
// action functions.
func NewServerActions[T any](actions Actions[T]) *ServerActions[T] {
	return &ServerActions[T]{actions: actions}
}

// Supports reports whether a function was supplied for the operation.
func (s *ServerActions[T]) Supports(op entity.Operation) bool {
	switch op {
	case entity.OpList:
		return s.actions.List != nil
	case entity.OpGet:
		return s.actions.Get != nil
	case entity.OpSearch:
		return s.actions.Search != nil
	case entity.OpCreate:
		return s.actions.Create != nil
	case entity.OpUpdate:
		return s.actions.Update != nil
	case entity.OpDelete:
		return s.actions.Delete != nil
	}
	return false
}

func (s *ServerActions[T]) List(ctx context.Context, params entity.ListParams) (entity.ListResult[T], error) {
	if s.actions.List == nil {
		return entity.ListResult[T]{}, entity.NewConfigError("server action %q not configured", entity.OpList)
	}
	return s.actions.List(ctx, params)
}

func (s *ServerActions[T]) Get(ctx context.Context, id entity.ID) (T, error) {
	if s.actions.Get == nil {
		var zero T
		return zero, entity.NewConfigError("server action %q not configured", entity.OpGet)
	}
	return s.actions.Get(ctx, id)
}

func (s *ServerActions[T]) Search(ctx context.Context, params entity.SearchParams) (entity.SearchResult[T], error) {
	if s.actions.Search == nil {
		return entity.SearchResult[T]{}, entity.NewConfigError("server action %q not configured", entity.OpSearch)
	}
	return s.actions.Search(ctx, params)
}

func (s *ServerActions[T]) Create(ctx context.Context, record T) (T, error) {
	if s.actions.Create == nil {
		var zero T
		return zero, entity.NewConfigError("server action %q not configured", entity.OpCreate)
	}
	return s.actions.Create(ctx, record)
}

func (s *ServerActions[T]) Update(ctx context.Context, id entity.ID, patch entity.Patch) (T, error) {
	if s.actions.Update == nil {
		var zero T
		return zero, entity.NewConfigError("server action %q not configured", entity.OpUpdate)
	}
	return s.actions.Update(ctx, id, patch)
}

func (s *ServerActions[T]) Delete(ctx context.Context, id entity.ID) error {
	if s.actions.Delete == nil {
		return entity.NewConfigError("server action %q not configured", entity.OpDelete)
	}
	return s.actions.Delete(ctx, id)
}

// Pipeline wraps a single action with validation and transform stages.
// Stages are optional; a nil stage is skipped.
type Pipeline[In, Out any] struct {
	// Validate rejects the input before any side effect. A failure
	// prevents the underlying call entirely.
	Validate func(in In) error

	// TransformInput reshapes the input before the call.
	TransformInput func(in In) (In, error)

	// TransformOutput reshapes the result after the call.
	TransformOutput func(out Out) (Out, error)
}

// WrapAction runs fn behind the pipeline's stages:
// validate -> transformInput -> fn -> transformOutput.
func WrapAction[In, Out any](fn func(ctx context.Context, in In) (Out, error), p Pipeline[In, Out]) func(ctx context.Context, in In) (Out, error) {
	return func(ctx context.Context, in In) (Out, error) {
		var zero Out

		if p.Validate != nil {
			if err := p.Validate(in); err != nil {
				return zero, err
			}
		}
		if p.TransformInput != nil {
			transformed, err := p.TransformInput(in)
			if err != nil {
				return zero, err
			}
			in = transformed
		}

		out, err := fn(ctx, in)
		if err != nil {
			return zero, err
		}

		if p.TransformOutput != nil {
			return p.TransformOutput(out)
		}
		return out, nil
	}
}
