// Package inventory wraps a types.Inventory with user-facing results.
//
// Every operation returns a Result carrying a ready-to-render message and an
// error Kind instead of a Go error, so the workflows can render success and
// failure the same way.
package inventory

import (
	"errors"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Kind classifies a failed Result.
type Kind string

// Result kinds. KindNone marks a successful result.
const (
	KindNone             Kind = ""
	KindNotFound         Kind = "not_found"
	KindAlreadyExists    Kind = "already_exists"
	KindEmptyResult      Kind = "empty_result"
	KindInvalidOperation Kind = "invalid_operation"
	KindValidation       Kind = "validation"
	KindTimeout          Kind = "timeout"
	KindStorage          Kind = "storage"
)

// Result is the tagged outcome of a store operation.
type Result[T any] struct {
	Success bool
	Message string
	Data    T
	Kind    Kind
	Detail  string // Underlying error text for logs. Empty on success.
}

// Err rebuilds an error from a failed result, or nil on success.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &ResultError{Kind: r.Kind, Message: r.Message, Detail: r.Detail}
}

// ResultError is the error form of a failed Result.
type ResultError struct {
	Kind    Kind
	Message string
	Detail  string
}

func (e *ResultError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// Is matches the sentinel error the kind came from.
func (e *ResultError) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == types.ErrNotFound
	case KindAlreadyExists:
		return target == types.ErrAlreadyExists
	case KindEmptyResult:
		return target == types.ErrEmptyResult
	case KindInvalidOperation:
		return target == types.ErrInvalidOperation || target == types.ErrValidation
	case KindValidation:
		return target == types.ErrValidation
	case KindTimeout:
		return target == types.ErrTimeout
	case KindStorage:
		return target == types.ErrStorage
	}
	return false
}

// KindOf classifies err. Unknown errors are storage failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, types.ErrInvalidOperation):
		return KindInvalidOperation
	case errors.Is(err, types.ErrValidation):
		return KindValidation
	case errors.Is(err, types.ErrNotFound):
		return KindNotFound
	case errors.Is(err, types.ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, types.ErrEmptyResult):
		return KindEmptyResult
	case errors.Is(err, types.ErrTimeout):
		return KindTimeout
	default:
		return KindStorage
	}
}

func ok[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Message: message, Data: data}
}

func fail[T any](err error, message string) Result[T] {
	return Result[T]{Message: message, Kind: KindOf(err), Detail: err.Error()}
}
