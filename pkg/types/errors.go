package types

import (
	"errors"
	"fmt"
)

// Error kinds. Backends wrap one of these so callers can classify any
// failure with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrEmptyResult   = errors.New("empty result")
	ErrValidation    = errors.New("validation failed")
	ErrTimeout       = errors.New("no response received in time")
	ErrStorage       = errors.New("storage failure")
)

// Specific errors, each wrapping a kind above.
var (
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("item %w", ErrNotFound)
	ErrInvalidName      = fmt.Errorf("%w: name must not be empty", ErrValidation)
	ErrInvalidOperation = fmt.Errorf("%w: invalid operation", ErrValidation)
	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be an integer", ErrValidation)
	ErrNegativeQuantity = fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	ErrQuantityOverflow = fmt.Errorf("%w: quantity too large", ErrValidation)
)

// Backend lifecycle errors.
var (
	ErrBackendDetached = fmt.Errorf("%w: backend is detached", ErrStorage)
	ErrAlreadyAttached = errors.New("backend is already attached")
)
