package inventory

import (
	"errors"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

func isCategoryNotFound(err error) bool {
	return errors.Is(err, types.ErrCategoryNotFound)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrNegativeQuantity):
		return "Quantity must not go below zero."
	case errors.Is(err, types.ErrQuantityOverflow):
		return "Quantity is too large."
	case errors.Is(err, types.ErrInvalidName):
		return "Name must not be empty."
	case errors.Is(err, types.ErrInvalidQuantity):
		return "Quantity must be a whole number."
	}
	return "Invalid input."
}
