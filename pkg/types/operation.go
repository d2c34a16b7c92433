package types

import (
	"fmt"
	"math"
)

// Operation is the direction of a relative quantity adjustment.
type Operation string

// Supported operations.
const (
	OpIncrement Operation = "increment"
	OpDecrement Operation = "decrement"
)

// operationAliases maps accepted tokens to operations. The Portuguese tokens
// are what older correlation ids carry.
var operationAliases = map[string]Operation{
	"increment": OpIncrement,
	"decrement": OpDecrement,
	"adicionar": OpIncrement,
	"remover":   OpDecrement,
}

// ParseOperation maps a token to an Operation.
// Returns ErrInvalidOperation for any unknown token, including the empty one.
func ParseOperation(token string) (Operation, error) {
	op, ok := operationAliases[token]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperation, token)
	}
	return op, nil
}

// Valid reports whether op is one of the supported operations.
func (op Operation) Valid() bool {
	return op == OpIncrement || op == OpDecrement
}

// Apply returns quantity adjusted by magnitude in the direction of op.
// The result may be negative; callers decide whether that is allowed.
// Returns ErrQuantityOverflow if the result does not fit in an int64.
func (op Operation) Apply(quantity, magnitude int64) (int64, error) {
	switch op {
	case OpIncrement:
		if (magnitude > 0 && quantity > math.MaxInt64-magnitude) ||
			(magnitude < 0 && quantity < math.MinInt64-magnitude) {
			return quantity, ErrQuantityOverflow
		}
		return quantity + magnitude, nil
	case OpDecrement:
		if (magnitude > 0 && quantity < math.MinInt64+magnitude) ||
			(magnitude < 0 && quantity > math.MaxInt64+magnitude) {
			return quantity, ErrQuantityOverflow
		}
		return quantity - magnitude, nil
	default:
		return quantity, fmt.Errorf("%w: %q", ErrInvalidOperation, string(op))
	}
}

// Label is the user-facing name of the operation.
func (op Operation) Label() string {
	switch op {
	case OpIncrement:
		return "Add stock"
	case OpDecrement:
		return "Remove stock"
	default:
		return string(op)
	}
}
