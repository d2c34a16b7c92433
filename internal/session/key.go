package session

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Correlation id prefixes.
const (
	keyNamespace  = "inventory"
	selectPrefix  = keyNamespace + ":select:"
	updatePrefix  = keyNamespace + ":update:"
	QuantityField = "quantity"
)

// SelectKey returns the custom id of the select component shown at step of
// run runID.
func SelectKey(runID, step string) string {
	return selectPrefix + url.QueryEscape(runID) + ":" + url.QueryEscape(step)
}

// FormKey identifies the item and direction a quantity form adjusts.
type FormKey struct {
	CategoryID string
	ItemName   string
	Operation  types.Operation
}

// Encode returns the correlation id inventory:update:<cat>:<item>:<op>.
// Each token is query-escaped so names may contain colons.
func (k FormKey) Encode() string {
	return updatePrefix +
		url.QueryEscape(k.CategoryID) + ":" +
		url.QueryEscape(k.ItemName) + ":" +
		url.QueryEscape(string(k.Operation))
}

// ParseFormKey decodes a correlation id produced by FormKey.Encode.
// The operation token may be any alias types.ParseOperation accepts.
func ParseFormKey(id string) (FormKey, error) {
	rest, ok := strings.CutPrefix(id, updatePrefix)
	if !ok {
		return FormKey{}, fmt.Errorf("%w: not a quantity form id: %q", types.ErrValidation, id)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return FormKey{}, fmt.Errorf("%w: malformed quantity form id: %q", types.ErrValidation, id)
	}

	var tokens [3]string
	for i, p := range parts {
		v, err := url.QueryUnescape(p)
		if err != nil {
			return FormKey{}, fmt.Errorf("%w: malformed quantity form id: %w", types.ErrValidation, err)
		}
		tokens[i] = v
	}
	if tokens[0] == "" || tokens[1] == "" {
		return FormKey{}, fmt.Errorf("%w: quantity form id missing category or item: %q", types.ErrValidation, id)
	}

	op, err := types.ParseOperation(tokens[2])
	if err != nil {
		return FormKey{}, err
	}
	return FormKey{CategoryID: tokens[0], ItemName: tokens[1], Operation: op}, nil
}
