package workflow

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/stockroom/internal/inventory"
	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Each render builds a new message.

func pendingMessage(title string) *session.Message {
	return &session.Message{Kind: session.KindInfo, Title: title, Body: "Loading..."}
}

func promptMessage(title, body string) *session.Message {
	return &session.Message{Kind: session.KindInfo, Title: title, Body: body}
}

func successMessage(title, body string) *session.Message {
	return &session.Message{Kind: session.KindSuccess, Title: title, Body: body}
}

func errorMessage(title, body string) *session.Message {
	return &session.Message{Kind: session.KindError, Title: title, Body: body}
}

// failureMessage renders a failed result. Timeouts and validation problems
// are warnings; everything else is an error.
func failureMessage(title string, kind inventory.Kind, body string) *session.Message {
	msg := errorMessage(title, body)
	if kind == inventory.KindTimeout || kind == inventory.KindValidation || kind == inventory.KindInvalidOperation {
		msg.Kind = session.KindWarning
	}
	return msg
}

func timeoutBody() string {
	return "No response received in time. Run the command again to start over."
}

func categoryChoices(cats []*types.Category) []session.Choice {
	out := make([]session.Choice, 0, len(cats))
	for _, c := range cats {
		out = append(out, session.Choice{Label: c.Name, Value: c.ID})
	}
	return out
}

func itemChoices(items []*types.Item) []session.Choice {
	out := make([]session.Choice, 0, len(items))
	for _, it := range items {
		out = append(out, session.Choice{
			Label:       it.Name,
			Value:       it.Name,
			Description: fmt.Sprintf("Quantity: %d", it.Quantity),
		})
	}
	return out
}

func operationChoices() []session.Choice {
	return []session.Choice{
		{Label: types.OpIncrement.Label(), Value: string(types.OpIncrement)},
		{Label: types.OpDecrement.Label(), Value: string(types.OpDecrement)},
	}
}

// stockMessage lists a category's items, one field per item.
func stockMessage(categoryName string, items []*types.Item) *session.Message {
	msg := successMessage(fmt.Sprintf("Stock: %s", categoryName), "")
	if len(items) == 0 {
		msg.Body = "This category has no items."
		return msg
	}
	for _, it := range items {
		var b strings.Builder
		fmt.Fprintf(&b, "Quantity: %d", it.Quantity)
		if it.Description != "" {
			fmt.Fprintf(&b, "\n%s", it.Description)
		}
		msg.Fields = append(msg.Fields, session.Field{Name: it.Name, Value: b.String(), Inline: true})
	}
	return msg
}
