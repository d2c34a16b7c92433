package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mesh-intelligence/stockroom/internal/inventory"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Adjuster applies a relative quantity change.
type Adjuster interface {
	AdjustQuantity(ctx context.Context, categoryID, name string, magnitude int64, op types.Operation) inventory.Result[*types.QuantityChange]
}

// QuantityRequest describes the form a QuantityCollector opens.
type QuantityRequest struct {
	Key       FormKey
	User      User
	MessageID string
	Title     string
}

// QuantityCollector opens a quantity form, waits for its submission and
// applies the entered magnitude.
type QuantityCollector struct {
	router    *Router
	messenger Messenger
	store     Adjuster
	timeout   time.Duration
	logger    *slog.Logger
	used      atomic.Bool
}

// NewQuantityCollector creates a collector that waits at most timeout.
func NewQuantityCollector(router *Router, messenger Messenger, store Adjuster, timeout time.Duration, logger *slog.Logger) *QuantityCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuantityCollector{router: router, messenger: messenger, store: store, timeout: timeout, logger: logger}
}

// Wait opens the form for req and blocks for its submission. On a valid
// submission it calls AdjustQuantity with the key decoded from the event and
// returns the store's result. A timeout yields a KindTimeout result and a
// magnitude that is not a positive base-10 integer a KindValidation one.
func (c *QuantityCollector) Wait(ctx context.Context, req QuantityRequest) inventory.Result[*types.QuantityChange] {
	if !c.used.CompareAndSwap(false, true) {
		return failed(ErrCollectorUsed, inventory.KindStorage, "This form has already been used.")
	}

	id := req.Key.Encode()
	events, cancel, err := c.router.subscribe(id, req.User.ID)
	if err != nil {
		return failed(err, inventory.KindStorage, "Another update for this item is already open.")
	}
	defer cancel()

	form := &Form{
		CustomID: id,
		Title:    req.Title,
		Fields: []FormField{{
			ID:          QuantityField,
			Label:       "Quantity",
			Placeholder: "Enter a whole number",
		}},
	}
	if err := c.messenger.OpenForm(ctx, req.User, req.MessageID, form); err != nil {
		return failed(err, inventory.KindStorage, "Could not open the quantity form.")
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	var ev Event
	select {
	case ev = <-events:
	case <-timer.C:
		return failed(types.ErrTimeout, inventory.KindTimeout, "No quantity was entered in time.")
	case <-ctx.Done():
		return failed(ctx.Err(), inventory.KindTimeout, "No quantity was entered in time.")
	}

	fe, ok := ev.(*FormEvent)
	if !ok {
		return failed(types.ErrTimeout, inventory.KindTimeout, "No quantity was entered in time.")
	}
	key, err := ParseFormKey(fe.CustomID)
	if err != nil {
		return failed(err, inventory.KindOf(err), "The submitted form could not be read.")
	}
	magnitude, err := parseMagnitude(fe.Fields[QuantityField])
	if err != nil {
		return failed(err, inventory.KindValidation, "Please enter a valid quantity.")
	}

	c.logger.Debug("quantity submitted", "category", key.CategoryID, "item", key.ItemName, "op", key.Operation, "magnitude", magnitude)
	return c.store.AdjustQuantity(ctx, key.CategoryID, key.ItemName, magnitude, key.Operation)
}

// parseMagnitude reads a positive base-10 integer.
func parseMagnitude(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidQuantity, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive", types.ErrValidation)
	}
	return n, nil
}

func failed(err error, kind inventory.Kind, message string) inventory.Result[*types.QuantityChange] {
	return inventory.Result[*types.QuantityChange]{Message: message, Kind: kind, Detail: err.Error()}
}
