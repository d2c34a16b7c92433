package workflow

import (
	"context"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/stockroom/internal/audit"
	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// Command names.
const (
	CmdCreateCategory = "create-category"
	CmdViewStock      = "view-stock"
	CmdAddItem        = "add-item"
	CmdRemoveItem     = "remove-item"
	CmdUpdateItem     = "update-item"
	CmdSetQuantity    = "set-quantity"
)

// DefaultCommands returns the stock command set.
func DefaultCommands() []Command {
	return []Command{
		{
			Name:        CmdCreateCategory,
			Title:       "Create category",
			Description: "Create a new inventory category",
			Options: []OptionSpec{
				{Name: "name", Description: "Category name", Type: OptionString, Required: true},
			},
			Run: runCreateCategory,
		},
		{
			Name:        CmdViewStock,
			Title:       "View stock",
			Description: "List the items of a category",
			Run:         runViewStock,
		},
		{
			Name:        CmdAddItem,
			Title:       "Add item",
			Description: "Add an item to a category",
			Options: []OptionSpec{
				{Name: "item", Description: "Item name", Type: OptionString, Required: true},
				{Name: "quantity", Description: "Initial quantity", Type: OptionInteger, Required: true, NonNegative: true},
				{Name: "description", Description: "Item description", Type: OptionString},
			},
			Run: runAddItem,
		},
		{
			Name:        CmdRemoveItem,
			Title:       "Remove item",
			Description: "Remove an item from a category",
			Run:         runRemoveItem,
		},
		{
			Name:        CmdUpdateItem,
			Title:       "Update item",
			Description: "Add or remove stock of an item",
			Run:         runUpdateItem,
		},
		{
			Name:        CmdSetQuantity,
			Title:       "Set quantity",
			Description: "Overwrite the quantity of an item",
			Options: []OptionSpec{
				{Name: "quantity", Description: "New quantity", Type: OptionInteger, Required: true, NonNegative: true},
			},
			Run: runSetQuantity,
		},
	}
}

// DefaultRegistry returns a registry holding DefaultCommands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultCommands()...)
	if err != nil {
		panic(err)
	}
	return r
}

func intOption(ev *session.CommandEvent, name string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(ev.Option(name)), 10, 64)
	return n
}

func runCreateCategory(ctx context.Context, r *Run) error {
	name := strings.TrimSpace(r.Event.Option("name"))
	if err := r.Mutate(); err != nil {
		return err
	}
	res := r.engine.store.CreateCategory(ctx, name)
	evt := &audit.Event{Action: audit.ActionCategoryCreate, CategoryName: name}
	if res.Success {
		evt.CategoryID = res.Data.ID
	}
	return finish(ctx, r, res, evt, func(*types.Category) *session.Message {
		return successMessage(r.title(), res.Message)
	})
}

func runViewStock(ctx context.Context, r *Run) error {
	cat, err := r.SelectCategory(ctx)
	if err != nil {
		return err
	}
	if err := r.Mutate(); err != nil {
		return err
	}
	res := r.engine.store.ListItems(ctx, cat.ID)
	evt := &audit.Event{Action: audit.ActionStockView, CategoryID: cat.ID, CategoryName: cat.Name}
	return finish(ctx, r, res, evt, func(items []*types.Item) *session.Message {
		return stockMessage(cat.Name, items)
	})
}

func runAddItem(ctx context.Context, r *Run) error {
	in := types.ItemInput{
		Name:        strings.TrimSpace(r.Event.Option("item")),
		Quantity:    intOption(r.Event, "quantity"),
		Description: strings.TrimSpace(r.Event.Option("description")),
	}
	cat, err := r.SelectCategory(ctx)
	if err != nil {
		return err
	}
	if err := r.Mutate(); err != nil {
		return err
	}
	res := r.engine.store.AddItem(ctx, cat.ID, in)
	evt := &audit.Event{
		Action:       audit.ActionItemAdd,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Item:         in.Name,
		After:        audit.Qty(in.Quantity),
	}
	return finish(ctx, r, res, evt, func(*types.Item) *session.Message {
		return successMessage(r.title(), res.Message+" Category: **"+cat.Name+"**.")
	})
}

func runRemoveItem(ctx context.Context, r *Run) error {
	cat, err := r.SelectCategory(ctx)
	if err != nil {
		return err
	}
	item, err := r.SelectItem(ctx, cat)
	if err != nil {
		return err
	}
	if err := r.Mutate(); err != nil {
		return err
	}
	res := r.engine.store.RemoveItem(ctx, cat.ID, item.Name)
	evt := &audit.Event{
		Action:       audit.ActionItemRemove,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Item:         item.Name,
	}
	if res.Success {
		evt.Before = audit.Qty(res.Data.Quantity)
	}
	return finish(ctx, r, res, evt, func(*types.Item) *session.Message {
		return successMessage(r.title(), res.Message)
	})
}

func runUpdateItem(ctx context.Context, r *Run) error {
	cat, err := r.SelectCategory(ctx)
	if err != nil {
		return err
	}
	item, err := r.SelectItem(ctx, cat)
	if err != nil {
		return err
	}
	op, err := r.SelectOperation(ctx, item)
	if err != nil {
		return err
	}
	return r.CollectQuantity(ctx, cat, item, op)
}

func runSetQuantity(ctx context.Context, r *Run) error {
	quantity := intOption(r.Event, "quantity")
	cat, err := r.SelectCategory(ctx)
	if err != nil {
		return err
	}
	item, err := r.SelectItem(ctx, cat)
	if err != nil {
		return err
	}
	if err := r.Mutate(); err != nil {
		return err
	}
	res := r.engine.store.SetQuantity(ctx, cat.ID, item.Name, quantity)
	evt := &audit.Event{
		Action:       audit.ActionItemSet,
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Item:         item.Name,
	}
	if res.Success {
		evt.Before, evt.After = audit.Qty(res.Data.Before), audit.Qty(res.Data.After)
	}
	return finish(ctx, r, res, evt, func(*types.QuantityChange) *session.Message {
		return successMessage(r.title(), res.Message)
	})
}
