package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockroom/internal/audit"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the items of a category",
	}
	cmd.AddCommand(
		newItemAddCmd(a),
		newItemListCmd(a),
		newItemRemoveCmd(a),
		newItemAdjustCmd(a),
		newItemSetCmd(a),
	)
	return cmd
}

func parseQuantity(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidQuantity, s)
	}
	return n, nil
}

func newItemAddCmd(a *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <category> <item> <quantity>",
		Short: "Add an item to a category",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity(args[2])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			cat, err := findCategory(ctx, e.store, args[0])
			if err != nil {
				return err
			}
			res := e.store.AddItem(ctx, cat.ID, types.ItemInput{Name: args[1], Quantity: qty, Description: description})
			a.record(ctx, e, &audit.Event{
				Action:       audit.ActionItemAdd,
				CategoryID:   cat.ID,
				CategoryName: cat.Name,
				Item:         args[1],
				After:        audit.Qty(qty),
			}, res)
			return a.report(cmd.OutOrStdout(), res.Message, res.Data, failure(res.Err()))
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "item description")
	return cmd
}

func newItemListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <category>",
		Short: "List the stock of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			cat, err := findCategory(ctx, e.store, args[0])
			if err != nil {
				return err
			}
			res := e.store.ListItems(ctx, cat.ID)
			if err := failure(res.Err()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.flagJSON {
				return printJSON(out, res.Data)
			}

			name := e.store.GetCategoryName(ctx, cat.ID)
			if err := failure(name.Err()); err != nil {
				return err
			}
			fmt.Fprintf(out, "Stock: %s\n", name.Data)
			if len(res.Data) == 0 {
				fmt.Fprintln(out, "  (no items)")
			}
			for _, it := range res.Data {
				if it.Description != "" {
					fmt.Fprintf(out, "  %s\t%d\t%s\n", it.Name, it.Quantity, it.Description)
				} else {
					fmt.Fprintf(out, "  %s\t%d\n", it.Name, it.Quantity)
				}
			}
			return nil
		},
	}
}

func newItemRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <category> <item>",
		Short: "Remove an item from a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			cat, err := findCategory(ctx, e.store, args[0])
			if err != nil {
				return err
			}
			res := e.store.RemoveItem(ctx, cat.ID, args[1])
			evt := &audit.Event{
				Action:       audit.ActionItemRemove,
				CategoryID:   cat.ID,
				CategoryName: cat.Name,
				Item:         args[1],
			}
			if res.Success {
				evt.Before = audit.Qty(res.Data.Quantity)
			}
			a.record(ctx, e, evt, res)
			return a.report(cmd.OutOrStdout(), res.Message, res.Data, failure(res.Err()))
		},
	}
}

func newItemAdjustCmd(a *app) *cobra.Command {
	var op string
	cmd := &cobra.Command{
		Use:   "adjust <category> <item> <magnitude>",
		Short: "Add or remove stock",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			magnitude, err := parseQuantity(args[2])
			if err != nil {
				return err
			}
			operation, err := types.ParseOperation(op)
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			cat, err := findCategory(ctx, e.store, args[0])
			if err != nil {
				return err
			}
			res := e.store.AdjustQuantity(ctx, cat.ID, args[1], magnitude, operation)
			evt := &audit.Event{
				Action:       audit.ActionItemAdjust,
				CategoryID:   cat.ID,
				CategoryName: cat.Name,
				Item:         args[1],
				Operation:    string(operation),
			}
			if res.Success {
				evt.Before = audit.Qty(res.Data.Before)
				evt.After = audit.Qty(res.Data.After)
			}
			a.record(ctx, e, evt, res)
			return a.report(cmd.OutOrStdout(), res.Message, res.Data, failure(res.Err()))
		},
	}
	cmd.Flags().StringVar(&op, "op", string(types.OpIncrement), "increment or decrement")
	return cmd
}

func newItemSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <item> <quantity>",
		Short: "Overwrite the quantity of an item",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity(args[2])
			if err != nil {
				return err
			}
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			cat, err := findCategory(ctx, e.store, args[0])
			if err != nil {
				return err
			}
			res := e.store.SetQuantity(ctx, cat.ID, args[1], qty)
			evt := &audit.Event{
				Action:       audit.ActionItemSet,
				CategoryID:   cat.ID,
				CategoryName: cat.Name,
				Item:         args[1],
				After:        audit.Qty(qty),
			}
			if res.Success {
				evt.Before = audit.Qty(res.Data.Before)
			}
			a.record(ctx, e, evt, res)
			return a.report(cmd.OutOrStdout(), res.Message, res.Data, failure(res.Err()))
		},
	}
}
