package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockroom/internal/audit"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			res := e.store.CreateCategory(ctx, args[0])
			evt := &audit.Event{Action: audit.ActionCategoryCreate, CategoryName: args[0]}
			if res.Success {
				evt.CategoryID = res.Data.ID
			}
			a.record(ctx, e, evt, res)
			return a.report(cmd.OutOrStdout(), res.Message, res.Data, failure(res.Err()))
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.close()

			res := e.store.ListCategories(cmd.Context())
			if err := failure(res.Err()); err != nil {
				return err
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), res.Data)
			}
			for _, c := range res.Data {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d items\n", c.Name, len(c.ItemIDs))
			}
			return nil
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}
