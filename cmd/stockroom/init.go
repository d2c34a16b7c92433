package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and storage",
		Long: `Init writes a default config.yaml if none exists and attaches the
configured backend once, which creates the data directory for sqlite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.open()
			if err != nil {
				return err
			}
			defer env.close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Stockroom initialized")
			fmt.Fprintln(out, "  config: ", a.configDir)
			fmt.Fprintln(out, "  backend:", env.config.Backend)
			if env.config.Backend == types.BackendSQLite {
				fmt.Fprintln(out, "  data:   ", env.config.DataDir)
			}
			return nil
		},
	}
}
