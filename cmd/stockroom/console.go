package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockroom/internal/console"
	"github.com/mesh-intelligence/stockroom/internal/session"
	"github.com/mesh-intelligence/stockroom/internal/workflow"
)

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start an interactive chat session",
		Long: `Console runs the chat workflows on the terminal. Type /help for the
command list; answer a prompt with the number or label of a choice.

Input may be piped: answers that arrive before their prompt are queued.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.close()

			router := session.NewRouter(session.WithRouterLogger(a.logger))
			con := console.New(cmd.OutOrStdout(), workflow.DefaultCommands(),
				console.WithUser(consoleUser()),
				console.WithLogger(a.logger),
			)
			engine := workflow.New(e.store, router, con,
				workflow.WithLogger(a.logger),
				workflow.WithAudit(a.auditSink(e.config.DataDir, con)),
				workflow.WithSession(e.config.Session),
			)
			disp := session.NewDispatcher(engine, router, a.logger)

			err = con.Run(cmd.Context(), cmd.InOrStdin(), disp)
			engine.Wait()
			return err
		},
	}
}

func consoleUser() session.User {
	a := currentActor()
	return session.User{ID: a.ID, Name: a.Name}
}
