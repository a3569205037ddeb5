package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the books, members and borrowing tables if they don't exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			w, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = w.close(ctx) }()

			if err := w.engine.Migrate(ctx); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", w.engine.Dialect())

			return err
		},
	}
}
