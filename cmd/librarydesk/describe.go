package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/librarydesk/librarystore/sqlengine"
)

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [table]",
		Short: "Print the columns of the library tables, or of one table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tables := []string{sqlengine.TableBooks, sqlengine.TableMembers, sqlengine.TableBorrowing}
			if len(args) == 1 {
				tables = args
			}

			w, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = w.close(ctx) }()

			out := cmd.OutOrStdout()

			for _, table := range tables {
				columns, infoErr := w.engine.TableInfo(ctx, table)
				if infoErr != nil {
					return infoErr
				}

				if len(columns) == 0 {
					return fmt.Errorf("table %q does not exist, run migrate first", table)
				}

				if _, err = fmt.Fprintf(out, "%s\n", table); err != nil {
					return err
				}

				for _, column := range columns {
					nullable := "not null"
					if column.Nullable {
						nullable = "null"
					}

					if _, err = fmt.Fprintf(out, "  %-18s %-14s %s\n", column.Name, column.Type, nullable); err != nil {
						return err
					}
				}
			}

			return nil
		},
	}
}
