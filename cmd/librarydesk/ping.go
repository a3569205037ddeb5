package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the database connection and print server and pool information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			w, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = w.close(ctx) }()

			info, err := w.engine.Ping(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, err = fmt.Fprintf(out,
				"connected\n  dialect:  %s\n  version:  %s\n  database: %s\n  pool:     max %d, open %d, in use %d, idle %d\n",
				info.Dialect, info.Version, info.Database,
				info.Pool.MaxConns, info.Pool.TotalConns, info.Pool.AcquiredConns, info.Pool.IdleConns,
			)

			return err
		},
	}
}
