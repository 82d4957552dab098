package main

import (
	"context"

	"anchortest/adapters/postgres"
	"anchortest/internal/migration"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the result tables in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.Database.ConnectTimeout)
			defer cancel()

			// Connect already runs the migrations.
			db, err := postgres.Connect(ctx, c.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			runner := migration.NewRunner()
			if reset {
				c.logger.Warn("dropping result tables", zap.Strings("tables", migration.Tables()))
				if err := runner.Reset(cmd.Context(), db); err != nil {
					return err
				}
				if err := runner.Run(cmd.Context(), db); err != nil {
					return err
				}
			}
			c.logger.Info("schema up to date", zap.String("version", runner.Version()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop and recreate the result tables")
	return cmd
}
