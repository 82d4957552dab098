package main

import (
	"encoding/json"

	"anchortest/internal/config"
	"anchortest/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli carries what every subcommand needs once the root has run
type cli struct {
	cfg    *config.Config
	logger *zap.Logger
	level  zap.AtomicLevel
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "anchortest",
		Short: "Anchor-ranked two-sample statistic and bootstrap homogeneity test",
		Long: `anchortest compares two multivariate samples X and Y by ranking their
distances to a third anchor sample Z, and estimates a p-value for the
hypothesis that X and Y share one distribution with a bootstrap test.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, level, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			c.cfg, c.logger, c.level = cfg, logger, level
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newStatCmd(c),
		newTestCmd(c),
		newExperimentCmd(c),
		newGenerateCmd(c),
		newServeCmd(c),
		newMigrateCmd(c),
	)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
