package main

import (
	"anchortest/adapters/excel"
	"anchortest/app"
	"anchortest/domain/verdict"
	"anchortest/internal/errors"

	"github.com/spf13/cobra"
)

type dataFlags struct {
	path        string
	sheet       string
	groupColumn string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	defaults := excel.DefaultExcelConfig()
	cmd.Flags().StringVar(&f.path, "data", "", "point-set file (.xlsx or .csv) with a group column of X, Y and Z")
	cmd.Flags().StringVar(&f.sheet, "sheet", defaults.Sheet, "worksheet to read from an .xlsx file")
	cmd.Flags().StringVar(&f.groupColumn, "group-column", defaults.GroupColumn, "name of the group label column")
	_ = cmd.MarkFlagRequired("data")
}

func (f *dataFlags) config() excel.ExcelConfig {
	return excel.ExcelConfig{
		FilePath:    f.path,
		Sheet:       f.sheet,
		GroupColumn: f.groupColumn,
	}
}

func newStatCmd(c *cli) *cobra.Command {
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "stat",
		Short: "Compute the anchor-ranked statistic of X and Y against Z",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := c.testService().StatisticFromFile(cmd.Context(), data.config())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]float64{"statistic": value})
		},
	}
	data.register(cmd)
	return cmd
}

type testOutput struct {
	verdict.TestResult
	Decision verdict.Status `json:"decision"`
	Alpha    float64        `json:"alpha"`
}

func newTestCmd(c *cli) *cobra.Command {
	var (
		data       dataFlags
		replicates int
		workers    int
		seed       uint64
		alpha      float64
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the bootstrap homogeneity test on X and Y with anchors Z",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if alpha <= 0 || alpha >= 1 {
				return errors.InvalidInputf("alpha must be in (0, 1), got %v", alpha)
			}
			if !cmd.Flags().Changed("replicates") {
				replicates = c.cfg.Bootstrap.Replicates
			}
			if workers <= 0 {
				workers = c.cfg.Bootstrap.Workers
			}
			if !cmd.Flags().Changed("seed") {
				seed = c.cfg.Bootstrap.BaseSeed
			}

			svc := app.NewTestService(c.engine(), c.referee(workers, seed), c.cfg.Bootstrap.Replicates, c.logger)
			groups, err := svc.LoadGroups(data.config())
			if err != nil {
				return err
			}
			result, err := svc.Test(cmd.Context(), groups.X, groups.Y, groups.Z, replicates)
			if err != nil {
				return err
			}
			return printJSON(cmd, testOutput{
				TestResult: *result,
				Decision:   result.Decide(alpha),
				Alpha:      alpha,
			})
		},
	}
	data.register(cmd)
	cmd.Flags().IntVar(&replicates, "replicates", 0, "bootstrap replicates B (default BOOTSTRAP_REPLICATES)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent replicate workers (default BOOTSTRAP_WORKERS)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "replicate stream family (default BOOTSTRAP_BASE_SEED)")
	cmd.Flags().Float64Var(&alpha, "alpha", app.DefaultAlpha, "significance level for the decision")
	return cmd
}
