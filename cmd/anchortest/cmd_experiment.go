package main

import (
	"fmt"

	expr "anchortest/internal/experiment"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExperimentCmd(c *cli) *cobra.Command {
	var (
		planPath    string
		concurrency int
		report      bool
	)

	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Run an experiment plan over distributions, sizes and anchor proportions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if planPath == "" {
				planPath = c.cfg.Experiment.PlanPath
			}
			plan := expr.DefaultPlan()
			if planPath != "" {
				var err error
				if plan, err = expr.LoadPlan(planPath); err != nil {
					return err
				}
			}

			rc := c.runnerConfig()
			if concurrency > 0 {
				rc.Concurrency = concurrency
			}

			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			svc := c.experimentService(st.repo, rc)
			id, rows, err := svc.RunPlan(cmd.Context(), plan)
			if err != nil {
				return err
			}
			c.logger.Info("experiment stored",
				zap.String("experiment_id", id.String()),
				zap.Int("rows", len(rows)))

			if report {
				md, err := svc.Report(cmd.Context(), id)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			return printJSON(cmd, map[string]any{
				"experiment_id": id,
				"manifest":      svc.Manifest(id, plan),
				"rows":          rows,
			})
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "YAML experiment plan (default EXPERIMENT_PLAN, else the built-in grid)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "configurations in flight (default EXPERIMENT_CONCURRENCY)")
	cmd.Flags().BoolVar(&report, "report", false, "print the Markdown report instead of the JSON rows")
	return cmd
}
