package main

import (
	"anchortest/adapters/excel"
	"anchortest/internal/errors"
	"anchortest/internal/testkit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var (
		out          string
		distX, distY string
		n, m, d      int
		shift        float64
		seed         uint64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic X, Y and Z groups to an .xlsx or .csv file",
		Long: `generate draws X and Y from the named distributions and carves the
anchor set Z from half again as many extra points of each, in the file
layout that stat and test read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 2 || m < 2 {
				return errors.InvalidInputf("n and m must be at least 2, got %d and %d", n, m)
			}
			kit := testkit.NewTestKit(seed)
			x, y, z, err := kit.Groups(distX, distY, n, m, d, shift)
			if err != nil {
				return err
			}
			if err := excel.WriteGroups(out, &excel.Groups{X: x, Y: y, Z: z}); err != nil {
				return err
			}
			c.logger.Info("groups written",
				zap.String("path", out),
				zap.Int("n", x.Len()),
				zap.Int("m", y.Len()),
				zap.Int("k", z.Len()))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (.xlsx or .csv)")
	cmd.Flags().StringVar(&distX, "dist-x", testkit.Normal, "distribution of X: normal, t, gamma or uniform")
	cmd.Flags().StringVar(&distY, "dist-y", testkit.Normal, "distribution of Y")
	cmd.Flags().IntVar(&n, "n", 50, "points in X")
	cmd.Flags().IntVar(&m, "m", 50, "points in Y")
	cmd.Flags().IntVar(&d, "dim", 2, "dimension")
	cmd.Flags().Float64Var(&shift, "shift", 0, "mean shift added to every coordinate of Y")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "generator seed")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
