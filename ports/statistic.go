package ports

import (
	"context"

	"anchortest/domain/sample"
)

// StatisticPort evaluates the anchor-ranked two-sample statistic.
type StatisticPort interface {
	// Compute returns the statistic for groups x and y ranked against the
	// anchor set z.
	Compute(ctx context.Context, x, y, z *sample.PointSet) (float64, error)
}
