package ports

import (
	"context"

	"anchortest/domain/sample"
	"anchortest/domain/verdict"
)

// BatteryPort runs the resampling test of homogeneity
type BatteryPort interface {
	// Test compares x and y against the anchor set z using replicates
	// bootstrap resamples. It returns a complete result or an error, never a
	// partial result.
	Test(ctx context.Context, x, y, z *sample.PointSet, replicates int) (*verdict.TestResult, error)
}
