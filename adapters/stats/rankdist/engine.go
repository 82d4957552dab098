// Package rankdist implements the anchor-ranked distance statistic.
//
// For anchor sets Z of size k and groups X (n points) and Y (m points), the
// statistic is the mean over anchors i of
//
//	Tz[i] = (WX/n - WY/m)² / (n+m)²
//
// where WX sums, over every x in X, the number of anchor-to-anchor distances
// from anchor i that are ≤ the distance from x to anchor i (ties count), and
// WY is the same sum over Y.
package rankdist

import (
	"context"
	"sort"

	"anchortest/adapters/stats/distance"
	"anchortest/domain/sample"
	"anchortest/internal/errors"
	"anchortest/internal/metrics"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Engine evaluates the statistic. The zero value is ready to use and computes
// distance matrices serially.
type Engine struct {
	distanceWorkers int
}

// Option configures an Engine
type Option func(*Engine)

// WithDistanceWorkers spreads distance-matrix rows over n goroutines. Values
// below 2 keep the serial kernels.
func WithDistanceWorkers(n int) Option {
	return func(e *Engine) {
		e.distanceWorkers = n
	}
}

// NewEngine creates an engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Statistic evaluates the statistic with serial distance kernels.
func Statistic(x, y, z *sample.PointSet) (float64, error) {
	var e Engine
	return e.Compute(context.Background(), x, y, z)
}

// Compute returns the mean of the per-anchor ranks for x and y against z.
func (e *Engine) Compute(ctx context.Context, x, y, z *sample.PointSet) (float64, error) {
	tz, err := e.AnchorRanks(ctx, x, y, z)
	if err != nil {
		return 0, err
	}
	metrics.RecordStatisticEvaluation()
	return stat.Mean(tz, nil), nil
}

// AnchorRanks returns Tz, one value per anchor point of z.
func (e *Engine) AnchorRanks(ctx context.Context, x, y, z *sample.PointSet) ([]float64, error) {
	if err := sample.ValidateTriple(x, y, z); err != nil {
		return nil, err
	}

	dz, err := distance.ParallelSelf(ctx, z, e.distanceWorkers)
	if err != nil {
		return nil, errors.Wrap(err, "anchor distances")
	}
	dx, err := distance.ParallelCross(ctx, x, z, e.distanceWorkers)
	if err != nil {
		return nil, errors.Wrap(err, "X to anchor distances")
	}
	dy, err := distance.ParallelCross(ctx, y, z, e.distanceWorkers)
	if err != nil {
		return nil, errors.Wrap(err, "Y to anchor distances")
	}

	n, m, k := float64(x.Len()), float64(y.Len()), z.Len()
	scale := (n + m) * (n + m)

	tz := make([]float64, k)
	sorted := make([]float64, k)
	for i := 0; i < k; i++ {
		copy(sorted, dz.RawRowView(i))
		sort.Float64s(sorted)

		wx := rankSum(sorted, dx, i)
		wy := rankSum(sorted, dy, i)

		diff := float64(wx)/n - float64(wy)/m
		tz[i] = diff * diff / scale
	}
	return tz, nil
}

// rankSum adds up, over every row r of d, the number of entries of the
// ascending anchor row that are ≤ d[r, col].
func rankSum(sortedAnchorRow []float64, d *mat.Dense, col int) int {
	rows, _ := d.Dims()
	total := 0
	for r := 0; r < rows; r++ {
		total += countAtMost(sortedAnchorRow, d.At(r, col))
	}
	return total
}

// countAtMost returns how many values of the ascending slice are ≤ threshold.
func countAtMost(ascending []float64, threshold float64) int {
	return sort.Search(len(ascending), func(j int) bool {
		return ascending[j] > threshold
	})
}
