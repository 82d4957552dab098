package battery

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"anchortest/domain/sample"
	"anchortest/domain/verdict"
	"anchortest/internal/errors"
	"anchortest/internal/metrics"
	"anchortest/ports"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BootstrapReferee runs the resampling test of homogeneity: X and Y are pooled,
// resampled with replacement into groups of the original sizes, and the
// statistic is recomputed against the fixed anchor set for every replicate.
type BootstrapReferee struct {
	statistic ports.StatisticPort
	rngPort   ports.RNGPort
	workers   int
	logger    *zap.Logger
}

// Option configures a BootstrapReferee
type Option func(*BootstrapReferee)

// WithWorkers bounds the number of replicates computed concurrently.
// Non-positive values select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(br *BootstrapReferee) {
		br.workers = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(br *BootstrapReferee) {
		if logger != nil {
			br.logger = logger
		}
	}
}

// NewBootstrapReferee creates a referee computing statistic with replicate
// streams drawn from rngPort.
func NewBootstrapReferee(statistic ports.StatisticPort, rngPort ports.RNGPort, opts ...Option) *BootstrapReferee {
	br := &BootstrapReferee{
		statistic: statistic,
		rngPort:   rngPort,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(br)
	}
	if br.workers <= 0 {
		br.workers = runtime.GOMAXPROCS(0)
	}
	return br
}

// Workers returns the concurrency bound
func (br *BootstrapReferee) Workers() int {
	return br.workers
}

// Test computes the observed statistic and its bootstrap p-value from
// replicates resamples. The result is all-or-nothing: any replicate failure or
// cancellation of ctx fails the whole test.
func (br *BootstrapReferee) Test(ctx context.Context, x, y, z *sample.PointSet, replicates int) (*verdict.TestResult, error) {
	start := time.Now()

	if replicates < 1 {
		metrics.RecordBootstrapTest(metrics.OutcomeInvalid, replicates, 0, 0)
		return nil, errors.InvalidInputf("replicate count must be at least 1, got %d", replicates)
	}
	if err := sample.ValidateTriple(x, y, z); err != nil {
		metrics.RecordBootstrapTest(metrics.OutcomeInvalid, replicates, 0, 0)
		return nil, err
	}

	observed, err := br.statistic.Compute(ctx, x, y, z)
	if err != nil {
		metrics.RecordBootstrapTest(outcomeFor(err), replicates, 0, 0)
		return nil, errors.Wrap(err, "observed statistic")
	}

	n, m := x.Len(), y.Len()
	pooled, err := sample.Concat(x, y)
	if err != nil {
		metrics.RecordBootstrapTest(metrics.OutcomeInvalid, replicates, 0, 0)
		return nil, err
	}

	br.logger.Debug("bootstrap test started",
		zap.Int("n", n),
		zap.Int("m", m),
		zap.Int("anchors", z.Len()),
		zap.Int("replicates", replicates),
		zap.Int("workers", br.workers),
		zap.Float64("observed", observed))

	null, err := br.nullDistribution(ctx, pooled, n, z, replicates)
	if err != nil {
		metrics.RecordBootstrapTest(metrics.OutcomeFailed, replicates, time.Since(start), 0)
		br.logger.Warn("bootstrap test failed", zap.Error(err))
		return nil, err
	}

	exceedances := 0
	for _, t := range null {
		if t >= observed {
			exceedances++
		}
	}
	pValue := float64(exceedances) / float64(replicates)

	elapsed := time.Since(start)
	metrics.RecordBootstrapTest(metrics.OutcomeOK, replicates, elapsed, pValue)
	br.logger.Debug("bootstrap test finished",
		zap.Float64("p_value", pValue),
		zap.Int("exceedances", exceedances),
		zap.Duration("elapsed", elapsed))

	return &verdict.TestResult{
		Statistic:   observed,
		PValue:      pValue,
		Replicates:  replicates,
		Exceedances: exceedances,
		Null:        summarize(null),
	}, nil
}

// nullDistribution fills one slot per replicate. Each worker writes only its
// own index, so the slice needs no locking; the reduction happens after Wait.
func (br *BootstrapReferee) nullDistribution(ctx context.Context, pooled *sample.PointSet, n int, z *sample.PointSet, replicates int) ([]float64, error) {
	null := make([]float64, replicates)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(br.workers)

	for i := 0; i < replicates; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			t, err := br.replicate(gctx, pooled, n, z, i)
			if err != nil {
				return errors.ComputeFailure(fmt.Sprintf("bootstrap replicate %d failed", i), err)
			}
			null[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.ComputeFailure("bootstrap test cancelled", err)
	}
	return null, nil
}

func (br *BootstrapReferee) replicate(ctx context.Context, pooled *sample.PointSet, n int, z *sample.PointSet, i int) (float64, error) {
	indices := br.ReplicateIndices(i, pooled.Len())
	xi := pooled.Gather(indices[:n])
	yi := pooled.Gather(indices[n:])
	return br.statistic.Compute(ctx, xi, yi, z)
}

// ReplicateIndices returns the pooled-row indices drawn for replicate i. The
// first n belong to the resampled X and the rest to the resampled Y.
func (br *BootstrapReferee) ReplicateIndices(i, pooledSize int) []int {
	return ResampleIndices(br.rngPort.Stream(i), pooledSize)
}

// ResampleIndices draws size indices uniformly from [0, size) with replacement.
func ResampleIndices(rng *rand.Rand, size int) []int {
	indices := make([]int, size)
	for j := range indices {
		indices[j] = rng.IntN(size)
	}
	return indices
}

func outcomeFor(err error) string {
	if errors.HasCode(err, errors.CodeInvalidInput) || errors.HasCode(err, errors.CodeNumericDegenerate) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeFailed
}

// summarize describes the null distribution. Any statistic that cannot be
// computed for the given size is left at zero.
func summarize(null []float64) verdict.NullDistributionSummary {
	var s verdict.NullDistributionSummary
	s.Mean = finite(stats.Mean(null))
	if len(null) > 1 {
		s.StdDev = finite(stats.StandardDeviationSample(null))
	}
	s.Min = finite(stats.Min(null))
	s.Max = finite(stats.Max(null))
	s.Percentile95 = finite(stats.Percentile(null, 95))
	s.Percentile99 = finite(stats.Percentile(null, 99))
	return s
}

func finite(v float64, err error) float64 {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
