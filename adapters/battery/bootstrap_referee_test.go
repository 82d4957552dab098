package battery

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"anchortest/adapters/rng"
	"anchortest/adapters/stats/rankdist"
	"anchortest/domain/sample"
	"anchortest/domain/verdict"
	"anchortest/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func normalSet(r *rand.Rand, n, d int, shift float64) *sample.PointSet {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, d)
		for j := range rows[i] {
			rows[i][j] = r.NormFloat64() + shift
		}
	}
	return sample.MustNew(rows)
}

// fakeStatistic returns a fixed value and fails from call failAt onwards.
type fakeStatistic struct {
	calls  atomic.Int64
	value  float64
	failAt int64
}

func (f *fakeStatistic) Compute(ctx context.Context, x, y, z *sample.PointSet) (float64, error) {
	call := f.calls.Add(1)
	if f.failAt > 0 && call >= f.failAt {
		return 0, stderrors.New("kernel exploded")
	}
	return f.value, nil
}

func newReferee(workers int) *BootstrapReferee {
	return NewBootstrapReferee(rankdist.NewEngine(), rng.NewSeededAdapter(0), WithWorkers(workers))
}

func TestBootstrapReproducibleAcrossWorkerCounts(t *testing.T) {
	r := rand.New(rand.NewPCG(11, 0))
	x := normalSet(r, 25, 2, 0)
	y := normalSet(r, 20, 2, 0.5)
	z := normalSet(r, 15, 2, 0.2)

	ctx := context.Background()
	serial, err := newReferee(1).Test(ctx, x, y, z, 60)
	require.NoError(t, err)
	again, err := newReferee(1).Test(ctx, x, y, z, 60)
	require.NoError(t, err)
	parallel, err := newReferee(8).Test(ctx, x, y, z, 60)
	require.NoError(t, err)

	assert.Equal(t, serial, again)
	assert.Equal(t, serial, parallel)
	assert.Equal(t, 60, serial.Replicates)
	assert.InDelta(t, float64(serial.Exceedances)/60, serial.PValue, 1e-12)
}

func TestBootstrapSingleReplicate(t *testing.T) {
	r := rand.New(rand.NewPCG(2, 2))
	x := normalSet(r, 10, 3, 0)
	y := normalSet(r, 12, 3, 0)
	z := normalSet(r, 8, 3, 0)

	result, err := newReferee(2).Test(context.Background(), x, y, z, 1)
	require.NoError(t, err)
	assert.Contains(t, []float64{0, 1}, result.PValue)
	assert.Equal(t, 1, result.Replicates)
}

func TestBootstrapIdenticalGroupsGiveZeroStatistic(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 7))
	x := normalSet(r, 50, 2, 0)

	result, err := newReferee(4).Test(context.Background(), x, x, x, 200)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Statistic)
	assert.Equal(t, 1.0, result.PValue)
}

func TestBootstrapSameLawMeanPValue(t *testing.T) {
	const trials = 60
	referee := newReferee(4)

	mean := 0.0
	for trial := 0; trial < trials; trial++ {
		r := rand.New(rand.NewPCG(100, uint64(trial)))
		x := normalSet(r, 20, 2, 0)
		y := normalSet(r, 20, 2, 0)
		z := normalSet(r, 20, 2, 0)

		result, err := referee.Test(context.Background(), x, y, z, 50)
		require.NoError(t, err)
		mean += result.PValue / trials
	}

	assert.GreaterOrEqual(t, mean, 0.4)
}

func TestBootstrapPValueFallsWithMeanShift(t *testing.T) {
	const trials = 10
	referee := newReferee(4)
	shifts := []float64{0, 1, 2}
	means := make([]float64, len(shifts))

	for si, shift := range shifts {
		for trial := 0; trial < trials; trial++ {
			r := rand.New(rand.NewPCG(200+uint64(si), uint64(trial)))
			x := normalSet(r, 30, 2, 0)
			y := normalSet(r, 30, 2, shift)
			z, err := sample.Concat(normalSet(r, 10, 2, 0), normalSet(r, 10, 2, shift))
			require.NoError(t, err)

			result, err := referee.Test(context.Background(), x, y, z, 50)
			require.NoError(t, err)
			means[si] += result.PValue / trials
		}
	}

	assert.Greater(t, means[0], means[1])
	assert.GreaterOrEqual(t, means[1], means[2])
}

func TestBootstrapDetectsLargeShift(t *testing.T) {
	r := rand.New(rand.NewPCG(8, 1))
	x := normalSet(r, 30, 2, 0)
	y := normalSet(r, 30, 2, 5)
	z, err := sample.Concat(x.Slice(0, 10), y.Slice(0, 10))
	require.NoError(t, err)

	result, err := newReferee(4).Test(context.Background(), x, y, z, 200)
	require.NoError(t, err)
	assert.Less(t, result.PValue, 0.05)
	assert.Equal(t, verdict.StatusRejected, result.Decide(0.05))
}

func TestBootstrapNullSummaryIsOrdered(t *testing.T) {
	r := rand.New(rand.NewPCG(4, 4))
	x := normalSet(r, 20, 2, 0)
	y := normalSet(r, 20, 2, 1)
	z := normalSet(r, 10, 2, 0.5)

	result, err := newReferee(2).Test(context.Background(), x, y, z, 100)
	require.NoError(t, err)

	null := result.Null
	assert.LessOrEqual(t, null.Min, null.Mean)
	assert.LessOrEqual(t, null.Mean, null.Max)
	assert.LessOrEqual(t, null.Percentile95, null.Percentile99)
	assert.LessOrEqual(t, null.Percentile99, null.Max)
	assert.GreaterOrEqual(t, null.StdDev, 0.0)
}

func TestBootstrapInvalidReplicateCount(t *testing.T) {
	x := sample.MustNew([][]float64{{0}, {1}})
	fake := &fakeStatistic{value: 1}
	referee := NewBootstrapReferee(fake, rng.NewSeededAdapter(0))

	for _, b := range []int{0, -3} {
		result, err := referee.Test(context.Background(), x, x, x, b)
		require.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	}
	assert.Equal(t, int64(0), fake.calls.Load())
}

func TestBootstrapInvalidSamples(t *testing.T) {
	x := sample.MustNew([][]float64{{0, 1}})
	fake := &fakeStatistic{value: 1}
	referee := NewBootstrapReferee(fake, rng.NewSeededAdapter(0))

	_, err := referee.Test(context.Background(), x, &sample.PointSet{}, x, 10)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	_, err = referee.Test(context.Background(), x, x, sample.MustNew([][]float64{{0}}), 10)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
	assert.Equal(t, int64(0), fake.calls.Load())
}

func TestBootstrapReplicateFailureAbortsTest(t *testing.T) {
	x := sample.MustNew([][]float64{{0}, {1}, {2}})
	y := sample.MustNew([][]float64{{3}, {4}})

	// Call 1 is the observed statistic; the fifth call is a replicate.
	fake := &fakeStatistic{value: 0.5, failAt: 5}
	referee := NewBootstrapReferee(fake, rng.NewSeededAdapter(0), WithWorkers(3))

	result, err := referee.Test(context.Background(), x, y, x, 50)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.HasCode(err, errors.CodeComputeFailure), "got %v", err)
	assert.Contains(t, err.Error(), "kernel exploded")
}

func TestBootstrapObservedFailureIsReported(t *testing.T) {
	x := sample.MustNew([][]float64{{0}, {1}})
	fake := &fakeStatistic{failAt: 1}
	referee := NewBootstrapReferee(fake, rng.NewSeededAdapter(0))

	result, err := referee.Test(context.Background(), x, x, x, 10)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, int64(1), fake.calls.Load())
}

func TestBootstrapCancelledContext(t *testing.T) {
	x := sample.MustNew([][]float64{{0}, {1}, {2}})
	y := sample.MustNew([][]float64{{3}, {4}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	referee := NewBootstrapReferee(&fakeStatistic{value: 0.1}, rng.NewSeededAdapter(0))
	result, err := referee.Test(ctx, x, y, x, 100)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.HasCode(err, errors.CodeComputeFailure))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplicateIndices(t *testing.T) {
	referee := NewBootstrapReferee(&fakeStatistic{}, rng.NewSeededAdapter(9))

	first := referee.ReplicateIndices(3, 40)
	assert.Equal(t, first, referee.ReplicateIndices(3, 40))
	assert.NotEqual(t, first, referee.ReplicateIndices(4, 40))
	require.Len(t, first, 40)
	for _, idx := range first {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 40)
	}
}

func TestWorkersDefaultToGOMAXPROCS(t *testing.T) {
	referee := NewBootstrapReferee(&fakeStatistic{}, rng.NewSeededAdapter(0), WithWorkers(0))
	assert.Positive(t, referee.Workers())
}
