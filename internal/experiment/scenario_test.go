package experiment

import (
	"testing"

	"anchortest/domain/experiment"
	"anchortest/domain/sample"
	"anchortest/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	names := func(scs []experiment.Scenario) []string {
		out := make([]string, len(scs))
		for i, sc := range scs {
			out[i] = sc.Name
		}
		return out
	}

	assert.Equal(t,
		[]string{"10/10/20", "12/13/15", "14/14/12", "15/15/10", "16/17/7", "17/18/5"},
		names(Scenarios(10, 10)))
	assert.Equal(t,
		[]string{"300/300/600", "375/375/450", "420/420/360", "450/450/300", "489/489/222", "525/525/150"},
		names(Scenarios(300, 300)))

	for _, sc := range Scenarios(7, 11) {
		assert.Equal(t, 2*(7+11), sc.N+sc.M+sc.Z, sc.Name)
	}
}

func TestPoolSizes(t *testing.T) {
	nx, ny := PoolSizes(Scenarios(10, 10))
	assert.Equal(t, 20, nx)
	assert.Equal(t, 20, ny)

	nx, ny = PoolSizes(Scenarios(300, 300))
	assert.Equal(t, 600, nx)
	assert.Equal(t, 600, ny)

	// Unequal groups still get enough points for every scenario.
	scs := Scenarios(4, 20)
	nx, ny = PoolSizes(scs)
	for _, sc := range scs {
		assert.GreaterOrEqual(t, nx, sc.N+sc.Z/2)
		assert.GreaterOrEqual(t, ny, sc.M+sc.Z/2)
	}
}

func indexedPool(n int, offset float64) *sample.PointSet {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{offset + float64(i)}
	}
	return sample.MustNew(rows)
}

func TestCarve(t *testing.T) {
	xPool := indexedPool(20, 0)
	yPool := indexedPool(20, 100)
	sc := Scenarios(10, 10)[1] // 12/13/15

	x, y, z, err := Carve(xPool, yPool, sc)
	require.NoError(t, err)
	assert.Equal(t, 12, x.Len())
	assert.Equal(t, 13, y.Len())
	require.Equal(t, 14, z.Len())

	assert.Equal(t, []float64{11}, x.Row(11))
	assert.Equal(t, []float64{112}, y.Row(12))
	assert.Equal(t, []float64{12}, z.Row(0))
	assert.Equal(t, []float64{18}, z.Row(6))
	assert.Equal(t, []float64{113}, z.Row(7))
	assert.Equal(t, []float64{119}, z.Row(13))
}

func TestCarveRejectsShortPools(t *testing.T) {
	sc := Scenarios(10, 10)[0]
	_, _, _, err := Carve(indexedPool(19, 0), indexedPool(20, 0), sc)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))
}
