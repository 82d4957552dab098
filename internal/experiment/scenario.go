// Package experiment runs grids of bootstrap tests over generated data to
// study how the anchor-set size affects the test.
package experiment

import (
	"fmt"

	"anchortest/domain/experiment"
	"anchortest/domain/sample"
	"anchortest/internal/errors"
)

// Proportions are the anchor-set sizes studied, as fractions of x+y.
var Proportions = []float64{1.0, 0.75, 0.6, 0.5, 0.37, 0.25}

// Scenarios derives one scenario per proportion p:
//
//	z = ⌊p(x+y)⌋, remaining = 2(x+y) − z, n = ⌊remaining/2⌋, m = remaining − n
func Scenarios(initialX, initialY int) []experiment.Scenario {
	total := initialX + initialY
	out := make([]experiment.Scenario, 0, len(Proportions))
	for _, p := range Proportions {
		z := int(p * float64(total))
		remaining := 2*total - z
		n := remaining / 2
		m := remaining - n
		out = append(out, experiment.Scenario{
			Name:       fmt.Sprintf("%d/%d/%d", n, m, z),
			Proportion: p,
			N:          n,
			M:          m,
			Z:          z,
		})
	}
	return out
}

// PoolSizes returns how many X and Y points must be generated so that every
// scenario can take its groups and its half of the anchors. For equal initial
// sizes this is twice the initial size.
func PoolSizes(scenarios []experiment.Scenario) (nx, ny int) {
	for _, sc := range scenarios {
		nx = max(nx, sc.N+sc.Z/2)
		ny = max(ny, sc.M+sc.Z/2)
	}
	return nx, ny
}

// Carve takes the groups X = xPool[:n], Y = yPool[:m] and the anchor set
// Z = xPool[n:n+z/2] ∪ yPool[m:m+z/2] for a scenario.
func Carve(xPool, yPool *sample.PointSet, sc experiment.Scenario) (x, y, z *sample.PointSet, err error) {
	half := sc.Z / 2
	if xPool.Len() < sc.N+half || yPool.Len() < sc.M+half {
		return nil, nil, nil, errors.InvalidInputf(
			"scenario %s needs pools of %d and %d points, got %d and %d",
			sc.Name, sc.N+half, sc.M+half, xPool.Len(), yPool.Len())
	}
	x = xPool.Slice(0, sc.N)
	y = yPool.Slice(0, sc.M)
	z, err = sample.Concat(xPool.Slice(sc.N, sc.N+half), yPool.Slice(sc.M, sc.M+half))
	if err != nil {
		return nil, nil, nil, err
	}
	return x, y, z, nil
}
