package testkit

import (
	"math/rand/v2"
	"slices"

	"anchortest/domain/sample"
	"anchortest/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Supported distribution names
const (
	Normal  = "normal"
	T       = "t"
	Gamma   = "gamma"
	Uniform = "uniform"
)

// Distributions lists every supported distribution name in grid order
func Distributions() []string {
	return []string{Normal, T, Gamma, Uniform}
}

// IsDistribution reports whether name is supported
func IsDistribution(name string) bool {
	return slices.Contains(Distributions(), name)
}

// GeneratorConfig configures the point-set generator
type GeneratorConfig struct {
	Seed uint64 `json:"seed"`
}

// DefaultGeneratorConfig returns the default configuration
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{Seed: 1}
}

// Generator draws point sets with i.i.d. coordinates:
//
//	normal   N(0, 1)
//	t        Student's t, 5 degrees of freedom
//	gamma    shape 2, scale 1
//	uniform  U(0, 1)
//
// A Generator is not safe for concurrent use.
type Generator struct {
	config GeneratorConfig
	src    *rand.PCG
}

// NewGenerator creates a generator seeded from config
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{
		config: config,
		src:    rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15),
	}
}

func (g *Generator) sampler(dist string) (distuv.Rander, error) {
	switch dist {
	case Normal:
		return distuv.Normal{Mu: 0, Sigma: 1, Src: g.src}, nil
	case T:
		return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: 5, Src: g.src}, nil
	case Gamma:
		return distuv.Gamma{Alpha: 2, Beta: 1, Src: g.src}, nil
	case Uniform:
		return distuv.Uniform{Min: 0, Max: 1, Src: g.src}, nil
	default:
		return nil, errors.InvalidInputf("unknown distribution %q", dist)
	}
}

// Sample draws n points of dimension d from dist
func (g *Generator) Sample(dist string, n, d int) (*sample.PointSet, error) {
	return g.Shifted(dist, n, d, 0)
}

// Shifted draws n points of dimension d from dist and adds shift to every
// coordinate.
func (g *Generator) Shifted(dist string, n, d int, shift float64) (*sample.PointSet, error) {
	if n < 0 || d < 1 {
		return nil, errors.InvalidInputf("cannot draw %d points of dimension %d", n, d)
	}
	rander, err := g.sampler(dist)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return &sample.PointSet{}, nil
	}

	data := make([]float64, n*d)
	for i := range data {
		data[i] = rander.Rand() + shift
	}
	return sample.FromDense(mat.NewDense(n, d, data)), nil
}

// Pair draws an X pool of nx points from distX and a Y pool of ny points from
// distY shifted by shiftY. Pools are drawn larger than the groups a scenario
// uses so anchors can be carved off the surplus.
func (g *Generator) Pair(distX, distY string, nx, ny, d int, shiftY float64) (*sample.PointSet, *sample.PointSet, error) {
	x, err := g.Sample(distX, nx, d)
	if err != nil {
		return nil, nil, errors.Wrap(err, "X pool")
	}
	y, err := g.Shifted(distY, ny, d, shiftY)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Y pool")
	}
	return x, y, nil
}
