package testkit

import (
	"anchortest/adapters/battery"
	"anchortest/adapters/excel"
	"anchortest/adapters/memory"
	"anchortest/adapters/rng"
	"anchortest/adapters/stats/rankdist"
	"anchortest/domain/sample"
	"anchortest/ports"

	"go.uber.org/zap"
)

// TestKit wires the real statistic, referee and in-memory repository with
// deterministic seeds, and optionally groups loaded from a file.
type TestKit struct {
	seed       uint64
	repo       *memory.ResultRepository
	generator  *Generator
	excelGroup *excel.Groups
	logger     *zap.Logger
}

// NewTestKit creates a kit whose random sources derive from seed
func NewTestKit(seed uint64) *TestKit {
	return &TestKit{
		seed:      seed,
		repo:      memory.NewResultRepository(),
		generator: NewGenerator(GeneratorConfig{Seed: seed}),
		logger:    zap.NewNop(),
	}
}

// NewTestKitWithExcel creates a kit and pre-loads X, Y and Z from a file
func NewTestKitWithExcel(seed uint64, config excel.ExcelConfig) (*TestKit, error) {
	kit := NewTestKit(seed)
	groups, err := excel.NewDataReaderWithConfig(config, kit.logger).ReadGroups()
	if err != nil {
		return nil, err
	}
	kit.excelGroup = groups
	return kit, nil
}

// WithLogger replaces the no-op logger
func (t *TestKit) WithLogger(logger *zap.Logger) *TestKit {
	t.logger = logger
	return t
}

// Engine returns a statistic engine with serial distance kernels
func (t *TestKit) Engine() *rankdist.Engine {
	return rankdist.NewEngine()
}

// RNGAdapter returns replicate streams seeded from the kit seed
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return rng.NewSeededAdapter(t.seed)
}

// Referee returns a bootstrap referee over the real engine
func (t *TestKit) Referee(workers int) *battery.BootstrapReferee {
	return battery.NewBootstrapReferee(t.Engine(), t.RNGAdapter(),
		battery.WithWorkers(workers),
		battery.WithLogger(t.logger))
}

// Repository returns the kit's shared in-memory result repository
func (t *TestKit) Repository() *memory.ResultRepository {
	return t.repo
}

// Generator returns the kit's sample generator
func (t *TestKit) Generator() *Generator {
	return t.generator
}

// Groups returns X, Y and Z. File-loaded groups win; otherwise X and Y are
// drawn from distX and distY (Y shifted by shift) and Z takes half of each.
func (t *TestKit) Groups(distX, distY string, n, m, d int, shift float64) (x, y, z *sample.PointSet, err error) {
	if t.excelGroup != nil {
		return t.excelGroup.X, t.excelGroup.Y, t.excelGroup.Z, nil
	}

	xPool, yPool, err := t.generator.Pair(distX, distY, n+n/2, m+m/2, d, shift)
	if err != nil {
		return nil, nil, nil, err
	}
	z, err = sample.Concat(xPool.Slice(n, n+n/2), yPool.Slice(m, m+m/2))
	if err != nil {
		return nil, nil, nil, err
	}
	return xPool.Slice(0, n), yPool.Slice(0, m), z, nil
}
