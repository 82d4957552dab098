package app

import (
	"context"
	"time"

	"anchortest/adapters/excel"
	"anchortest/domain/sample"
	"anchortest/domain/verdict"
	"anchortest/ports"

	"go.uber.org/zap"
)

// TestService evaluates the statistic and runs bootstrap tests on caller
// supplied or file-loaded point sets.
type TestService struct {
	statistic  ports.StatisticPort
	battery    ports.BatteryPort
	replicates int
	logger     *zap.Logger
}

// NewTestService creates a test service. defaultReplicates is used by the
// file helpers when the caller passes zero replicates.
func NewTestService(statistic ports.StatisticPort, battery ports.BatteryPort, defaultReplicates int, logger *zap.Logger) *TestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestService{
		statistic:  statistic,
		battery:    battery,
		replicates: defaultReplicates,
		logger:     logger,
	}
}

// DefaultReplicates returns the replicate count used when none is given
func (s *TestService) DefaultReplicates() int {
	return s.replicates
}

// Statistic returns the anchor-ranked statistic of x and y against z
func (s *TestService) Statistic(ctx context.Context, x, y, z *sample.PointSet) (float64, error) {
	return s.statistic.Compute(ctx, x, y, z)
}

// Test runs the bootstrap test with exactly the given replicate count
func (s *TestService) Test(ctx context.Context, x, y, z *sample.PointSet, replicates int) (*verdict.TestResult, error) {
	start := time.Now()
	result, err := s.battery.Test(ctx, x, y, z, replicates)
	if err != nil {
		s.logger.Warn("bootstrap test failed", zap.Int("replicates", replicates), zap.Error(err))
		return nil, err
	}
	s.logger.Info("bootstrap test completed",
		zap.Int("n", x.Len()),
		zap.Int("m", y.Len()),
		zap.Int("k", z.Len()),
		zap.Int("replicates", replicates),
		zap.Float64("statistic", result.Statistic),
		zap.Float64("p_value", result.PValue),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// LoadGroups reads X, Y and Z from a .xlsx or .csv file
func (s *TestService) LoadGroups(config excel.ExcelConfig) (*excel.Groups, error) {
	return excel.NewDataReaderWithConfig(config, s.logger).ReadGroups()
}

// StatisticFromFile loads groups from a file and evaluates the statistic
func (s *TestService) StatisticFromFile(ctx context.Context, config excel.ExcelConfig) (float64, error) {
	g, err := s.LoadGroups(config)
	if err != nil {
		return 0, err
	}
	return s.Statistic(ctx, g.X, g.Y, g.Z)
}

// TestFromFile loads groups from a file and runs the bootstrap test. Zero
// replicates selects the service default.
func (s *TestService) TestFromFile(ctx context.Context, config excel.ExcelConfig, replicates int) (*verdict.TestResult, error) {
	g, err := s.LoadGroups(config)
	if err != nil {
		return nil, err
	}
	if replicates == 0 {
		replicates = s.replicates
	}
	return s.Test(ctx, g.X, g.Y, g.Z, replicates)
}
