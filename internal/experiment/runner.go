package experiment

import (
	"context"
	"strconv"
	"time"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
	"anchortest/domain/sample"
	"anchortest/internal/errors"
	"anchortest/internal/metrics"
	"anchortest/internal/testkit"
	"anchortest/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// RunnerConfig bounds the retry loop and the plan-level concurrency
type RunnerConfig struct {
	// MaxRetries is how many times a configuration may be regenerated after
	// its first scenario looks significant under a same-distribution pairing.
	MaxRetries int
	// RetryThreshold is the first-scenario p-value below which a
	// same-distribution configuration is regenerated.
	RetryThreshold float64
	// Concurrency bounds configurations in flight during RunPlan.
	Concurrency int
	// Seed selects the generated data. Each configuration and attempt derives
	// its own seed from it.
	Seed uint64
	// BootstrapSeed is the replicate stream family of the battery. It is
	// only recorded in manifests.
	BootstrapSeed uint64
}

// CodeVersion is recorded in manifests. Bump it when a change alters the
// rows produced for a given plan and seeds.
const CodeVersion = "1.0.0"

// DefaultRunnerConfig returns the defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxRetries:     5,
		RetryThreshold: 0.1,
		Concurrency:    1,
		Seed:           1,
	}
}

// Runner executes experiment configurations
type Runner struct {
	battery ports.BatteryPort
	repo    ports.ResultRepository
	config  RunnerConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewRunner creates a runner. repo may be nil, in which case RunPlan only
// returns the rows.
func NewRunner(battery ports.BatteryPort, repo ports.ResultRepository, config RunnerConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Runner{
		battery: battery,
		repo:    repo,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes every scenario of cfg on one generated data set and returns a
// row per scenario.
//
// Under a same-distribution pairing, a first-scenario p-value below
// RetryThreshold regenerates the data and starts over, at most MaxRetries
// times. When retries run out the last attempt is kept and its rows are
// marked RowRetriesExhausted.
func (r *Runner) Run(ctx context.Context, id core.ExperimentID, cfg experiment.Configuration) ([]experiment.Row, error) {
	scenarios := Scenarios(cfg.InitialX, cfg.InitialY)
	nx, ny := PoolSizes(scenarios)
	log := r.logger.With(zap.String("experiment_id", id.String()), zap.String("configuration", cfg.String()))

	var (
		xPool, yPool *sample.PointSet
		first        experiment.Row
		status       = experiment.RowAccepted
		attempt      = 1
	)
	for ; ; attempt++ {
		seed := core.DeriveSeed(r.config.Seed, cfg.String(), strconv.Itoa(attempt))
		gen := testkit.NewGenerator(testkit.GeneratorConfig{Seed: seed})

		var err error
		xPool, yPool, err = gen.Pair(cfg.DistX, cfg.DistY, nx, ny, cfg.Dimension, cfg.Shift)
		if err != nil {
			return nil, errors.Wrapf(err, "generate data for %s", cfg.Pair())
		}

		first, err = r.runScenario(ctx, id, cfg, xPool, yPool, scenarios[0], attempt)
		if err != nil {
			return nil, err
		}
		if !cfg.SameDistribution() || first.PValue >= r.config.RetryThreshold {
			break
		}
		if attempt > r.config.MaxRetries {
			status = experiment.RowRetriesExhausted
			log.Warn("retries exhausted, keeping last attempt",
				zap.Int("attempt", attempt),
				zap.Float64("p_value", first.PValue))
			break
		}
		metrics.RecordExperimentRetry(cfg.Pair())
		log.Info("low p-value under identical distributions, regenerating",
			zap.String("scenario", scenarios[0].Name),
			zap.Float64("p_value", first.PValue),
			zap.Int("attempt", attempt))
	}

	rows := make([]experiment.Row, 0, len(scenarios))
	rows = append(rows, first)
	for _, sc := range scenarios[1:] {
		row, err := r.runScenario(ctx, id, cfg, xPool, yPool, sc, attempt)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	for i := range rows {
		rows[i].Status = status
	}
	return rows, nil
}

func (r *Runner) runScenario(ctx context.Context, id core.ExperimentID, cfg experiment.Configuration, xPool, yPool *sample.PointSet, sc experiment.Scenario, attempt int) (experiment.Row, error) {
	x, y, z, err := Carve(xPool, yPool, sc)
	if err != nil {
		return experiment.Row{}, err
	}

	start := r.now()
	result, err := r.battery.Test(ctx, x, y, z, cfg.Replicates)
	if err != nil {
		return experiment.Row{}, errors.Wrapf(err, "scenario %s", sc.Name)
	}
	elapsed := r.now().Sub(start)

	r.logger.Debug("scenario finished",
		zap.String("experiment_id", id.String()),
		zap.String("pair", cfg.Pair()),
		zap.Int("dimension", cfg.Dimension),
		zap.String("scenario", sc.Name),
		zap.Float64("p_value", result.PValue),
		zap.Duration("elapsed", elapsed))

	return experiment.Row{
		ID:              core.NewRunID(),
		ExperimentID:    id,
		Scenario:        sc.Name,
		Proportion:      sc.Proportion,
		DistX:           cfg.DistX,
		DistY:           cfg.DistY,
		Dimension:       cfg.Dimension,
		Shift:           cfg.Shift,
		N:               sc.N,
		M:               sc.M,
		Z:               z.Len(),
		Replicates:      result.Replicates,
		Observed:        result.Statistic,
		PValue:          result.PValue,
		DurationSeconds: elapsed.Seconds(),
		Attempt:         attempt,
		CreatedAt:       r.now().UTC(),
	}, nil
}

// Manifest describes how plan would be run under id by this runner
func (r *Runner) Manifest(id core.ExperimentID, plan Plan) *experiment.Manifest {
	return experiment.NewManifest(id, plan.Name, plan.Hash(),
		r.config.Seed, r.config.BootstrapSeed,
		r.config.MaxRetries, r.config.RetryThreshold,
		CodeVersion)
}

// RunPlan runs every configuration of plan under one experiment ID with at
// most Concurrency configurations in flight. Rows are saved per
// configuration as they complete; the first failure stops the plan.
func (r *Runner) RunPlan(ctx context.Context, plan Plan) (core.ExperimentID, []experiment.Row, error) {
	if err := plan.Validate(); err != nil {
		return "", nil, err
	}
	id := core.NewExperimentID()
	configs := plan.Configurations()
	results := make([][]experiment.Row, len(configs))

	r.logger.Info("experiment started",
		zap.String("experiment_id", id.String()),
		zap.String("fingerprint", r.Manifest(id, plan).Fingerprint.String()),
		zap.String("plan", plan.Name),
		zap.Int("configurations", len(configs)),
		zap.Int("concurrency", r.config.Concurrency))

	sem := semaphore.NewWeighted(int64(r.config.Concurrency))
	g, gctx := errgroup.WithContext(ctx)
	for i, cfg := range configs {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			rows, err := r.Run(gctx, id, cfg)
			if err != nil {
				return errors.Wrapf(err, "configuration %s", cfg)
			}
			if r.repo != nil {
				if err := r.repo.SaveRows(gctx, rows); err != nil {
					return errors.Wrapf(err, "save rows for %s", cfg)
				}
			}
			metrics.RecordExperimentRows(len(rows))
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return id, nil, err
	}
	if err := ctx.Err(); err != nil {
		return id, nil, errors.Wrap(err, "experiment cancelled")
	}

	var all []experiment.Row
	for _, rows := range results {
		all = append(all, rows...)
	}
	r.logger.Info("experiment finished",
		zap.String("experiment_id", id.String()),
		zap.Int("rows", len(all)))
	return id, all, nil
}
