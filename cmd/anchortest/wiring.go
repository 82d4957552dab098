package main

import (
	"context"

	"anchortest/adapters/battery"
	"anchortest/adapters/memory"
	"anchortest/adapters/postgres"
	"anchortest/adapters/rng"
	"anchortest/adapters/stats/rankdist"
	"anchortest/app"
	expr "anchortest/internal/experiment"
	"anchortest/ports"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// store is the result repository selected by configuration. db is nil for
// the in-memory repository.
type store struct {
	repo ports.ResultRepository
	db   *sqlx.DB
}

func (s *store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (c *cli) openStore(ctx context.Context) (*store, error) {
	if c.cfg.Database.URL == "" {
		c.logger.Info("DATABASE_URL not set, results are kept in memory")
		return &store{repo: memory.NewResultRepository()}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Database.ConnectTimeout)
	defer cancel()
	db, err := postgres.Connect(ctx, c.cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	c.logger.Info("connected to postgres result store")
	return &store{repo: postgres.NewResultRepository(db), db: db}, nil
}

func (c *cli) engine() *rankdist.Engine {
	return rankdist.NewEngine(rankdist.WithDistanceWorkers(c.cfg.Bootstrap.DistanceWorkers))
}

func (c *cli) referee(workers int, seed uint64) *battery.BootstrapReferee {
	return battery.NewBootstrapReferee(c.engine(), rng.NewSeededAdapter(seed),
		battery.WithWorkers(workers),
		battery.WithLogger(c.logger.Named("bootstrap")))
}

func (c *cli) testService() *app.TestService {
	return app.NewTestService(c.engine(),
		c.referee(c.cfg.Bootstrap.Workers, c.cfg.Bootstrap.BaseSeed),
		c.cfg.Bootstrap.Replicates,
		c.logger)
}

func (c *cli) runnerConfig() expr.RunnerConfig {
	return expr.RunnerConfig{
		MaxRetries:     c.cfg.Experiment.MaxRetries,
		RetryThreshold: c.cfg.Experiment.RetryThreshold,
		Concurrency:    c.cfg.Experiment.Concurrency,
		Seed:           c.cfg.Experiment.Seed,
		BootstrapSeed:  c.cfg.Bootstrap.BaseSeed,
	}
}

func (c *cli) experimentService(repo ports.ResultRepository, rc expr.RunnerConfig) *app.ExperimentService {
	logger := c.logger.Named("experiment")
	runner := expr.NewRunner(c.referee(c.cfg.Bootstrap.Workers, c.cfg.Bootstrap.BaseSeed), repo, rc, logger)
	return app.NewExperimentService(runner, repo, logger)
}

func (c *cli) named(name string) *zap.Logger {
	return c.logger.Named(name)
}
