package app

import (
	"context"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
	"anchortest/internal/errors"
	expr "anchortest/internal/experiment"
	"anchortest/ports"

	"go.uber.org/zap"
)

// ExperimentService runs experiment plans and reads back their results
type ExperimentService struct {
	runner *expr.Runner
	repo   ports.ResultRepository
	logger *zap.Logger
}

// NewExperimentService creates an experiment service. The runner should
// persist into repo so that results can be listed afterwards.
func NewExperimentService(runner *expr.Runner, repo ports.ResultRepository, logger *zap.Logger) *ExperimentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExperimentService{
		runner: runner,
		repo:   repo,
		logger: logger,
	}
}

// RunPlan executes every configuration of plan and returns the experiment ID
// with all rows in plan order.
func (s *ExperimentService) RunPlan(ctx context.Context, plan expr.Plan) (core.ExperimentID, []experiment.Row, error) {
	id, rows, err := s.runner.RunPlan(ctx, plan)
	if err != nil {
		s.logger.Error("experiment failed", zap.String("experiment_id", id.String()), zap.Error(err))
		return id, nil, err
	}
	return id, rows, nil
}

// Manifest describes how plan is run under id
func (s *ExperimentService) Manifest(id core.ExperimentID, plan expr.Plan) *experiment.Manifest {
	return s.runner.Manifest(id, plan)
}

// List returns a summary per stored experiment, newest first
func (s *ExperimentService) List(ctx context.Context) ([]experiment.Summary, error) {
	return s.repo.ListExperiments(ctx)
}

// Results returns the rows of one experiment
func (s *ExperimentService) Results(ctx context.Context, id core.ExperimentID) ([]experiment.Row, error) {
	if id.String() == "" {
		return nil, errors.InvalidInput("experiment id is required")
	}
	return s.repo.ListByExperiment(ctx, id)
}

// Report builds the Markdown report of one experiment
func (s *ExperimentService) Report(ctx context.Context, id core.ExperimentID) (string, error) {
	rows, err := s.Results(ctx, id)
	if err != nil {
		return "", err
	}
	return BuildReport(id, rows, DefaultAlpha), nil
}

// ReportHTML renders the report of one experiment as an HTML fragment
func (s *ExperimentService) ReportHTML(ctx context.Context, id core.ExperimentID) ([]byte, error) {
	md, err := s.Report(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderHTML(md), nil
}
