package ports

import (
	"context"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
)

// ResultRepository persists experiment result rows
type ResultRepository interface {
	// SaveRows appends rows. Rows are immutable once saved.
	SaveRows(ctx context.Context, rows []experiment.Row) error

	// ListByExperiment returns the rows of one experiment in insertion order
	ListByExperiment(ctx context.Context, id core.ExperimentID) ([]experiment.Row, error)

	// ListExperiments returns a summary per stored experiment, newest first
	ListExperiments(ctx context.Context) ([]experiment.Summary, error)
}
