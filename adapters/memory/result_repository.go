// Package memory provides in-process implementations of the repository ports.
package memory

import (
	"context"
	"sort"
	"sync"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
	"anchortest/internal/errors"
)

// ResultRepository implements ports.ResultRepository with in-memory storage
type ResultRepository struct {
	rows  map[core.ExperimentID][]experiment.Row
	order []core.ExperimentID
	mu    sync.RWMutex
}

// NewResultRepository creates an empty repository
func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		rows: make(map[core.ExperimentID][]experiment.Row),
	}
}

func (r *ResultRepository) SaveRows(ctx context.Context, rows []experiment.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		if row.ExperimentID.String() == "" {
			return errors.InvalidInput("result row has no experiment ID")
		}
	}
	for _, row := range rows {
		if _, ok := r.rows[row.ExperimentID]; !ok {
			r.order = append(r.order, row.ExperimentID)
		}
		r.rows[row.ExperimentID] = append(r.rows[row.ExperimentID], row)
	}
	return nil
}

func (r *ResultRepository) ListByExperiment(ctx context.Context, id core.ExperimentID) ([]experiment.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, ok := r.rows[id]
	if !ok {
		return nil, errors.NotFound("experiment " + id.String())
	}
	out := make([]experiment.Row, len(rows))
	copy(out, rows)
	return out, nil
}

func (r *ResultRepository) ListExperiments(ctx context.Context) ([]experiment.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]experiment.Summary, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		id := r.order[i]
		out = append(out, Summarize(id, r.rows[id]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// Summarize folds the rows of one experiment into a summary
func Summarize(id core.ExperimentID, rows []experiment.Row) experiment.Summary {
	s := experiment.Summary{ExperimentID: id, Rows: len(rows)}
	pairs := make(map[string]struct{})
	for i, row := range rows {
		pairs[row.DistX+"/"+row.DistY] = struct{}{}
		if row.Status == experiment.RowRetriesExhausted {
			s.Exhausted++
		}
		if i == 0 || row.CreatedAt.Before(s.StartedAt) {
			s.StartedAt = row.CreatedAt
		}
		if row.CreatedAt.After(s.FinishedAt) {
			s.FinishedAt = row.CreatedAt
		}
	}
	s.Pairs = len(pairs)
	return s
}
