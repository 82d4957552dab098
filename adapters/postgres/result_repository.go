package postgres

import (
	"context"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
	"anchortest/internal/errors"
	"anchortest/ports"

	"github.com/jmoiron/sqlx"
)

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

const insertResultRow = `
	INSERT INTO experiment_results (
		id, experiment_id, scenario, proportion, dist_x, dist_y, dimension, shift,
		n, m, z, replicates, observed, p_value, duration_seconds, attempt,
		status, created_at
	) VALUES (
		:id, :experiment_id, :scenario, :proportion, :dist_x, :dist_y, :dimension, :shift,
		:n, :m, :z, :replicates, :observed, :p_value, :duration_seconds, :attempt,
		:status, :created_at
	)`

// SaveRows inserts rows in a single transaction
func (r *ResultRepositoryImpl) SaveRows(ctx context.Context, rows []experiment.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, insertResultRow)
	if err != nil {
		return errors.DatabaseError("prepare insert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if row.ExperimentID.String() == "" {
			return errors.InvalidInput("result row has no experiment ID")
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return errors.DatabaseError("insert result row "+row.ID.String(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("commit result rows", err)
	}
	return nil
}

// ListByExperiment returns the rows of one experiment in insertion order
func (r *ResultRepositoryImpl) ListByExperiment(ctx context.Context, id core.ExperimentID) ([]experiment.Row, error) {
	var rows []experiment.Row
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, experiment_id, scenario, proportion, dist_x, dist_y, dimension, shift,
			   n, m, z, replicates, observed, p_value, duration_seconds, attempt,
			   status, created_at
		FROM experiment_results
		WHERE experiment_id = $1
		ORDER BY seq
	`, id)
	if err != nil {
		return nil, errors.DatabaseError("list experiment results", err)
	}
	if len(rows) == 0 {
		return nil, errors.NotFound("experiment " + id.String())
	}
	return rows, nil
}

// ListExperiments returns a summary per experiment, newest first
func (r *ResultRepositoryImpl) ListExperiments(ctx context.Context) ([]experiment.Summary, error) {
	summaries := []experiment.Summary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT experiment_id,
			   COUNT(*) AS row_count,
			   COUNT(DISTINCT dist_x || '/' || dist_y) AS pairs,
			   COUNT(*) FILTER (WHERE status = 'retries_exhausted') AS exhausted,
			   MIN(created_at) AS started_at,
			   MAX(created_at) AS finished_at
		FROM experiment_results
		GROUP BY experiment_id
		ORDER BY started_at DESC, experiment_id DESC
	`)
	if err != nil {
		return nil, errors.DatabaseError("list experiments", err)
	}
	return summaries, nil
}
