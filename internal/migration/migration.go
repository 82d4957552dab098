package migration

import (
	"context"
	"fmt"

	"anchortest/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Tables lists the managed tables in drop order
func Tables() []string {
	return []string{"experiment_results"}
}

// Run executes all database migrations in order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, step := range r.Steps() {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return errors.DatabaseError(fmt.Sprintf("migration step %q failed", step.Name), err)
		}
	}
	return nil
}

// Reset drops every managed table. Run recreates them.
func (r *MigrationRunner) Reset(ctx context.Context, db *sqlx.DB) error {
	for _, table := range Tables() {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return errors.DatabaseError("drop table "+table, err)
		}
	}
	return nil
}

// Step is one named schema statement
type Step struct {
	Name string
	SQL  string
}

// Steps returns the migration statements in execution order
func (r *MigrationRunner) Steps() []Step {
	return []Step{
		{
			Name: "create experiment_results",
			SQL: `
		CREATE TABLE IF NOT EXISTS experiment_results (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			experiment_id TEXT NOT NULL,
			scenario VARCHAR(64) NOT NULL,
			proportion DOUBLE PRECISION NOT NULL,
			dist_x VARCHAR(32) NOT NULL,
			dist_y VARCHAR(32) NOT NULL,
			dimension INTEGER NOT NULL CHECK (dimension > 0),
			shift DOUBLE PRECISION NOT NULL DEFAULT 0,
			n INTEGER NOT NULL CHECK (n > 0),
			m INTEGER NOT NULL CHECK (m > 0),
			z INTEGER NOT NULL CHECK (z > 0),
			replicates INTEGER NOT NULL CHECK (replicates > 0),
			observed DOUBLE PRECISION NOT NULL,
			p_value DOUBLE PRECISION NOT NULL CHECK (p_value >= 0 AND p_value <= 1),
			duration_seconds DOUBLE PRECISION NOT NULL,
			attempt INTEGER NOT NULL DEFAULT 1,
			status VARCHAR(32) NOT NULL DEFAULT 'accepted',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		},
		{
			Name: "index experiment_results by experiment",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_experiment_results_experiment ON experiment_results (experiment_id, seq)`,
		},
		{
			Name: "index experiment_results by pair",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_experiment_results_pair ON experiment_results (dist_x, dist_y, dimension)`,
		},
	}
}
