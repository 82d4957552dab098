package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
	"anchortest/internal/errors"
	"anchortest/internal/migration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run against TEST_DATABASE_URL and are skipped without it.
func testRepository(t *testing.T) *ResultRepositoryImpl {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := migration.NewRunner()
	require.NoError(t, runner.Reset(ctx, db))
	require.NoError(t, runner.Run(ctx, db))
	return NewResultRepository(db).(*ResultRepositoryImpl)
}

func resultRow(id core.ExperimentID, scenario string, at time.Time) experiment.Row {
	return experiment.Row{
		ID:              core.NewRunID(),
		ExperimentID:    id,
		Scenario:        scenario,
		Proportion:      1,
		DistX:           "normal",
		DistY:           "t",
		Dimension:       20,
		N:               10,
		M:               10,
		Z:               20,
		Replicates:      500,
		Observed:        0.012,
		PValue:          0.35,
		DurationSeconds: 1.5,
		Attempt:         1,
		Status:          experiment.RowAccepted,
		CreatedAt:       at,
	}
}

func TestResultRepository_RoundTrip(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	id := core.NewExperimentID()
	rows := []experiment.Row{resultRow(id, "10/10/20", at), resultRow(id, "12/13/15", at.Add(time.Second))}
	require.NoError(t, repo.SaveRows(ctx, rows))

	got, err := repo.ListByExperiment(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rows[0].ID, got[0].ID)
	assert.Equal(t, "12/13/15", got[1].Scenario)
	assert.InDelta(t, 0.35, got[1].PValue, 1e-12)
	assert.True(t, at.Equal(got[0].CreatedAt))

	summaries, err := repo.ListExperiments(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].Rows)
	assert.Equal(t, 1, summaries[0].Pairs)
}

func TestResultRepository_MissingExperiment(t *testing.T) {
	repo := testRepository(t)
	_, err := repo.ListByExperiment(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}
