package memory

import (
	"context"
	"testing"
	"time"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
	"anchortest/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id core.ExperimentID, scenario, distX, distY string, at time.Time) experiment.Row {
	return experiment.Row{
		ID:           core.NewRunID(),
		ExperimentID: id,
		Scenario:     scenario,
		DistX:        distX,
		DistY:        distY,
		Status:       experiment.RowAccepted,
		CreatedAt:    at,
	}
}

func TestResultRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveRows(ctx, []experiment.Row{
		row("a", "10/10/20", "normal", "normal", base),
		row("a", "12/13/15", "normal", "normal", base.Add(time.Second)),
	}))
	exhausted := row("a", "10/10/20", "t", "t", base.Add(2*time.Second))
	exhausted.Status = experiment.RowRetriesExhausted
	require.NoError(t, repo.SaveRows(ctx, []experiment.Row{exhausted}))
	require.NoError(t, repo.SaveRows(ctx, []experiment.Row{
		row("b", "10/10/20", "gamma", "uniform", base.Add(time.Hour)),
	}))

	rows, err := repo.ListByExperiment(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "12/13/15", rows[1].Scenario)

	summaries, err := repo.ListExperiments(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, core.ExperimentID("b"), summaries[0].ExperimentID)

	a := summaries[1]
	assert.Equal(t, 3, a.Rows)
	assert.Equal(t, 2, a.Pairs)
	assert.Equal(t, 1, a.Exhausted)
	assert.Equal(t, base, a.StartedAt)
	assert.Equal(t, base.Add(2*time.Second), a.FinishedAt)
}

func TestResultRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository()
	require.NoError(t, repo.SaveRows(ctx, []experiment.Row{row("a", "s", "normal", "t", time.Now())}))

	rows, err := repo.ListByExperiment(ctx, "a")
	require.NoError(t, err)
	rows[0].PValue = 0.9

	again, err := repo.ListByExperiment(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0.0, again[0].PValue)
}

func TestResultRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepository()

	_, err := repo.ListByExperiment(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	err = repo.SaveRows(ctx, []experiment.Row{{Scenario: "orphan"}})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidInput))

	summaries, err := repo.ListExperiments(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, repo.SaveRows(cancelled, nil), context.Canceled)
}
