package experiment

import (
	"fmt"
	"time"

	"anchortest/domain/core"
)

// Scenario fixes the sizes of X, Y and the anchor set for one run
type Scenario struct {
	Name       string  `json:"name" yaml:"name"`
	Proportion float64 `json:"proportion" yaml:"proportion"`
	N          int     `json:"n" yaml:"n"`
	M          int     `json:"m" yaml:"m"`
	Z          int     `json:"z" yaml:"z"`
}

// Configuration is one cell of an experiment grid: a distribution pairing at
// a given size and dimension.
type Configuration struct {
	DistX      string  `json:"dist_x" yaml:"dist_x"`
	DistY      string  `json:"dist_y" yaml:"dist_y"`
	InitialX   int     `json:"initial_x" yaml:"initial_x"`
	InitialY   int     `json:"initial_y" yaml:"initial_y"`
	Dimension  int     `json:"dimension" yaml:"dimension"`
	Replicates int     `json:"replicates" yaml:"replicates"`
	Shift      float64 `json:"shift,omitempty" yaml:"shift,omitempty"`
}

// Pair names the distribution pairing, e.g. "normal/t"
func (c Configuration) Pair() string {
	return c.DistX + "/" + c.DistY
}

// SameDistribution reports whether X and Y are drawn from one law
func (c Configuration) SameDistribution() bool {
	return c.DistX == c.DistY && c.Shift == 0
}

func (c Configuration) String() string {
	return fmt.Sprintf("%s d=%d x=%d y=%d", c.Pair(), c.Dimension, c.InitialX, c.InitialY)
}

// RowStatus marks how a configuration's rows were accepted
type RowStatus string

const (
	RowAccepted         RowStatus = "accepted"
	RowRetriesExhausted RowStatus = "retries_exhausted"
)

// Row is the persisted outcome of one scenario
type Row struct {
	ID              core.RunID        `json:"id" db:"id"`
	ExperimentID    core.ExperimentID `json:"experiment_id" db:"experiment_id"`
	Scenario        string            `json:"scenario" db:"scenario"`
	Proportion      float64           `json:"proportion" db:"proportion"`
	DistX           string            `json:"dist_x" db:"dist_x"`
	DistY           string            `json:"dist_y" db:"dist_y"`
	Dimension       int               `json:"dimension" db:"dimension"`
	Shift           float64           `json:"shift" db:"shift"`
	N               int               `json:"n" db:"n"`
	M               int               `json:"m" db:"m"`
	Z               int               `json:"z" db:"z"`
	Replicates      int               `json:"replicates" db:"replicates"`
	Observed        float64           `json:"observed" db:"observed"`
	PValue          float64           `json:"p_value" db:"p_value"`
	DurationSeconds float64           `json:"duration_seconds" db:"duration_seconds"`
	Attempt         int               `json:"attempt" db:"attempt"`
	Status          RowStatus         `json:"status" db:"status"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

// Summary describes one stored experiment
type Summary struct {
	ExperimentID core.ExperimentID `json:"experiment_id" db:"experiment_id"`
	Rows         int               `json:"rows" db:"row_count"`
	Pairs        int               `json:"pairs" db:"pairs"`
	Exhausted    int               `json:"retries_exhausted" db:"exhausted"`
	StartedAt    time.Time         `json:"started_at" db:"started_at"`
	FinishedAt   time.Time         `json:"finished_at" db:"finished_at"`
}
