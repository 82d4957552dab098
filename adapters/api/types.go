package api

import (
	"anchortest/domain/sample"
	"anchortest/domain/verdict"
	"anchortest/internal/errors"
)

// PointSetsRequest carries the three groups as row vectors
type PointSetsRequest struct {
	X [][]float64 `json:"x" binding:"required"`
	Y [][]float64 `json:"y" binding:"required"`
	Z [][]float64 `json:"z" binding:"required"`
}

// TestRequest asks for a bootstrap test. A missing replicate count selects
// the server default.
type TestRequest struct {
	PointSetsRequest
	Replicates *int `json:"replicates"`
}

// StatisticResponse is the body of POST /v1/statistic
type StatisticResponse struct {
	Statistic float64 `json:"statistic"`
}

// TestResponse is the body of POST /v1/tests
type TestResponse struct {
	verdict.TestResult
	Decision verdict.Status `json:"decision"`
	Alpha    float64        `json:"alpha"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (r PointSetsRequest) pointSets() (x, y, z *sample.PointSet, err error) {
	if x, err = sample.New(r.X); err != nil {
		return nil, nil, nil, errors.Wrap(err, "x")
	}
	if y, err = sample.New(r.Y); err != nil {
		return nil, nil, nil, errors.Wrap(err, "y")
	}
	if z, err = sample.New(r.Z); err != nil {
		return nil, nil, nil, errors.Wrap(err, "z")
	}
	return x, y, z, nil
}
