package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anchortest/app"
	"anchortest/domain/core"
	"anchortest/internal/errors"
	expr "anchortest/internal/experiment"
	"anchortest/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server      *Server
	experiments *app.ExperimentService
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	kit := testkit.NewTestKit(21)
	tests := app.NewTestService(kit.Engine(), kit.Referee(2), 40, nil)
	runner := expr.NewRunner(kit.Referee(2), kit.Repository(), expr.DefaultRunnerConfig(), nil)
	experiments := app.NewExperimentService(runner, kit.Repository(), nil)
	return fixture{
		server:      NewServer(":0", "test", tests, experiments, nil),
		experiments: experiments,
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var handComputed = map[string]any{
	"x": [][]float64{{1}},
	"y": [][]float64{{3}},
	"z": [][]float64{{0}, {2}},
}

func TestStatisticEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := do(t, f.server.Handler(), http.MethodPost, "/v1/statistic", handComputed)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out StatisticResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 0.125, out.Statistic)
}

func TestStatisticEndpointErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"empty anchors", map[string]any{"x": [][]float64{{1}}, "y": [][]float64{{2}}, "z": [][]float64{}}, errors.CodeInvalidInput},
		{"ragged rows", map[string]any{"x": [][]float64{{1}, {1, 2}}, "y": [][]float64{{2}}, "z": [][]float64{{0}}}, errors.CodeInvalidInput},
		{"dimension mismatch", map[string]any{"x": [][]float64{{1, 1}}, "y": [][]float64{{2}}, "z": [][]float64{{0}}}, errors.CodeInvalidInput},
		{"missing field", map[string]any{"x": [][]float64{{1}}}, errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, f.server.Handler(), http.MethodPost, "/v1/statistic", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, tt.code, got.Code)
			assert.NotEmpty(t, got.Error)
		})
	}
}

func TestTestEndpoint(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{
		"x":          handComputed["x"],
		"y":          handComputed["y"],
		"z":          handComputed["z"],
		"replicates": 16,
	}
	rec := do(t, f.server.Handler(), http.MethodPost, "/v1/tests", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out TestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 0.125, out.Statistic)
	assert.Equal(t, 16, out.Replicates)
	assert.GreaterOrEqual(t, out.PValue, 0.0)
	assert.LessOrEqual(t, out.PValue, 1.0)
	assert.Equal(t, app.DefaultAlpha, out.Alpha)
	assert.NotEmpty(t, out.Decision)
}

func TestTestEndpointDefaultsAndInvalidReplicates(t *testing.T) {
	f := newFixture(t)

	rec := do(t, f.server.Handler(), http.MethodPost, "/v1/tests", handComputed)
	require.Equal(t, http.StatusOK, rec.Code)
	var out TestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 40, out.Replicates)

	body := map[string]any{"x": handComputed["x"], "y": handComputed["y"], "z": handComputed["z"], "replicates": 0}
	rec = do(t, f.server.Handler(), http.MethodPost, "/v1/tests", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidInput, decodeError(t, rec).Code)
}

func TestExperimentEndpoints(t *testing.T) {
	f := newFixture(t)
	id, _, err := f.experiments.RunPlan(context.Background(), expr.Plan{
		Name:          "api",
		SampleSizes:   []int{10},
		Dimensions:    []int{1},
		Distributions: []string{testkit.Uniform},
		Replicates:    10,
	})
	require.NoError(t, err)

	rec := do(t, f.server.Handler(), http.MethodGet, "/v1/experiments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())

	rec = do(t, f.server.Handler(), http.MethodGet, "/v1/experiments/"+id.String()+"/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var results struct {
		ExperimentID core.ExperimentID `json:"experiment_id"`
		Rows         []map[string]any  `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Equal(t, id, results.ExperimentID)
	assert.Len(t, results.Rows, 6)

	rec = do(t, f.server.Handler(), http.MethodGet, "/v1/experiments/"+id.String()+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table>")
}

func TestExperimentNotFound(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/v1/experiments/nope/results", "/v1/experiments/nope/report"} {
		rec := do(t, f.server.Handler(), http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, errors.CodeNotFound, decodeError(t, rec).Code)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(errors.CodeInvalidInput))
	assert.Equal(t, http.StatusBadRequest, StatusFor(errors.CodeNumericDegenerate))
	assert.Equal(t, http.StatusNotFound, StatusFor(errors.CodeNotFound))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.CodeComputeFailure))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.CodeInternalError))
}
