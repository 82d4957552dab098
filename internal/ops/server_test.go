package ops

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := NewServer(":0", prometheus.NewRegistry(), nil)
	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMetricsUsesGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "ops_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	s := NewServer(":0", reg, nil)
	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ops_test_total 3"), rec.Body.String())
}

func TestReadyz(t *testing.T) {
	s := NewServer(":0", prometheus.NewRegistry(), nil)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/readyz").Code)

	s.AddReadinessCheck("database", func(ctx context.Context) error {
		return stderrors.New("connection refused")
	})
	rec := get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database: connection refused")
}

func TestPprofMounted(t *testing.T) {
	s := NewServer(":0", prometheus.NewRegistry(), nil)
	rec := get(t, s.Handler(), "/debug/pprof/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartRejectsBadAddress(t *testing.T) {
	s := NewServer("no-port", prometheus.NewRegistry(), nil)
	assert.Error(t, s.Start())
}

func TestHandleExtraRoute(t *testing.T) {
	s := NewServer(":0", prometheus.NewRegistry(), nil)
	s.Handle("/loglevel", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"level":"info"}`))
	}))
	rec := get(t, s.Handler(), "/loglevel")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"level":"info"}`, rec.Body.String())
}
