// Package metrics registers and records Prometheus metrics for statistic
// evaluation, bootstrap tests and experiment runs.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatisticEvaluations prometheus.Counter
	BootstrapTests       *prometheus.CounterVec
	BootstrapReplicates  prometheus.Counter
	BootstrapDuration    prometheus.Histogram
	BootstrapPValue      prometheus.Histogram
	ExperimentRetries    *prometheus.CounterVec
	ExperimentRows       prometheus.Counter

	metricsMu         sync.RWMutex
	currentRegisterer prometheus.Registerer = prometheus.DefaultRegisterer
)

// Bootstrap test outcomes used as label values.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid_input"
	OutcomeFailed  = "failed"
)

func init() {
	SetRegisterer(prometheus.DefaultRegisterer)
}

// SetRegisterer moves all collectors to registerer and returns the previous
// one. Tests use it to get an isolated registry.
func SetRegisterer(registerer prometheus.Registerer) prometheus.Registerer {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	previous := currentRegisterer
	if currentRegisterer != nil {
		unregisterAll(currentRegisterer)
	}
	currentRegisterer = registerer
	initializeMetrics(registerer)
	return previous
}

// initializeMetrics must be called while holding metricsMu.
func initializeMetrics(registerer prometheus.Registerer) {
	factory := promauto.With(registerer)

	StatisticEvaluations = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "anchortest_statistic_evaluations_total",
			Help: "Total number of anchor-ranked statistic evaluations",
		},
	)

	BootstrapTests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anchortest_bootstrap_tests_total",
			Help: "Total number of bootstrap tests by outcome",
		},
		[]string{"outcome"},
	)

	BootstrapReplicates = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "anchortest_bootstrap_replicates_total",
			Help: "Total number of bootstrap replicates computed",
		},
	)

	BootstrapDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "anchortest_bootstrap_duration_seconds",
			Help:    "Wall-clock duration of complete bootstrap tests",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
		},
	)

	BootstrapPValue = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "anchortest_bootstrap_p_value",
			Help:    "Distribution of bootstrap p-values",
			Buckets: prometheus.LinearBuckets(0.05, 0.05, 19),
		},
	)

	ExperimentRetries = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anchortest_experiment_retries_total",
			Help: "Experiment configurations regenerated after a low first-scenario p-value",
		},
		[]string{"pair"},
	)

	ExperimentRows = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "anchortest_experiment_rows_total",
			Help: "Total number of experiment result rows produced",
		},
	)
}

func unregisterAll(registerer prometheus.Registerer) {
	if StatisticEvaluations != nil {
		registerer.Unregister(StatisticEvaluations)
	}
	if BootstrapTests != nil {
		registerer.Unregister(BootstrapTests)
	}
	if BootstrapReplicates != nil {
		registerer.Unregister(BootstrapReplicates)
	}
	if BootstrapDuration != nil {
		registerer.Unregister(BootstrapDuration)
	}
	if BootstrapPValue != nil {
		registerer.Unregister(BootstrapPValue)
	}
	if ExperimentRetries != nil {
		registerer.Unregister(ExperimentRetries)
	}
	if ExperimentRows != nil {
		registerer.Unregister(ExperimentRows)
	}
}

// RecordStatisticEvaluation counts one statistic evaluation
func RecordStatisticEvaluation() {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	StatisticEvaluations.Inc()
}

// RecordBootstrapTest records a finished bootstrap test. pValue is ignored
// unless outcome is OutcomeOK.
func RecordBootstrapTest(outcome string, replicates int, duration time.Duration, pValue float64) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	BootstrapTests.WithLabelValues(outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	BootstrapReplicates.Add(float64(replicates))
	BootstrapDuration.Observe(duration.Seconds())
	BootstrapPValue.Observe(pValue)
}

// RecordExperimentRetry counts a regenerated configuration
func RecordExperimentRetry(pair string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	ExperimentRetries.WithLabelValues(pair).Inc()
}

// RecordExperimentRows counts persisted result rows
func RecordExperimentRows(n int) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	ExperimentRows.Add(float64(n))
}
