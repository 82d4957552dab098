// Package profiling describes the shape of p-value samples. Under a true
// null a well-calibrated test gives p-values close to Uniform(0, 1).
package profiling

import (
	"math"
	"sort"

	"anchortest/internal/errors"

	"github.com/montanaflynn/stats"
	gstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary holds the location and spread of a sample
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// Calibration compares a p-value sample with Uniform(0, 1)
type Calibration struct {
	N       int     `json:"n"`
	Summary Summary `json:"summary"`
	// KS is the Kolmogorov-Smirnov distance to the uniform CDF
	KS float64 `json:"ks"`
	// KSPValue is the asymptotic p-value of KS
	KSPValue float64 `json:"ks_p_value"`
	Skewness float64 `json:"skewness"`
}

// IsCalibrated reports whether uniformity is retained at level alpha
func (c Calibration) IsCalibrated(alpha float64) bool {
	return c.KSPValue >= alpha
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct {
	reference distuv.Uniform
}

// NewDistributionAnalyzer creates an analyzer against Uniform(0, 1)
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{reference: distuv.Uniform{Min: 0, Max: 1}}
}

// AnalyzePValues summarizes ps and measures its distance from uniformity
func (da *DistributionAnalyzer) AnalyzePValues(ps []float64) (Calibration, error) {
	if len(ps) == 0 {
		return Calibration{}, errors.InvalidInput("no p-values to analyze")
	}
	for _, p := range ps {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Calibration{}, errors.InvalidInputf("p-value %v outside [0, 1]", p)
		}
	}

	summary, err := summarize(ps)
	if err != nil {
		return Calibration{}, err
	}

	d := da.ksDistance(ps)
	return Calibration{
		N:        len(ps),
		Summary:  summary,
		KS:       d,
		KSPValue: kolmogorovPValue(d, len(ps)),
		Skewness: skewness(ps, summary.StdDev),
	}, nil
}

func summarize(data []float64) (Summary, error) {
	var s Summary
	var err error

	if s.Mean, err = stats.Mean(data); err != nil {
		return s, errors.Wrap(err, "mean")
	}
	if len(data) > 1 {
		if s.StdDev, err = stats.StandardDeviationSample(data); err != nil {
			return s, errors.Wrap(err, "standard deviation")
		}
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, errors.Wrap(err, "min")
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, errors.Wrap(err, "max")
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, errors.Wrap(err, "median")
	}
	// Percentile rejects samples too small to place a quartile.
	if len(data) < 4 {
		return s, nil
	}
	if s.Q25, err = stats.Percentile(data, 25); err != nil {
		return s, errors.Wrap(err, "25th percentile")
	}
	if s.Q75, err = stats.Percentile(data, 75); err != nil {
		return s, errors.Wrap(err, "75th percentile")
	}
	return s, nil
}

// ksDistance is sup |F_n(x) - F(x)| over the sample points
func (da *DistributionAnalyzer) ksDistance(data []float64) float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	d := 0.0
	for i, x := range sorted {
		cdf := da.reference.CDF(x)
		d = math.Max(d, math.Max(float64(i+1)/n-cdf, cdf-float64(i)/n))
	}
	return d
}

// kolmogorovPValue uses the asymptotic Kolmogorov distribution with
// Stephens' small-sample correction.
func kolmogorovPValue(d float64, n int) float64 {
	if d <= 0 {
		return 1
	}
	sqrtN := math.Sqrt(float64(n))
	lambda := (sqrtN + 0.12 + 0.11/sqrtN) * d

	sum := 0.0
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k*k) * lambda * lambda)
		if k%2 == 1 {
			sum += term
		} else {
			sum -= term
		}
		if term < 1e-12 {
			break
		}
	}
	return math.Min(1, math.Max(0, 2*sum))
}

// skewness is the adjusted sample skewness, zero when undefined
func skewness(data []float64, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}
	return gstat.Skew(data, nil)
}
