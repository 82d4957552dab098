package verdict

// Status is the decision drawn from a test result at a significance level
type Status string

const (
	// StatusRejected means homogeneity of X and Y was rejected
	StatusRejected Status = "rejected"
	// StatusRetained means the data are consistent with homogeneity
	StatusRetained Status = "retained"
)

// TestResult is the immutable outcome of one resampling test
type TestResult struct {
	Statistic   float64                 `json:"statistic"`
	PValue      float64                 `json:"p_value"`
	Replicates  int                     `json:"replicates"`
	Exceedances int                     `json:"exceedances"`
	Null        NullDistributionSummary `json:"null_summary"`
}

// NullDistributionSummary provides key statistics about the bootstrap null distribution
type NullDistributionSummary struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Percentile95 float64 `json:"p95"`
	Percentile99 float64 `json:"p99"`
}

// Decide maps the p-value onto a status at significance level alpha
func (r TestResult) Decide(alpha float64) Status {
	if r.PValue < alpha {
		return StatusRejected
	}
	return StatusRetained
}
