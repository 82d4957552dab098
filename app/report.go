package app

import (
	"fmt"
	"sort"
	"strings"

	"anchortest/domain/core"
	"anchortest/domain/experiment"
	"anchortest/internal/profiling"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"
)

// DefaultAlpha is the significance level used for rejection rates in reports
const DefaultAlpha = 0.05

// ScenarioSummary aggregates the rows of one scenario proportion within a
// distribution pairing.
type ScenarioSummary struct {
	Pair          string
	Proportion    float64
	Rows          int
	Rejections    int
	MeanPValue    float64
	MedianPValue  float64
	MeanStatistic float64
}

// RejectionRate is the share of rows with p below alpha
func (s ScenarioSummary) RejectionRate() float64 {
	if s.Rows == 0 {
		return 0
	}
	return float64(s.Rejections) / float64(s.Rows)
}

// SummarizeScenarios groups rows by pairing and proportion, ordered by
// pairing name and then by descending proportion.
func SummarizeScenarios(rows []experiment.Row, alpha float64) []ScenarioSummary {
	type key struct {
		pair       string
		proportion float64
	}
	pValues := map[key][]float64{}
	observed := map[key][]float64{}
	var keys []key
	for _, row := range rows {
		k := key{row.DistX + "/" + row.DistY, row.Proportion}
		if _, ok := pValues[k]; !ok {
			keys = append(keys, k)
		}
		pValues[k] = append(pValues[k], row.PValue)
		observed[k] = append(observed[k], row.Observed)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pair != keys[j].pair {
			return keys[i].pair < keys[j].pair
		}
		return keys[i].proportion > keys[j].proportion
	})

	out := make([]ScenarioSummary, 0, len(keys))
	for _, k := range keys {
		ps := pValues[k]
		summary := ScenarioSummary{
			Pair:       k.pair,
			Proportion: k.proportion,
			Rows:       len(ps),
		}
		for _, p := range ps {
			if p < alpha {
				summary.Rejections++
			}
		}
		summary.MeanPValue, _ = stats.Mean(ps)
		summary.MedianPValue, _ = stats.Median(ps)
		summary.MeanStatistic, _ = stats.Mean(observed[k])
		out = append(out, summary)
	}
	return out
}

// PairCalibration is the p-value calibration of one null pairing
type PairCalibration struct {
	Pair string
	profiling.Calibration
}

// CalibrateNull measures, per same-distribution pairing without a shift,
// how far the p-values are from Uniform(0, 1). Pairs are sorted by name.
func CalibrateNull(rows []experiment.Row) []PairCalibration {
	byPair := map[string][]float64{}
	for _, row := range rows {
		if row.DistX != row.DistY || row.Shift != 0 {
			continue
		}
		pair := row.DistX + "/" + row.DistY
		byPair[pair] = append(byPair[pair], row.PValue)
	}

	pairs := make([]string, 0, len(byPair))
	for pair := range byPair {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	analyzer := profiling.NewDistributionAnalyzer()
	out := make([]PairCalibration, 0, len(pairs))
	for _, pair := range pairs {
		cal, err := analyzer.AnalyzePValues(byPair[pair])
		if err != nil {
			continue
		}
		out = append(out, PairCalibration{Pair: pair, Calibration: cal})
	}
	return out
}

// BuildReport renders the rows of one experiment as Markdown
func BuildReport(id core.ExperimentID, rows []experiment.Row, alpha float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Experiment %s\n\n", id)

	exhausted := 0
	for _, row := range rows {
		if row.Status == experiment.RowRetriesExhausted {
			exhausted++
		}
	}
	fmt.Fprintf(&b, "- Rows: %d\n", len(rows))
	fmt.Fprintf(&b, "- Rows with exhausted retries: %d\n", exhausted)
	fmt.Fprintf(&b, "- Significance level: %g\n\n", alpha)

	if len(rows) == 0 {
		b.WriteString("No results.\n")
		return b.String()
	}

	b.WriteString("## Rejection rates\n\n")
	b.WriteString("| Pair | Proportion | Rows | Rejected | Rate | Mean p | Median p | Mean T |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, s := range SummarizeScenarios(rows, alpha) {
		fmt.Fprintf(&b, "| %s | %.2f | %d | %d | %.3f | %.4f | %.4f | %.3g |\n",
			s.Pair, s.Proportion, s.Rows, s.Rejections, s.RejectionRate(),
			s.MeanPValue, s.MedianPValue, s.MeanStatistic)
	}

	if cal := CalibrateNull(rows); len(cal) > 0 {
		b.WriteString("\n## Null calibration\n\n")
		b.WriteString("Same-distribution pairs without a shift; p-values should look Uniform(0, 1).\n\n")
		b.WriteString("| Pair | Rows | Mean p | Median p | KS | KS p | Calibrated |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, c := range cal {
			fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f | %.4f | %.4f | %t |\n",
				c.Pair, c.N, c.Summary.Mean, c.Summary.Median, c.KS, c.KSPValue, c.IsCalibrated(alpha))
		}
	}

	b.WriteString("\n## Results\n\n")
	b.WriteString("| Pair | d | Scenario | n | m | z | B | T | p | Attempt | Status |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s/%s | %d | %s | %d | %d | %d | %d | %.6g | %.4f | %d | %s |\n",
			row.DistX, row.DistY, row.Dimension, row.Scenario, row.N, row.M, row.Z,
			row.Replicates, row.Observed, row.PValue, row.Attempt, row.Status)
	}
	return b.String()
}

// RenderHTML converts Markdown to an HTML fragment
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}
