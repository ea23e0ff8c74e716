// Package analysis runs the statistical battery over a cleaned census table:
// descriptive summaries, Welch t-tests, correlation tests, linear and ridge
// regressions and binary choice models. Everything numeric goes through
// gonum.
package analysis

import (
	"math"

	"censuswage/internal/dataset"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one wage distribution.
type Summary struct {
	Group  string
	N      int
	Mean   float64
	SD     float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarises x. SD is NaN below two observations and every
// statistic is NaN for an empty sample.
func Describe(group string, x []float64, method dataset.QuantileMethod) Summary {
	s := Summary{Group: group, N: len(x)}
	if len(x) == 0 {
		nan := math.NaN()
		s.Mean, s.SD, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	s.Mean, s.SD = stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		s.SD = math.NaN()
	}
	s.Min = floats.Min(x)
	s.Max = floats.Max(x)
	s.Q1 = dataset.Quantile(x, 0.25, method)
	s.Median = dataset.Quantile(x, 0.5, method)
	s.Q3 = dataset.Quantile(x, 0.75, method)
	return s
}

// DescribeBy summarises values per group label, in the order given. Labels
// with no observations are omitted.
func DescribeBy(values []float64, labels []string, order []string, method dataset.QuantileMethod) []Summary {
	groups := make(map[string][]float64, len(order))
	for i, label := range labels {
		groups[label] = append(groups[label], values[i])
	}
	out := make([]Summary, 0, len(order))
	for _, label := range order {
		if x := groups[label]; len(x) > 0 {
			out = append(out, Describe(label, x, method))
		}
	}
	return out
}
