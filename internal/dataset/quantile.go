package dataset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// QuantileMethod selects how quartiles are estimated from a sample.
type QuantileMethod string

const (
	// QuantileLinear interpolates between order statistics at h = (n-1)p,
	// the default of most statistics packages.
	QuantileLinear QuantileMethod = "linear"
	// QuantileEmpirical returns the smallest sample at or above p of the
	// empirical distribution (gonum stat.Empirical).
	QuantileEmpirical QuantileMethod = "empirical"
	// QuantileLinInterp interpolates the empirical CDF (gonum stat.LinInterp).
	QuantileLinInterp QuantileMethod = "lininterp"
)

// ParseQuantileMethod accepts the config spelling of a method.
func ParseQuantileMethod(s string) (QuantileMethod, error) {
	switch m := QuantileMethod(s); m {
	case QuantileLinear, QuantileEmpirical, QuantileLinInterp:
		return m, nil
	case "":
		return QuantileLinear, nil
	default:
		return "", fmt.Errorf("unknown quantile method %q (valid: linear, empirical, lininterp)", s)
	}
}

// Quantile estimates the p-quantile of x. x need not be sorted and is not
// modified. An empty sample, or one holding NaN, yields NaN.
func Quantile(x []float64, p float64, method QuantileMethod) float64 {
	if len(x) == 0 || p < 0 || p > 1 || floats.HasNaN(x) {
		return math.NaN()
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	switch method {
	case QuantileEmpirical:
		return stat.Quantile(p, stat.Empirical, sorted, nil)
	case QuantileLinInterp:
		return stat.Quantile(p, stat.LinInterp, sorted, nil)
	default:
		return linearQuantile(sorted, p)
	}
}

func linearQuantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
