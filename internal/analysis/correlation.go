package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CorrelationTest is a correlation coefficient with its t test against zero.
type CorrelationTest struct {
	Name   string
	Method string // pearson or spearman
	N      int
	R      float64
	T      float64
	DF     float64
	P      float64
}

// Pearson tests the linear correlation of x and y.
func Pearson(name string, x, y []float64) (CorrelationTest, error) {
	return correlate(name, "pearson", x, y)
}

// Spearman tests the rank correlation of x and y. Ties get their average
// rank.
func Spearman(name string, x, y []float64) (CorrelationTest, error) {
	if len(x) != len(y) {
		return CorrelationTest{}, fmt.Errorf("%s: length mismatch %d vs %d", name, len(x), len(y))
	}
	return correlate(name, "spearman", ranks(x), ranks(y))
}

func correlate(name, method string, x, y []float64) (CorrelationTest, error) {
	if len(x) != len(y) {
		return CorrelationTest{}, fmt.Errorf("%s: length mismatch %d vs %d", name, len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return CorrelationTest{}, errTooFew(name, n, 3)
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return CorrelationTest{}, fmt.Errorf("%s: correlation undefined for a constant variable", name)
	}

	df := float64(n - 2)
	t := math.Inf(1)
	if r < 0 {
		t = math.Inf(-1)
	}
	if math.Abs(r) < 1 {
		t = r * math.Sqrt(df/(1-r*r))
	}
	return CorrelationTest{Name: name, Method: method, N: n, R: r, T: t, DF: df, P: twoSidedT(t, df)}, nil
}

// ranks assigns 1-based ranks, averaging over ties.
func ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	out := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			out[idx[k]] = avg
		}
		i = j
	}
	return out
}
