package dataset

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
)

// Named subsample divisors. Each encodes a different sample size intent.
const (
	PlotSampleDivisor  = 1.0005
	RidgeSampleDivisor = 1.03
	ModelSampleDivisor = 1.005
)

// SuffixStart returns round(n/d), the first row kept by Subsample. Rounding
// is half-to-even.
func SuffixStart(n int, d float64) (int, error) {
	if n < 0 || d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, &RangeError{N: n, Divisor: d, Start: -1}
	}
	start := math.RoundToEven(float64(n) / d)
	if start < 0 || start > float64(n) {
		return 0, &RangeError{N: n, Divisor: d, Start: int(start)}
	}
	return int(start), nil
}

// Subsample returns the contiguous suffix [round(N/d), N) of df in its
// original order. It is positional, so its representativeness rests
// entirely on the source file's row order.
func Subsample(df dataframe.DataFrame, d float64) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("subsample: %w", df.Err)
	}
	n := df.Nrow()
	start, err := SuffixStart(n, d)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	idx := make([]int, 0, n-start)
	for i := start; i < n; i++ {
		idx = append(idx, i)
	}
	out := df.Subset(idx)
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("subsample: %w", out.Err)
	}
	return out, nil
}
