package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsampleBoundaryIsEmpty(t *testing.T) {
	df := newTable(t, repeat(70, 100), repeat(1000, 100), repeat(1, 100))

	out, err := Subsample(df, PlotSampleDivisor)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Nrow())
	assert.Equal(t, df.Names(), out.Names())
}

func TestSubsampleIsContiguousSuffix(t *testing.T) {
	const n = 1000
	df := newTable(t, repeat(70, n), repeat(1000, n), repeat(1, n))

	for _, d := range []float64{PlotSampleDivisor, RidgeSampleDivisor, ModelSampleDivisor, 2} {
		start, err := SuffixStart(n, d)
		require.NoError(t, err)

		out, err := Subsample(df, d)
		require.NoError(t, err)
		require.Equal(t, n-start, out.Nrow(), "divisor %v", d)

		got := ids(t, out)
		for i, id := range got {
			assert.Equal(t, float64(start+i+1), id)
		}
	}
}

func TestSuffixStartRounding(t *testing.T) {
	cases := []struct {
		n    int
		d    float64
		want int
	}{
		{100, 1.0005, 100},
		{1000, 1.03, 971},
		{1000, 1.005, 995},
		{5, 2, 2}, // 2.5 rounds to even
		{7, 2, 4}, // 3.5 rounds to even
		{0, 1.03, 0},
	}
	for _, tc := range cases {
		got, err := SuffixStart(tc.n, tc.d)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "n=%d d=%v", tc.n, tc.d)
	}
}

func TestSuffixStartOutOfRange(t *testing.T) {
	for _, d := range []float64{0, -1, 0.5} {
		_, err := SuffixStart(100, d)
		assert.ErrorIs(t, err, ErrRange, "divisor %v", d)
	}

	df := newTable(t, repeat(70, 10), repeat(1000, 10), repeat(1, 10))
	_, err := Subsample(df, 0.5)
	var re *RangeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 20, re.Start)
}
