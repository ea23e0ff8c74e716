package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterOutliersWageScenario(t *testing.T) {
	wages := []float64{0, 5, 15000, 50000, 1000000, 999999}
	df := newTable(t, repeat(70, 6), wages, repeat(1, 6))

	out, report, err := FilterOutliers(df, DefaultFilterConfig())
	require.NoError(t, err)

	// 5 is positive and below the sentinel, so it survives the first stages
	assert.Equal(t, 2, report.SentinelRemoved)
	assert.Equal(t, 1, report.NonPositiveRemoved)
	assert.Equal(t, 0, report.MissingRemoved)
	assert.Equal(t, 0, report.IQRRemoved)

	// type 7 quartiles of {5, 15000, 50000}
	assert.InDelta(t, 7502.5, report.Q1, 1e-9)
	assert.InDelta(t, 32500, report.Q3, 1e-9)
	assert.InDelta(t, 437496.25, report.Upper, 1e-9)
	assert.InDelta(t, -21896.25, report.Lower, 1e-9)

	got, err := Floats(out, "wage")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 15000, 50000}, got)
	assert.Equal(t, 3, report.RowsOut)
	assert.Equal(t, 6, report.RowsIn)
	assert.Equal(t, 3, report.Removed())
}

func TestFilterOutliersClosedFormBounds(t *testing.T) {
	df := newTable(t, repeat(70, 2), []float64{15000, 50000}, repeat(2, 2))

	out, report, err := FilterOutliers(df, DefaultFilterConfig())
	require.NoError(t, err)

	assert.InDelta(t, 23750, report.Q1, 1e-9)
	assert.InDelta(t, 41250, report.Q3, 1e-9)
	assert.InDelta(t, 17500, report.IQR, 1e-9)
	assert.InDelta(t, 426250, report.Upper, 1e-9)
	assert.InDelta(t, -10650, report.Lower, 1e-9)
	assert.Equal(t, 2, out.Nrow())
}

func TestFilterOutliersIQRStage(t *testing.T) {
	wages := []float64{20000, 30000, 40000, 50000, 990000}
	df := newTable(t, repeat(70, 5), wages, repeat(1, 5))

	out, report, err := FilterOutliers(df, DefaultFilterConfig())
	require.NoError(t, err)

	// Q1=30000 Q3=50000 so the upper bound is 430000
	assert.InDelta(t, 430000, report.Upper, 1e-9)
	assert.Equal(t, 1, report.IQRRemoved)
	assert.Equal(t, []float64{1, 2, 3, 4}, ids(t, out))
}

func TestFilterOutliersDropsIncompleteRows(t *testing.T) {
	df := newTable(t,
		[]float64{70, nan, 70, 70},
		[]float64{20000, 30000, nan, 40000},
		[]float64{1, 1, 1, nan},
	)

	out, report, err := FilterOutliers(df, DefaultFilterConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, report.MissingRemoved)
	assert.Equal(t, []float64{1}, ids(t, out))
}

func TestFilterOutliersSecondPassStableWhenNothingTrimmed(t *testing.T) {
	wages := []float64{20000, 30000, 40000, 50000, 60000}
	df := newTable(t, repeat(70, 5), wages, repeat(1, 5))

	once, first, err := FilterOutliers(df, DefaultFilterConfig())
	require.NoError(t, err)
	require.Equal(t, 0, first.IQRRemoved)
	twice, second, err := FilterOutliers(once, DefaultFilterConfig())
	require.NoError(t, err)

	assert.Equal(t, 0, second.Removed())
	assert.Equal(t, first.Upper, second.Upper)
	assert.Equal(t, first.Lower, second.Lower)
	assert.Equal(t, ids(t, once), ids(t, twice))
}

// The quartiles are taken from whatever reaches the IQR stage, so once the
// first pass trims a wage the second pass sees a narrower IQR.
func TestFilterOutliersSecondPassTightensBounds(t *testing.T) {
	wages := []float64{20000, 30000, 40000, 50000, 440000, 990000}
	df := newTable(t, repeat(70, 6), wages, repeat(1, 6))

	once, first, err := FilterOutliers(df, DefaultFilterConfig())
	require.NoError(t, err)
	// Q1=32500 Q3=342500
	assert.InDelta(t, 865000, first.Upper, 1e-9)
	assert.Equal(t, 1, first.IQRRemoved)
	got, err := Floats(once, "wage")
	require.NoError(t, err)
	assert.Equal(t, []float64{20000, 30000, 40000, 50000, 440000}, got)

	twice, second, err := FilterOutliers(once, DefaultFilterConfig())
	require.NoError(t, err)
	// Q1=30000 Q3=50000
	assert.InDelta(t, 430000, second.Upper, 1e-9)
	assert.Equal(t, 1, second.IQRRemoved)
	got, err = Floats(twice, "wage")
	require.NoError(t, err)
	assert.Equal(t, []float64{20000, 30000, 40000, 50000}, got)
}

func TestFilterOutliersMissingWageColumn(t *testing.T) {
	df := newTable(t, []float64{70}, []float64{1}, []float64{1})
	cfg := DefaultFilterConfig()
	cfg.Wage = "income"

	_, _, err := FilterOutliers(df, cfg)
	assert.ErrorIs(t, err, ErrSchema)
}
