package dataset

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// newTable builds education_code, wage, sex_code plus an extra column so
// projection has something to drop.
func newTable(t *testing.T, education, wage, sex []float64) dataframe.DataFrame {
	t.Helper()
	require.Len(t, wage, len(education))
	require.Len(t, sex, len(education))
	ids := make([]int, len(education))
	for i := range ids {
		ids[i] = i + 1
	}
	df := dataframe.New(
		series.New(ids, series.Int, "person_id"),
		series.New(education, series.Int, "education_code"),
		series.New(wage, series.Float, "wage"),
		series.New(sex, series.Int, "sex_code"),
	)
	require.NoError(t, df.Err)
	return df
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ids(t *testing.T, df dataframe.DataFrame) []float64 {
	t.Helper()
	v, err := Floats(df, "person_id")
	require.NoError(t, err)
	return v
}
