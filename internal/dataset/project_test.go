package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectKeepsRowsAndOrder(t *testing.T) {
	df := newTable(t, []float64{10, 65, 105}, []float64{100, 200, 300}, []float64{1, 2, 1})

	out, err := Project(df, "sex_code", "wage")
	require.NoError(t, err)

	assert.Equal(t, []string{"sex_code", "wage"}, out.Names())
	assert.Equal(t, df.Nrow(), out.Nrow())
	wages, err := Floats(out, "wage")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200, 300}, wages)

	// the input is untouched
	assert.Equal(t, 4, df.Ncol())
}

func TestProjectMissingColumn(t *testing.T) {
	df := newTable(t, []float64{10}, []float64{100}, []float64{1})

	_, err := Project(df, "education_code", "income")
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "income", se.Column)
	assert.Contains(t, se.Available, "wage")
	assert.ErrorIs(t, err, ErrSchema)
}

func TestProjectRejectsBadRequests(t *testing.T) {
	df := newTable(t, []float64{10}, []float64{100}, []float64{1})

	_, err := Project(df)
	assert.Error(t, err)

	_, err = Project(df, "wage", "wage")
	assert.Error(t, err)
}
