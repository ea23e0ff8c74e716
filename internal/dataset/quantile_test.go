package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantileLinear(t *testing.T) {
	x := []float64{50000, 15000}
	assert.InDelta(t, 23750, Quantile(x, 0.25, QuantileLinear), 1e-9)
	assert.InDelta(t, 41250, Quantile(x, 0.75, QuantileLinear), 1e-9)
	assert.Equal(t, 15000.0, Quantile(x, 0, QuantileLinear))
	assert.Equal(t, 50000.0, Quantile(x, 1, QuantileLinear))

	// input order is preserved
	assert.Equal(t, []float64{50000, 15000}, x)

	assert.InDelta(t, 2.5, Quantile([]float64{1, 2, 3, 4}, 0.5, QuantileLinear), 1e-12)
}

func TestQuantileEmpirical(t *testing.T) {
	x := []float64{15000, 50000}
	assert.Equal(t, 15000.0, Quantile(x, 0.25, QuantileEmpirical))
	assert.Equal(t, 50000.0, Quantile(x, 0.75, QuantileEmpirical))
}

func TestQuantileLinInterpWithinRange(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	q := Quantile(x, 0.5, QuantileLinInterp)
	assert.GreaterOrEqual(t, q, 1.0)
	assert.LessOrEqual(t, q, 9.0)
}

func TestQuantileDegenerate(t *testing.T) {
	assert.True(t, math.IsNaN(Quantile(nil, 0.5, QuantileLinear)))
	assert.True(t, math.IsNaN(Quantile([]float64{1}, 1.5, QuantileLinear)))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.25, QuantileLinear))
}

func TestParseQuantileMethod(t *testing.T) {
	m, err := ParseQuantileMethod("")
	require.NoError(t, err)
	assert.Equal(t, QuantileLinear, m)

	m, err = ParseQuantileMethod("empirical")
	require.NoError(t, err)
	assert.Equal(t, QuantileEmpirical, m)

	_, err = ParseQuantileMethod("nearest")
	assert.Error(t, err)
}
