package analysis

import (
	"context"
	"strings"
	"testing"

	"censuswage/internal/dataset"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticTable builds a recoded, filtered table where every band and both
// genders appear and college status overlaps in wage.
func syntheticTable(t *testing.T, n int) dataframe.DataFrame {
	t.Helper()
	codes := []float64{30, 70, 105, 114, 115}
	base := map[float64]float64{30: 20000, 70: 30000, 105: 50000, 114: 60000, 115: 80000}

	edu := make([]float64, n)
	wage := make([]float64, n)
	sex := make([]float64, n)
	for i := 0; i < n; i++ {
		edu[i] = codes[i%len(codes)]
		sex[i] = float64(1 + (i/3)%2)
		wage[i] = base[edu[i]] + 2500*float64((i*7)%13)
		if sex[i] == 2 {
			wage[i] -= 3000
		}
	}
	df := dataframe.New(
		series.New(edu, series.Int, "education_code"),
		series.New(wage, series.Float, "wage"),
		series.New(sex, series.Int, "sex_code"),
	)
	require.NoError(t, df.Err)

	cleaned, err := dataset.Clean(context.Background(), df, dataset.DefaultColumns(), dataset.DefaultFilterConfig(), nil)
	require.NoError(t, err)
	require.Equal(t, n, cleaned.Table.Nrow())
	return cleaned.Table
}

func defaultOptions(parallelism int) Options {
	return Options{
		Parallelism:   parallelism,
		RidgeLambda:   1,
		MaxIterations: 50,
		Tolerance:     1e-8,
		Method:        dataset.QuantileLinear,
	}
}

func TestRunBattery(t *testing.T) {
	table := syntheticTable(t, 400)
	in := Input{Table: table, Ridge: table, Model: table, Columns: dataset.DefaultColumns()}

	b, err := Run(context.Background(), in, defaultOptions(1))
	require.NoError(t, err)

	assert.Empty(t, b.Skipped)
	assert.Equal(t, 400, b.Overall.N)
	require.Len(t, b.ByBand, 5)
	assert.Equal(t, "Primary", b.ByBand[0].Group)
	assert.Equal(t, "DoctoralProfessional", b.ByBand[4].Group)
	assert.Len(t, b.ByCollege, 2)
	assert.Len(t, b.ByGender, 2)

	require.Len(t, b.TTests, 2)
	assert.Equal(t, ProcTTestCollege, b.TTests[0].Name)
	assert.Greater(t, b.TTests[0].Diff, 0.0)
	assert.Equal(t, ProcTTestGender, b.TTests[1].Name)
	assert.Greater(t, b.TTests[1].Diff, 0.0)

	require.Len(t, b.Correlations, 2)
	assert.Greater(t, b.Correlations[0].R, 0.5)
	assert.Greater(t, b.Correlations[1].R, 0.5)

	require.Len(t, b.Regressions, 3)
	assert.Equal(t, []string{ProcOLSWage, ProcOLSLogWage, ProcRidgeWage},
		[]string{b.Regressions[0].Name, b.Regressions[1].Name, b.Regressions[2].Name})
	female := termByName(t, b.Regressions[0].Terms, "Female")
	assert.Less(t, female.Estimate, 0.0)

	require.Len(t, b.Models, 2)
	assert.Equal(t, "logit", b.Models[0].Link)
	assert.Equal(t, "probit", b.Models[1].Link)
	assert.Greater(t, termByName(t, b.Models[0].Terms, "wage_z").Estimate, 0.0)

	assert.NotEmpty(t, b.Estimates())
}

func TestRunBatteryOrderIndependentOfParallelism(t *testing.T) {
	table := syntheticTable(t, 200)
	in := Input{Table: table, Ridge: table, Model: table, Columns: dataset.DefaultColumns()}

	seq, err := Run(context.Background(), in, defaultOptions(1))
	require.NoError(t, err)
	par, err := Run(context.Background(), in, defaultOptions(8))
	require.NoError(t, err)

	if diff := cmp.Diff(seq.Estimates(), par.Estimates(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("estimates differ between sequential and parallel runs (-seq +par):\n%s", diff)
	}
}

func TestRunBatterySkipsOnEmptySubsample(t *testing.T) {
	table := syntheticTable(t, 100)
	empty, err := dataset.Subsample(table, dataset.PlotSampleDivisor)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Nrow())

	in := Input{Table: table, Ridge: empty, Model: empty, Columns: dataset.DefaultColumns()}
	b, err := Run(context.Background(), in, defaultOptions(2))
	require.NoError(t, err)

	var names []string
	for _, s := range b.Skipped {
		names = append(names, s.Procedure)
		assert.NotEmpty(t, s.Reason)
		assert.False(t, strings.HasPrefix(s.Reason, s.Procedure), "reason repeats the procedure: %q", s.Reason)
	}
	assert.Equal(t, []string{ProcRidgeWage, ProcLogitCollege, ProcProbitCollege}, names)
	assert.Len(t, b.Regressions, 2)
	assert.Empty(t, b.Models)
}

func TestRunBatteryCancelled(t *testing.T) {
	table := syntheticTable(t, 50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Input{Table: table, Ridge: table, Model: table, Columns: dataset.DefaultColumns()}, defaultOptions(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatteryMissingDerivedColumns(t *testing.T) {
	df := dataframe.New(series.New([]float64{1, 2}, series.Float, "wage"))
	_, err := Run(context.Background(), Input{Table: df, Ridge: df, Model: df, Columns: dataset.DefaultColumns()}, defaultOptions(1))
	assert.ErrorIs(t, err, dataset.ErrSchema)
}
