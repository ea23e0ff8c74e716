package dataset

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path    string
		format  Format
		gzipped bool
		wantErr bool
	}{
		{"acs.parquet", FormatParquet, false, false},
		{"ACS.PQ", FormatParquet, false, false},
		{"acs.feather", FormatArrow, false, false},
		{"acs.arrow", FormatArrow, false, false},
		{"acs.csv", FormatCSV, false, false},
		{"acs.csv.gz", FormatCSV, true, false},
		{"acs.parquet.gz", "", false, true},
		{"acs.dta", "", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			format, gz, err := DetectFormat(tc.path)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.format, format)
			assert.Equal(t, tc.gzipped, gz)
		})
	}
}

func sampleExtract(t *testing.T) dataframe.DataFrame {
	t.Helper()
	df := dataframe.New(
		series.New([]float64{10, 105, nan, 116}, series.Int, "education_code"),
		series.New([]float64{21000.5, 999999, 43000, nan}, series.Float, "wage"),
		series.New([]float64{1, 2, 2, 1}, series.Int, "sex_code"),
		series.New([]string{"CA", "NY", "NaN", "TX"}, series.String, "state"),
	)
	require.NoError(t, df.Err)
	return df
}

func TestWriteLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"extract.parquet", "extract.arrow", "extract.csv", "extract.csv.gz"} {
		t.Run(name, func(t *testing.T) {
			src := sampleExtract(t)
			path := filepath.Join(t.TempDir(), "out", name)
			require.NoError(t, Write(src, path))

			got, err := Load(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, src.Names(), got.Names())
			assert.Equal(t, src.Nrow(), got.Nrow())
			for _, col := range src.Names() {
				assert.Equal(t, src.Col(col).IsNaN(), got.Col(col).IsNaN(), "column %s", col)
			}

			edu, err := Floats(got, "education_code")
			require.NoError(t, err)
			assert.Equal(t, []float64{10, 105}, edu[:2])
			assert.Equal(t, 116.0, edu[3])

			wage, err := Floats(got, "wage")
			require.NoError(t, err)
			assert.Equal(t, []float64{21000.5, 999999, 43000}, wage[:3])

			state, err := Strings(got, "state")
			require.NoError(t, err)
			assert.Equal(t, "NY", state[1])
		})
	}
}

func TestWriteFileRemovesPartialOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extract.parquet")
	full := errors.New("no space left on device")

	err := writeFile(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, "PAR1"); err != nil {
			return err
		}
		return full
	})
	require.ErrorIs(t, err, full)
	assert.Contains(t, err.Error(), path)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "partial file left behind")
}

func TestWriteFileKeepsCompleteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "wage\n1\n")
		return err
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "wage\n1\n", string(data))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.parquet"))
	require.Error(t, err)

	var dse *DataSourceError
	require.ErrorAs(t, err, &dse)
	assert.ErrorIs(t, err, ErrDataSource)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acs.sav")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrDataSource)
}

func TestLoadCorruptParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acs.parquet")
	require.NoError(t, os.WriteFile(path, []byte("not a parquet file"), 0644))

	_, err := Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrDataSource)
}

func TestLoadHeaderOnlyCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acs.csv")
	require.NoError(t, os.WriteFile(path, []byte("education_code,wage,sex_code\n"), 0644))

	_, err := Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrDataSource)
}

func TestLoadCSVMissingSpellings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acs.csv")
	data := "education_code,wage,sex_code\n10,100,1\n.,200,2\n20,NA,1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	df, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, df.Col("education_code").IsNaN())
	assert.Equal(t, []bool{false, false, true}, df.Col("wage").IsNaN())
}
