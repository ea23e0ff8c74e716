package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecodeBands(t *testing.T) {
	codes := []float64{10, 65, 105, 114, 115, 40, 99, 100, 101, 116}
	df := newTable(t, codes, repeat(30000, len(codes)), []float64{1, 2, 1, 2, 1, 2, 1, 2, 1, 3})

	out, err := Recode(df, DefaultColumns())
	require.NoError(t, err)
	require.Equal(t, df.Nrow(), out.Nrow())

	bands, err := Strings(out, ColEducationBand)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Primary", "HighSchool", "Bachelors", "Masters", "DoctoralProfessional",
		"Primary", "HighSchool", "HighSchool", "Bachelors", "DoctoralProfessional",
	}, bands)

	ranks, err := Floats(out, ColBandRank)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 1, 2, 2, 3, 5}, ranks)

	flags, err := Strings(out, ColCollegeFlag)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"NotCollege", "NotCollege", "CollegeOrMore", "CollegeOrMore", "CollegeOrMore",
		"NotCollege", "NotCollege", "CollegeOrMore", "CollegeOrMore", "CollegeOrMore",
	}, flags)

	genders, err := Strings(out, ColGenderLabel)
	require.NoError(t, err)
	assert.Equal(t, []string{"Male", "Female", "Male", "Female", "Male", "Female", "Male", "Female", "Male", "Female"}, genders)

	// source columns are carried through unchanged
	got, err := Floats(out, "education_code")
	require.NoError(t, err)
	assert.Equal(t, codes, got)
}

func TestBandForCoversCodebook(t *testing.T) {
	counts := make(map[Band]int)
	for code := MinEducationCode; code <= MaxEducationCode; code++ {
		band, ok := BandFor(code)
		require.True(t, ok, "code %d", code)
		counts[band]++

		flag, ok := CollegeFlagFor(code)
		require.True(t, ok, "code %d", code)
		assert.Equal(t, code >= 100, flag == CollegeOrMore, "code %d", code)
	}
	assert.Equal(t, map[Band]int{
		Primary:              63,
		HighSchool:           38,
		Bachelors:            13,
		Masters:              1,
		DoctoralProfessional: 2,
	}, counts)

	for _, code := range []int{-1, 117, 999} {
		_, ok := BandFor(code)
		assert.False(t, ok, "code %d", code)
		_, ok = CollegeFlagFor(code)
		assert.False(t, ok, "code %d", code)
	}
}

func TestCollegeOverlapAtHundred(t *testing.T) {
	assert.Equal(t, []CollegeFlag{NotCollege, CollegeOrMore}, CollegeRuleMatches(100))
	assert.Equal(t, []CollegeFlag{NotCollege}, CollegeRuleMatches(99))
	assert.Equal(t, []CollegeFlag{CollegeOrMore}, CollegeRuleMatches(101))

	flag, ok := CollegeFlagFor(100)
	require.True(t, ok)
	assert.Equal(t, CollegeOrMore, flag)
}

func TestGenderFor(t *testing.T) {
	assert.Equal(t, Male, GenderFor(1))
	assert.Equal(t, Female, GenderFor(2))
	assert.Equal(t, Female, GenderFor(0))
	assert.Equal(t, "Female", Female.String())
}

func TestRecodeOutOfCodebook(t *testing.T) {
	df := newTable(t, []float64{10, 117}, []float64{1, 2}, []float64{1, 1})

	_, err := Recode(df, DefaultColumns())
	require.Error(t, err)

	var ee *EncodingError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 1, ee.Row)
	assert.Equal(t, 117.0, ee.Value)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestRecodeMissingCodes(t *testing.T) {
	df := newTable(t, []float64{nan, 50}, []float64{1000, 2000}, []float64{1, nan})

	out, err := Recode(df, DefaultColumns())
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, out.Col(ColEducationBand).IsNaN())
	assert.Equal(t, []bool{true, false}, out.Col(ColBandRank).IsNaN())
	assert.Equal(t, []bool{false, true}, out.Col(ColGenderLabel).IsNaN())
}

func TestRecodeMissingSourceColumn(t *testing.T) {
	df := newTable(t, []float64{10}, []float64{1}, []float64{1})
	cols := DefaultColumns()
	cols.Sex = "sex"

	_, err := Recode(df, cols)
	assert.ErrorIs(t, err, ErrSchema)
}
