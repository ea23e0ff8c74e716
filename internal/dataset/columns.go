// Package dataset holds the census table and the cleaning steps applied to
// it: loading, projection, recoding, outlier filtering and positional
// subsampling. Tables are gota DataFrames and every step returns a new one.
package dataset

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Names of the derived columns appended by Recode.
const (
	ColEducationBand = "education_band"
	ColCollegeFlag   = "college_flag"
	ColGenderLabel   = "gender_label"
	ColBandRank      = "band_rank"
)

// Columns maps the three source variables onto the extract's column names.
type Columns struct {
	Education string `yaml:"education"`
	Wage      string `yaml:"wage"`
	Sex       string `yaml:"sex"`
}

// DefaultColumns matches the public-use microdata naming.
func DefaultColumns() Columns {
	return Columns{
		Education: "education_code",
		Wage:      "wage",
		Sex:       "sex_code",
	}
}

// Source returns the projection order: education, wage, sex.
func (c Columns) Source() []string {
	return []string{c.Education, c.Wage, c.Sex}
}

// column fetches a column or reports which ones exist.
func column(df dataframe.DataFrame, name string) (series.Series, error) {
	for _, n := range df.Names() {
		if n == name {
			return df.Col(name), nil
		}
	}
	return series.Series{}, &SchemaError{Column: name, Available: df.Names()}
}

// Floats returns a numeric column as float64, with NaN for missing cells.
func Floats(df dataframe.DataFrame, name string) ([]float64, error) {
	s, err := column(df, name)
	if err != nil {
		return nil, err
	}
	return s.Float(), nil
}

// Strings returns a column's cells formatted as strings.
func Strings(df dataframe.DataFrame, name string) ([]string, error) {
	s, err := column(df, name)
	if err != nil {
		return nil, err
	}
	return s.Records(), nil
}
