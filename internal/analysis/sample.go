package analysis

import (
	"fmt"

	"censuswage/internal/dataset"

	"github.com/go-gota/gota/dataframe"
)

// Sample is the column view of a cleaned table that the procedures read.
type Sample struct {
	Wage      []float64
	Education []float64
	BandRank  []float64
	Band      []string
	College   []string
	Gender    []string
}

// NewSample extracts the source and derived columns from a recoded table.
func NewSample(df dataframe.DataFrame, cols dataset.Columns) (Sample, error) {
	var s Sample
	var err error
	if s.Wage, err = dataset.Floats(df, cols.Wage); err != nil {
		return Sample{}, err
	}
	if s.Education, err = dataset.Floats(df, cols.Education); err != nil {
		return Sample{}, err
	}
	if s.BandRank, err = dataset.Floats(df, dataset.ColBandRank); err != nil {
		return Sample{}, err
	}
	if s.Band, err = dataset.Strings(df, dataset.ColEducationBand); err != nil {
		return Sample{}, err
	}
	if s.College, err = dataset.Strings(df, dataset.ColCollegeFlag); err != nil {
		return Sample{}, err
	}
	if s.Gender, err = dataset.Strings(df, dataset.ColGenderLabel); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// Len is the number of observations.
func (s Sample) Len() int { return len(s.Wage) }

// split partitions x by whether label equals a.
func split(x []float64, labels []string, a, b string) (xa, xb []float64) {
	for i, l := range labels {
		switch l {
		case a:
			xa = append(xa, x[i])
		case b:
			xb = append(xb, x[i])
		}
	}
	return xa, xb
}

// indicator returns 1 where labels equals want, 0 elsewhere.
func indicator(labels []string, want string) []float64 {
	out := make([]float64, len(labels))
	for i, l := range labels {
		if l == want {
			out[i] = 1
		}
	}
	return out
}

func errTooFew(proc string, n, need int) error {
	return fmt.Errorf("%s: %d observations, need at least %d", proc, n, need)
}
