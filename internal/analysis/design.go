package analysis

import (
	"censuswage/internal/dataset"

	"gonum.org/v1/gonum/mat"
)

const interceptTerm = "(Intercept)"

// Design is a model matrix with named columns.
type Design struct {
	Names   []string
	X       *mat.Dense
	Dropped []string // predictors left out because they never vary
}

// wageDesign builds band dummies with Primary as the reference level plus a
// Female indicator.
func wageDesign(s Sample, intercept bool) Design {
	var names []string
	var cols [][]float64
	for _, b := range dataset.Bands[1:] {
		names = append(names, b.String())
		cols = append(cols, indicator(s.Band, b.String()))
	}
	names = append(names, dataset.Female.String())
	cols = append(cols, indicator(s.Gender, dataset.Female.String()))
	return newDesign(names, cols, intercept)
}

// collegeDesign uses standardized wage and the Female indicator.
func collegeDesign(s Sample) Design {
	return newDesign(
		[]string{"wage_z", dataset.Female.String()},
		[][]float64{standardize(s.Wage), indicator(s.Gender, dataset.Female.String())},
		true,
	)
}

func newDesign(names []string, cols [][]float64, intercept bool) Design {
	var d Design
	var keep [][]float64
	if intercept && len(cols) > 0 {
		ones := make([]float64, len(cols[0]))
		for i := range ones {
			ones[i] = 1
		}
		d.Names = append(d.Names, interceptTerm)
		keep = append(keep, ones)
	}
	for i, c := range cols {
		if constant(c) {
			d.Dropped = append(d.Dropped, names[i])
			continue
		}
		d.Names = append(d.Names, names[i])
		keep = append(keep, c)
	}

	if len(keep) == 0 || len(keep[0]) == 0 {
		return d
	}
	n, p := len(keep[0]), len(keep)
	d.X = mat.NewDense(n, p, nil)
	for j, c := range keep {
		d.X.SetCol(j, c)
	}
	return d
}

func constant(x []float64) bool {
	if len(x) == 0 {
		return true
	}
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
