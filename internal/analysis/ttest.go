package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTest is a two-sample Welch t-test of mean wage, A minus B.
type TTest struct {
	Name   string
	GroupA string
	GroupB string
	NA, NB int
	MeanA  float64
	MeanB  float64
	Diff   float64
	T      float64
	DF     float64
	P      float64
}

// WelchTTest compares the means of a and b without assuming equal
// variances, using the Welch-Satterthwaite degrees of freedom.
func WelchTTest(name, groupA, groupB string, a, b []float64) (TTest, error) {
	if len(a) < 2 || len(b) < 2 {
		return TTest{}, fmt.Errorf("%s: need two observations per group, got %d and %d", name, len(a), len(b))
	}
	ma, sa := stat.MeanStdDev(a, nil)
	mb, sb := stat.MeanStdDev(b, nil)
	va := sa * sa / float64(len(a))
	vb := sb * sb / float64(len(b))
	if va+vb == 0 {
		return TTest{}, fmt.Errorf("%s: both groups have zero variance", name)
	}

	t := (ma - mb) / math.Sqrt(va+vb)
	df := (va + vb) * (va + vb) / (va*va/float64(len(a)-1) + vb*vb/float64(len(b)-1))
	return TTest{
		Name:   name,
		GroupA: groupA,
		GroupB: groupB,
		NA:     len(a),
		NB:     len(b),
		MeanA:  ma,
		MeanB:  mb,
		Diff:   ma - mb,
		T:      t,
		DF:     df,
		P:      twoSidedT(t, df),
	}, nil
}

func twoSidedT(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	return 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
}

func twoSidedZ(z float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}
