package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrSingular reports a design whose cross-product cannot be factorized.
var ErrSingular = errors.New("design matrix is singular")

// Term is one fitted coefficient. StdErr, Statistic and P are NaN where the
// procedure gives no inference (ridge).
type Term struct {
	Name      string
	Estimate  float64
	StdErr    float64
	Statistic float64
	P         float64
}

// Regression is a fitted linear model.
type Regression struct {
	Name     string
	Response string
	N        int
	Terms    []Term
	R2       float64
	AdjR2    float64
	Sigma    float64
	Lambda   float64
	Dropped  []string
}

// OLS fits y on the design by least squares through the normal equations,
// with t tests on n-p degrees of freedom.
func OLS(name, response string, d Design, y []float64) (Regression, error) {
	if d.X == nil {
		return Regression{}, fmt.Errorf("%s: empty design", name)
	}
	n, p := d.X.Dims()
	if n != len(y) {
		return Regression{}, fmt.Errorf("%s: %d rows but %d responses", name, n, len(y))
	}
	if n <= p {
		return Regression{}, errTooFew(name, n, p+1)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(crossProduct(d.X, nil)); !ok {
		return Regression{}, fmt.Errorf("%s: %w", name, ErrSingular)
	}
	var xty mat.VecDense
	xty.MulVec(d.X.T(), mat.NewVecDense(n, y))
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return Regression{}, fmt.Errorf("%s: %w", name, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(d.X, &beta)
	mean := stat.Mean(y, nil)
	var rss, tss float64
	for i, v := range y {
		r := v - fitted.AtVec(i)
		rss += r * r
		tss += (v - mean) * (v - mean)
	}
	df := float64(n - p)
	sigma2 := rss / df

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return Regression{}, fmt.Errorf("%s: %w", name, err)
	}

	reg := Regression{
		Name:     name,
		Response: response,
		N:        n,
		Sigma:    math.Sqrt(sigma2),
		Dropped:  d.Dropped,
	}
	for j, term := range d.Names {
		b := beta.AtVec(j)
		se := math.Sqrt(sigma2 * inv.At(j, j))
		t := b / se
		reg.Terms = append(reg.Terms, Term{Name: term, Estimate: b, StdErr: se, Statistic: t, P: twoSidedT(t, df)})
	}
	if tss > 0 {
		reg.R2 = 1 - rss/tss
		reg.AdjR2 = 1 - (1-reg.R2)*float64(n-1)/df
	}
	return reg, nil
}

// Ridge fits y on the design's predictors after standardizing each one,
// penalising the squared standardized coefficients by lambda. The design
// must not carry an intercept column; coefficients are reported on the
// original scale with the intercept recovered from the means.
func Ridge(name, response string, d Design, y []float64, lambda float64) (Regression, error) {
	if d.X == nil {
		return Regression{}, fmt.Errorf("%s: empty design", name)
	}
	if lambda < 0 {
		return Regression{}, fmt.Errorf("%s: negative penalty %v", name, lambda)
	}
	n, p := d.X.Dims()
	if n != len(y) {
		return Regression{}, fmt.Errorf("%s: %d rows but %d responses", name, n, len(y))
	}
	if n < 2 {
		return Regression{}, errTooFew(name, n, 2)
	}

	means := make([]float64, p)
	sds := make([]float64, p)
	z := mat.NewDense(n, p, nil)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, d.X)
		means[j], sds[j] = stat.MeanStdDev(col, nil)
		for i, v := range col {
			z.Set(i, j, (v-means[j])/sds[j])
		}
	}
	ybar := stat.Mean(y, nil)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - ybar
	}

	a := crossProduct(z, nil)
	for j := 0; j < p; j++ {
		a.SetSym(j, j, a.At(j, j)+lambda)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return Regression{}, fmt.Errorf("%s: %w", name, ErrSingular)
	}
	var zty mat.VecDense
	zty.MulVec(z.T(), mat.NewVecDense(n, yc))
	var b mat.VecDense
	if err := chol.SolveVecTo(&b, &zty); err != nil {
		return Regression{}, fmt.Errorf("%s: %w", name, err)
	}

	nan := math.NaN()
	intercept := ybar
	terms := make([]Term, 0, p+1)
	for j := 0; j < p; j++ {
		coef := b.AtVec(j) / sds[j]
		intercept -= coef * means[j]
		terms = append(terms, Term{Name: d.Names[j], Estimate: coef, StdErr: nan, Statistic: nan, P: nan})
	}
	terms = append([]Term{{Name: interceptTerm, Estimate: intercept, StdErr: nan, Statistic: nan, P: nan}}, terms...)

	var fitted mat.VecDense
	fitted.MulVec(z, &b)
	var rss, tss float64
	for i, v := range yc {
		r := v - fitted.AtVec(i)
		rss += r * r
		tss += v * v
	}
	reg := Regression{
		Name:     name,
		Response: response,
		N:        n,
		Terms:    terms,
		Lambda:   lambda,
		Sigma:    math.Sqrt(rss / float64(n)),
		AdjR2:    nan,
		Dropped:  d.Dropped,
	}
	if tss > 0 {
		reg.R2 = 1 - rss/tss
	}
	return reg, nil
}

// crossProduct returns X'WX, or X'X when w is nil.
func crossProduct(x *mat.Dense, w []float64) *mat.SymDense {
	n, p := x.Dims()
	out := mat.NewSymDense(p, nil)
	for j := 0; j < p; j++ {
		for k := j; k < p; k++ {
			var s float64
			for i := 0; i < n; i++ {
				v := x.At(i, j) * x.At(i, k)
				if w != nil {
					v *= w[i]
				}
				s += v
			}
			out.SetSym(j, k, s)
		}
	}
	return out
}

// standardize centres x and scales it to unit sample standard deviation.
// A constant x comes back as zeros.
func standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) < 2 {
		return out
	}
	mean, sd := stat.MeanStdDev(x, nil)
	if sd == 0 || math.IsNaN(sd) {
		return out
	}
	for i, v := range x {
		out[i] = (v - mean) / sd
	}
	return out
}

// logValues returns log(x), failing on non-positive values.
func logValues(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, v := range x {
		if v <= 0 {
			return nil, fmt.Errorf("log of non-positive value %v at row %d", v, i)
		}
		out[i] = math.Log(v)
	}
	return out, nil
}
