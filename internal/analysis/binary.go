package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Link maps the linear predictor onto a probability.
type Link interface {
	Name() string
	Mean(eta float64) float64
	Derivative(eta float64) float64
}

// Logit is the canonical binomial link.
type Logit struct{}

func (Logit) Name() string { return "logit" }

func (Logit) Mean(eta float64) float64 { return 1 / (1 + math.Exp(-eta)) }

func (l Logit) Derivative(eta float64) float64 {
	mu := l.Mean(eta)
	return mu * (1 - mu)
}

// Probit uses the standard normal CDF.
type Probit struct{}

func (Probit) Name() string { return "probit" }

func (Probit) Mean(eta float64) float64 { return distuv.UnitNormal.CDF(eta) }

func (Probit) Derivative(eta float64) float64 { return distuv.UnitNormal.Prob(eta) }

// BinaryModel is a fitted binomial GLM.
type BinaryModel struct {
	Name       string
	Link       string
	Response   string
	N          int
	Terms      []Term
	LogLik     float64
	AIC        float64
	Iterations int
	Converged  bool
	Dropped    []string
}

// IRLSOptions bounds the fitting loop.
type IRLSOptions struct {
	MaxIterations int
	Tolerance     float64
}

const probFloor = 1e-10

// FitBinary fits y (0/1) on the design by iteratively reweighted least
// squares. Convergence is declared when no coefficient moves by more than
// the tolerance. A model that hits the iteration cap is still returned,
// with Converged false.
func FitBinary(name, response string, link Link, d Design, y []float64, opts IRLSOptions) (BinaryModel, error) {
	if d.X == nil {
		return BinaryModel{}, fmt.Errorf("%s: empty design", name)
	}
	n, p := d.X.Dims()
	if n != len(y) {
		return BinaryModel{}, fmt.Errorf("%s: %d rows but %d responses", name, n, len(y))
	}
	if n <= p {
		return BinaryModel{}, errTooFew(name, n, p+1)
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 25
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-8
	}

	beta := mat.NewVecDense(p, nil)
	w := make([]float64, n)
	zw := make([]float64, n)
	var chol mat.Cholesky
	model := BinaryModel{Name: name, Link: link.Name(), Response: response, N: n, Dropped: d.Dropped}

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		var eta mat.VecDense
		eta.MulVec(d.X, beta)
		for i := 0; i < n; i++ {
			e := eta.AtVec(i)
			mu := clampProb(link.Mean(e))
			g := math.Max(link.Derivative(e), probFloor)
			w[i] = g * g / (mu * (1 - mu))
			zw[i] = w[i] * (e + (y[i]-mu)/g)
		}
		if ok := chol.Factorize(crossProduct(d.X, w)); !ok {
			return BinaryModel{}, fmt.Errorf("%s: %w at iteration %d", name, ErrSingular, iter)
		}
		var rhs, next mat.VecDense
		rhs.MulVec(d.X.T(), mat.NewVecDense(n, zw))
		if err := chol.SolveVecTo(&next, &rhs); err != nil {
			return BinaryModel{}, fmt.Errorf("%s: %w", name, err)
		}

		var delta float64
		for j := 0; j < p; j++ {
			delta = math.Max(delta, math.Abs(next.AtVec(j)-beta.AtVec(j)))
		}
		beta.CopyVec(&next)
		model.Iterations = iter
		if delta < opts.Tolerance {
			model.Converged = true
			break
		}
	}

	// information matrix at the final estimate
	var eta mat.VecDense
	eta.MulVec(d.X, beta)
	var ll float64
	for i := 0; i < n; i++ {
		e := eta.AtVec(i)
		mu := clampProb(link.Mean(e))
		g := math.Max(link.Derivative(e), probFloor)
		w[i] = g * g / (mu * (1 - mu))
		ll += y[i]*math.Log(mu) + (1-y[i])*math.Log(1-mu)
	}
	if ok := chol.Factorize(crossProduct(d.X, w)); !ok {
		return BinaryModel{}, fmt.Errorf("%s: %w", name, ErrSingular)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return BinaryModel{}, fmt.Errorf("%s: %w", name, err)
	}

	for j, term := range d.Names {
		b := beta.AtVec(j)
		se := math.Sqrt(inv.At(j, j))
		z := b / se
		model.Terms = append(model.Terms, Term{Name: term, Estimate: b, StdErr: se, Statistic: z, P: twoSidedZ(z)})
	}
	model.LogLik = ll
	model.AIC = 2*float64(p) - 2*ll
	return model, nil
}

func clampProb(mu float64) float64 {
	return math.Min(math.Max(mu, probFloor), 1-probFloor)
}
