package analysis

import "math"

// Estimate is one reported number in flat form, as persisted by the run
// store.
type Estimate struct {
	Procedure string
	Term      string
	Estimate  float64
	StdErr    float64
	Statistic float64
	P         float64
}

// Estimates flattens the inferential results in procedure order.
func (b *Battery) Estimates() []Estimate {
	nan := math.NaN()
	var out []Estimate
	for _, t := range b.TTests {
		out = append(out, Estimate{Procedure: t.Name, Term: t.GroupA + "-" + t.GroupB, Estimate: t.Diff,
			StdErr: t.Diff / t.T, Statistic: t.T, P: t.P})
	}
	for _, c := range b.Correlations {
		out = append(out, Estimate{Procedure: c.Name, Term: c.Method, Estimate: c.R, StdErr: nan, Statistic: c.T, P: c.P})
	}
	for _, r := range b.Regressions {
		for _, t := range r.Terms {
			out = append(out, Estimate{Procedure: r.Name, Term: t.Name, Estimate: t.Estimate, StdErr: t.StdErr, Statistic: t.Statistic, P: t.P})
		}
	}
	for _, m := range b.Models {
		for _, t := range m.Terms {
			out = append(out, Estimate{Procedure: m.Name, Term: t.Name, Estimate: t.Estimate, StdErr: t.StdErr, Statistic: t.Statistic, P: t.P})
		}
	}
	return out
}
