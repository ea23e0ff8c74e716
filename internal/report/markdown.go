// Package report turns a run and its battery into Markdown, and styles it
// for the terminal.
package report

import (
	"fmt"
	"math"
	"strings"

	"censuswage/internal/analysis"
	"censuswage/internal/store"

	"github.com/dustin/go-humanize"
)

// DefaultAlpha is the significance level used to star p-values.
const DefaultAlpha = 0.05

// Markdown builds the report for a run. With a nil battery (a run read back
// from the store) the estimates are listed in their flat stored form.
func Markdown(run *store.Run, b *analysis.Battery, alpha float64) string {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	w := &writer{alpha: alpha}

	w.line("# censuswage run %s", run.ID)
	w.line("")
	w.line("- input: `%s`", run.Input)
	w.line("- started: %s", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	w.line("- duration: %s", run.Duration)
	w.line("- status: %s", run.Status)
	if run.Error != "" {
		w.line("- error: %s", run.Error)
	}
	w.line("")

	w.stages(run)
	w.filter(run)

	if b == nil {
		w.estimates(run.Estimates)
		return w.String()
	}
	w.describe(b)
	w.ttests(b.TTests)
	w.correlations(b.Correlations)
	for _, r := range b.Regressions {
		w.regression(r)
	}
	for _, m := range b.Models {
		w.binary(m)
	}
	w.skipped(b.Skipped)
	return w.String()
}

type writer struct {
	strings.Builder
	alpha float64
}

func (w *writer) line(format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
	w.WriteByte('\n')
}

func (w *writer) table(header []string, rows [][]string) {
	w.line("| %s |", strings.Join(header, " | "))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	w.line("|%s|", strings.Join(sep, "|"))
	for _, r := range rows {
		w.line("| %s |", strings.Join(r, " | "))
	}
	w.line("")
}

func (w *writer) stages(run *store.Run) {
	if len(run.Stages) == 0 {
		return
	}
	w.line("## Row counts")
	w.line("")
	rows := make([][]string, 0, len(run.Stages))
	for _, st := range run.Stages {
		rows = append(rows, []string{st.Name, count(st.RowsIn), count(st.RowsOut), count(st.RowsIn - st.RowsOut)})
	}
	w.table([]string{"stage", "rows in", "rows out", "removed"}, rows)
}

func (w *writer) filter(run *store.Run) {
	f := run.Filter
	if f.RowsIn == 0 && f.RowsOut == 0 {
		return
	}
	w.line("## Outlier filter")
	w.line("")
	w.table([]string{"step", "rows removed"}, [][]string{
		{"sentinel wage", count(f.SentinelRemoved)},
		{"non-positive wage", count(f.NonPositiveRemoved)},
		{"missing values", count(f.MissingRemoved)},
		{"IQR bounds", count(f.IQRRemoved)},
	})
	method := string(run.QuantileMethod)
	if method == "" {
		method = "linear"
	}
	w.line("Quartiles (%s): Q1 = %s, Q3 = %s, IQR = %s. Kept wages in [%s, %s].",
		method, num(f.Q1), num(f.Q3), num(f.IQR), num(f.Lower), num(f.Upper))
	w.line("")
}

func (w *writer) describe(b *analysis.Battery) {
	if b.Overall.N == 0 {
		return
	}
	w.line("## Wage distribution")
	w.line("")
	var rows [][]string
	add := func(dim string, s analysis.Summary) {
		rows = append(rows, []string{dim, s.Group, count(s.N), num(s.Mean), num(s.SD),
			num(s.Min), num(s.Q1), num(s.Median), num(s.Q3), num(s.Max)})
	}
	add("all", b.Overall)
	for _, s := range b.ByBand {
		add("education", s)
	}
	for _, s := range b.ByCollege {
		add("college", s)
	}
	for _, s := range b.ByGender {
		add("gender", s)
	}
	w.table([]string{"by", "group", "n", "mean", "sd", "min", "q1", "median", "q3", "max"}, rows)
}

func (w *writer) ttests(tests []analysis.TTest) {
	if len(tests) == 0 {
		return
	}
	w.line("## Welch t-tests")
	w.line("")
	rows := make([][]string, 0, len(tests))
	for _, t := range tests {
		rows = append(rows, []string{t.Name, t.GroupA + " vs " + t.GroupB,
			num(t.MeanA), num(t.MeanB), num(t.Diff), num(t.T), num(t.DF), w.p(t.P)})
	}
	w.table([]string{"test", "groups", "mean a", "mean b", "diff", "t", "df", "p"}, rows)
}

func (w *writer) correlations(cs []analysis.CorrelationTest) {
	if len(cs) == 0 {
		return
	}
	w.line("## Correlations")
	w.line("")
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{c.Name, c.Method, count(c.N), num(c.R), num(c.T), w.p(c.P)})
	}
	w.table([]string{"test", "method", "n", "r", "t", "p"}, rows)
}

func (w *writer) regression(r analysis.Regression) {
	w.line("## %s", r.Name)
	w.line("")
	if r.Lambda > 0 {
		w.line("Response `%s`, n = %s, lambda = %s.", r.Response, count(r.N), num(r.Lambda))
	} else {
		w.line("Response `%s`, n = %s, R² = %s, adjusted R² = %s, sigma = %s.",
			r.Response, count(r.N), num(r.R2), num(r.AdjR2), num(r.Sigma))
	}
	w.line("")
	w.terms(r.Terms, "t")
	w.dropped(r.Dropped)
}

func (w *writer) binary(m analysis.BinaryModel) {
	w.line("## %s", m.Name)
	w.line("")
	conv := "converged"
	if !m.Converged {
		conv = "did not converge"
	}
	w.line("%s link on `%s`, n = %s, log-likelihood = %s, AIC = %s, %d iterations (%s).",
		m.Link, m.Response, count(m.N), num(m.LogLik), num(m.AIC), m.Iterations, conv)
	w.line("")
	w.terms(m.Terms, "z")
	w.dropped(m.Dropped)
}

func (w *writer) terms(terms []analysis.Term, stat string) {
	rows := make([][]string, 0, len(terms))
	for _, t := range terms {
		rows = append(rows, []string{t.Name, num(t.Estimate), num(t.StdErr), num(t.Statistic), w.p(t.P)})
	}
	w.table([]string{"term", "estimate", "std. error", stat, "p"}, rows)
}

func (w *writer) dropped(names []string) {
	if len(names) > 0 {
		w.line("Constant columns dropped: %s.", strings.Join(names, ", "))
		w.line("")
	}
}

func (w *writer) skipped(skipped []analysis.Skipped) {
	if len(skipped) == 0 {
		return
	}
	w.line("## Skipped")
	w.line("")
	for _, s := range skipped {
		w.line("- %s: %s", s.Procedure, s.Reason)
	}
	w.line("")
}

func (w *writer) estimates(es []analysis.Estimate) {
	if len(es) == 0 {
		return
	}
	w.line("## Estimates")
	w.line("")
	rows := make([][]string, 0, len(es))
	for _, e := range es {
		rows = append(rows, []string{e.Procedure, e.Term, num(e.Estimate), num(e.StdErr), num(e.Statistic), w.p(e.P)})
	}
	w.table([]string{"procedure", "term", "estimate", "std. error", "statistic", "p"}, rows)
}

// p formats a p-value, starred below alpha.
func (w *writer) p(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	s := fmt.Sprintf("%.4f", v)
	if v < 1e-4 {
		s = "<0.0001"
	}
	if v < w.alpha {
		s += " *"
	}
	return s
}

func num(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NA"
	case math.IsInf(v, 0):
		return fmt.Sprint(v)
	case v != 0 && math.Abs(v) < 1e-3:
		return fmt.Sprintf("%.3e", v)
	case math.Abs(v) >= 1000:
		return humanize.CommafWithDigits(v, 2)
	}
	return fmt.Sprintf("%.4g", v)
}

func count(n int) string { return humanize.Comma(int64(n)) }
