package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"censuswage/internal/dataset"
	"censuswage/internal/logging"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/sync/errgroup"
)

// Procedure names, in the order results are reported.
const (
	ProcDescribe      = "describe"
	ProcTTestCollege  = "ttest_college"
	ProcTTestGender   = "ttest_gender"
	ProcPearson       = "pearson_education_wage"
	ProcSpearman      = "spearman_band_wage"
	ProcOLSWage       = "ols_wage"
	ProcOLSLogWage    = "ols_log_wage"
	ProcRidgeWage     = "ridge_wage"
	ProcLogitCollege  = "logit_college"
	ProcProbitCollege = "probit_college"
)

// Input is the cleaned table and the two subsamples the models are fitted on.
type Input struct {
	Table   dataframe.DataFrame
	Ridge   dataframe.DataFrame
	Model   dataframe.DataFrame
	Columns dataset.Columns
}

// Options configures Run.
type Options struct {
	Parallelism   int
	RidgeLambda   float64
	MaxIterations int
	Tolerance     float64
	Method        dataset.QuantileMethod
	Audit         *logging.AuditLogger
}

// Skipped records a procedure that could not be computed on this data.
type Skipped struct {
	Procedure string
	Reason    string
}

// Battery holds every result. Slices are in procedure order regardless of
// which procedure finished first.
type Battery struct {
	Overall      Summary
	ByBand       []Summary
	ByCollege    []Summary
	ByGender     []Summary
	TTests       []TTest
	Correlations []CorrelationTest
	Regressions  []Regression
	Models       []BinaryModel
	Skipped      []Skipped
}

type procedure struct {
	name string
	run  func() error
}

// Run computes the battery. Procedures only read their inputs, so they run
// concurrently up to opts.Parallelism. A procedure that fails on the data is
// listed in Skipped; only cancellation fails the whole run.
func Run(ctx context.Context, in Input, opts Options) (*Battery, error) {
	timer := logging.StartTimer(logging.CategoryAnalysis, "Battery")
	defer timer.Stop()

	full, err := NewSample(in.Table, in.Columns)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	ridge, err := NewSample(in.Ridge, in.Columns)
	if err != nil {
		return nil, fmt.Errorf("analysis: ridge subsample: %w", err)
	}
	model, err := NewSample(in.Model, in.Columns)
	if err != nil {
		return nil, fmt.Errorf("analysis: model subsample: %w", err)
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}

	var (
		ttests  = make([]*TTest, 2)
		corrs   = make([]*CorrelationTest, 2)
		regs    = make([]*Regression, 3)
		models  = make([]*BinaryModel, 2)
		battery = &Battery{}
	)
	irls := IRLSOptions{MaxIterations: opts.MaxIterations, Tolerance: opts.Tolerance}
	college := indicator(model.College, dataset.CollegeOrMore.String())

	procs := []procedure{
		{ProcDescribe, func() error {
			battery.Overall = Describe("All", full.Wage, opts.Method)
			battery.ByBand = DescribeBy(full.Wage, full.Band, bandOrder(), opts.Method)
			battery.ByCollege = DescribeBy(full.Wage, full.College,
				[]string{dataset.NotCollege.String(), dataset.CollegeOrMore.String()}, opts.Method)
			battery.ByGender = DescribeBy(full.Wage, full.Gender,
				[]string{dataset.Male.String(), dataset.Female.String()}, opts.Method)
			return nil
		}},
		{ProcTTestCollege, func() error {
			a, b := split(full.Wage, full.College, dataset.CollegeOrMore.String(), dataset.NotCollege.String())
			t, err := WelchTTest(ProcTTestCollege, dataset.CollegeOrMore.String(), dataset.NotCollege.String(), a, b)
			if err != nil {
				return err
			}
			ttests[0] = &t
			return nil
		}},
		{ProcTTestGender, func() error {
			a, b := split(full.Wage, full.Gender, dataset.Male.String(), dataset.Female.String())
			t, err := WelchTTest(ProcTTestGender, dataset.Male.String(), dataset.Female.String(), a, b)
			if err != nil {
				return err
			}
			ttests[1] = &t
			return nil
		}},
		{ProcPearson, func() error {
			c, err := Pearson(ProcPearson, full.Education, full.Wage)
			if err != nil {
				return err
			}
			corrs[0] = &c
			return nil
		}},
		{ProcSpearman, func() error {
			c, err := Spearman(ProcSpearman, full.BandRank, full.Wage)
			if err != nil {
				return err
			}
			corrs[1] = &c
			return nil
		}},
		{ProcOLSWage, func() error {
			r, err := OLS(ProcOLSWage, "wage", wageDesign(full, true), full.Wage)
			if err != nil {
				return err
			}
			regs[0] = &r
			return nil
		}},
		{ProcOLSLogWage, func() error {
			y, err := logValues(full.Wage)
			if err != nil {
				return err
			}
			r, err := OLS(ProcOLSLogWage, "log(wage)", wageDesign(full, true), y)
			if err != nil {
				return err
			}
			regs[1] = &r
			return nil
		}},
		{ProcRidgeWage, func() error {
			r, err := Ridge(ProcRidgeWage, "wage", wageDesign(ridge, false), ridge.Wage, opts.RidgeLambda)
			if err != nil {
				return err
			}
			regs[2] = &r
			return nil
		}},
		{ProcLogitCollege, func() error {
			m, err := FitBinary(ProcLogitCollege, "college", Logit{}, collegeDesign(model), college, irls)
			if err != nil {
				return err
			}
			models[0] = &m
			return nil
		}},
		{ProcProbitCollege, func() error {
			m, err := FitBinary(ProcProbitCollege, "college", Probit{}, collegeDesign(model), college, irls)
			if err != nil {
				return err
			}
			models[1] = &m
			return nil
		}},
	}

	var mu sync.Mutex
	skipped := make(map[string]string)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Parallelism)
	for _, p := range procs {
		p := p
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			err := p.run()
			n := full.Len()
			switch p.name {
			case ProcRidgeWage:
				n = ridge.Len()
			case ProcLogitCollege, ProcProbitCollege:
				n = model.Len()
			}
			if opts.Audit != nil {
				opts.Audit.Procedure(p.name, n, time.Since(start), err)
			}
			if err != nil {
				logging.Get(logging.CategoryAnalysis).Warn("Skipping %s: %v", p.name, err)
				mu.Lock()
				skipped[p.name] = skipReason(p.name, err)
				mu.Unlock()
				return nil
			}
			logging.AnalysisDebug("%s done on %d rows in %v", p.name, n, time.Since(start))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, p := range procs {
		if reason, ok := skipped[p.name]; ok {
			battery.Skipped = append(battery.Skipped, Skipped{Procedure: p.name, Reason: reason})
		}
	}
	for _, t := range ttests {
		if t != nil {
			battery.TTests = append(battery.TTests, *t)
		}
	}
	for _, c := range corrs {
		if c != nil {
			battery.Correlations = append(battery.Correlations, *c)
		}
	}
	for _, r := range regs {
		if r != nil {
			battery.Regressions = append(battery.Regressions, *r)
		}
	}
	for _, m := range models {
		if m != nil {
			battery.Models = append(battery.Models, *m)
		}
	}

	logging.Analysis("Battery finished: %d procedures, %d skipped", len(procs), len(battery.Skipped))
	return battery, nil
}

func bandOrder() []string {
	out := make([]string, len(dataset.Bands))
	for i, b := range dataset.Bands {
		out[i] = b.String()
	}
	return out
}

// skipReason drops the procedure name the procedures put in front of their
// errors; the report prints it next to the reason already.
func skipReason(name string, err error) string {
	return strings.TrimPrefix(err.Error(), name+": ")
}
