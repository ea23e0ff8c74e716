package dataset

import (
	"context"
	"fmt"
	"time"

	"censuswage/internal/logging"

	"github.com/go-gota/gota/dataframe"
)

// Step is one table transformation in a Pipeline.
type Step interface {
	Name() string
	Apply(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error)
}

// StageResult records the row counts around one step.
type StageResult struct {
	Name     string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
}

// Pipeline runs its steps in order, each consuming the previous output.
type Pipeline struct {
	steps []Step
	audit *logging.AuditLogger
}

func NewPipeline() *Pipeline { return &Pipeline{} }

// Add appends a step.
func (p *Pipeline) Add(s Step) *Pipeline {
	p.steps = append(p.steps, s)
	return p
}

// WithAudit sends a stage event per step to a.
func (p *Pipeline) WithAudit(a *logging.AuditLogger) *Pipeline {
	p.audit = a
	return p
}

// Run applies every step, stopping at the first error or when ctx is done.
func (p *Pipeline) Run(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, []StageResult, error) {
	results := make([]StageResult, 0, len(p.steps))
	cur := df
	for _, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return dataframe.DataFrame{}, results, err
		}
		start := time.Now()
		rowsIn := cur.Nrow()
		next, err := s.Apply(ctx, cur)
		if err != nil {
			logging.Get(logging.CategoryPipeline).Error("Step %s failed: %v", s.Name(), err)
			return dataframe.DataFrame{}, results, fmt.Errorf("%s: %w", s.Name(), err)
		}
		res := StageResult{Name: s.Name(), RowsIn: rowsIn, RowsOut: next.Nrow(), Duration: time.Since(start)}
		results = append(results, res)
		logging.Pipeline("%s: %d -> %d rows (%v)", res.Name, res.RowsIn, res.RowsOut, res.Duration)
		if p.audit != nil {
			p.audit.Stage(res.Name, res.RowsIn, res.RowsOut, res.Duration)
		}
		cur = next
	}
	return cur, results, nil
}

// ProjectStep keeps the listed columns.
type ProjectStep struct{ Columns []string }

func (s ProjectStep) Name() string { return "project" }

func (s ProjectStep) Apply(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return Project(df, s.Columns...)
}

// RecodeStep appends the derived education and gender columns.
type RecodeStep struct{ Columns Columns }

func (s RecodeStep) Name() string { return "recode" }

func (s RecodeStep) Apply(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	return Recode(df, s.Columns)
}

// FilterStep removes invalid and extreme wages and keeps the last report.
type FilterStep struct {
	Config FilterConfig
	Report FilterReport
}

func (s *FilterStep) Name() string { return "filter" }

func (s *FilterStep) Apply(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, error) {
	out, report, err := FilterOutliers(df, s.Config)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	s.Report = report
	logging.PipelineDebug("filter stages: sentinel=%d nonpositive=%d missing=%d iqr=%d (q1=%v q3=%v upper=%v lower=%v)",
		report.SentinelRemoved, report.NonPositiveRemoved, report.MissingRemoved, report.IQRRemoved,
		report.Q1, report.Q3, report.Upper, report.Lower)
	return out, nil
}

// Cleaned is the output of Clean.
type Cleaned struct {
	Table  dataframe.DataFrame
	Filter FilterReport
	Stages []StageResult
}

// NewCleaningPipeline wires projection, recoding and outlier filtering. The
// returned FilterStep holds the filter report once the pipeline has run.
func NewCleaningPipeline(cols Columns, filter FilterConfig) (*Pipeline, *FilterStep) {
	filter.Wage = cols.Wage
	fs := &FilterStep{Config: filter}
	p := NewPipeline().
		Add(ProjectStep{Columns: cols.Source()}).
		Add(RecodeStep{Columns: cols}).
		Add(fs)
	return p, fs
}

// Clean projects, recodes and filters df.
func Clean(ctx context.Context, df dataframe.DataFrame, cols Columns, filter FilterConfig, audit *logging.AuditLogger) (Cleaned, error) {
	p, fs := NewCleaningPipeline(cols, filter)
	if audit != nil {
		p.WithAudit(audit)
	}

	out, stages, err := p.Run(ctx, df)
	if err != nil {
		return Cleaned{Stages: stages}, err
	}
	return Cleaned{Table: out, Filter: fs.Report, Stages: stages}, nil
}
