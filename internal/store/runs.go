package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"censuswage/internal/analysis"
	"censuswage/internal/dataset"
	"censuswage/internal/logging"

	"github.com/google/uuid"
)

// timeLayout is a fixed-width RFC 3339 layout, so started_at sorts as text.
// time.RFC3339Nano trims trailing zeros and would put 14.12Z after 14.123Z.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by GetRun for an unknown id.
var ErrNotFound = errors.New("run not found")

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Stage is one row count checkpoint of a run: a cleaning step or a
// subsample.
type Stage struct {
	Name     string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
}

// Run is one execution of the pipeline.
type Run struct {
	ID             string
	StartedAt      time.Time
	Duration       time.Duration
	Input          string
	Status         string
	Error          string
	RowsLoaded     int
	RowsClean      int
	Filter         dataset.FilterReport
	QuantileMethod dataset.QuantileMethod
	Skipped        int
	Stages         []Stage
	Estimates      []analysis.Estimate
}

// NewRun starts a run record with a fresh id.
func NewRun(input string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Input:     input,
		Status:    StatusOK,
	}
}

// Fail marks the run as failed with err.
func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	r.Error = err.Error()
}

// SaveRun writes the run and its stages and estimates in one transaction.
// Saving an existing id replaces it.
func (s *Store) SaveRun(ctx context.Context, r *Run) error {
	timer := logging.StartTimer(logging.CategoryStore, "SaveRun")
	defer timer.Stop()

	if r.ID == "" {
		return fmt.Errorf("save run: missing id")
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("save run: invalid id %q: %w", r.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("save run: store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"estimates", "stage_counts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", r.ID); err != nil {
			return fmt.Errorf("failed to replace run: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", r.ID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	f := r.Filter
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, input, status, error,
			rows_loaded, rows_clean, sentinel_removed, nonpositive_removed,
			missing_removed, iqr_removed, q1, q3, upper_bound, lower_bound,
			quantile_method, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(timeLayout), r.Duration.Milliseconds(), r.Input, r.Status, r.Error,
		r.RowsLoaded, r.RowsClean, f.SentinelRemoved, f.NonPositiveRemoved,
		f.MissingRemoved, f.IQRRemoved, nullable(f.Q1), nullable(f.Q3), nullable(f.Upper), nullable(f.Lower),
		string(r.QuantileMethod), r.Skipped,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, st := range r.Stages {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO stage_counts (run_id, seq, name, rows_in, rows_out, duration_ms) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, i, st.Name, st.RowsIn, st.RowsOut, st.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to insert stage %s: %w", st.Name, err)
		}
	}

	for i, e := range r.Estimates {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO estimates (run_id, seq, procedure, term, estimate, std_err, statistic, p_value) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			r.ID, i, e.Procedure, e.Term, nullable(e.Estimate), nullable(e.StdErr), nullable(e.Statistic), nullable(e.P))
		if err != nil {
			return fmt.Errorf("failed to insert estimate %s/%s: %w", e.Procedure, e.Term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	logging.Store("Saved run %s (%d stages, %d estimates)", r.ID, len(r.Stages), len(r.Estimates))
	return nil
}

const runColumns = `id, started_at, duration_ms, input, status, error,
	rows_loaded, rows_clean, sentinel_removed, nonpositive_removed,
	missing_removed, iqr_removed, q1, q3, upper_bound, lower_bound,
	quantile_method, skipped`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var (
		r          Run
		started    string
		durationMs int64
		q1, q3     sql.NullFloat64
		upper      sql.NullFloat64
		lower      sql.NullFloat64
		method     sql.NullString
		skipped    sql.NullInt64
	)
	err := sc.Scan(&r.ID, &started, &durationMs, &r.Input, &r.Status, &r.Error,
		&r.RowsLoaded, &r.RowsClean, &r.Filter.SentinelRemoved, &r.Filter.NonPositiveRemoved,
		&r.Filter.MissingRemoved, &r.Filter.IQRRemoved, &q1, &q3, &upper, &lower,
		&method, &skipped)
	if err != nil {
		return nil, err
	}
	if r.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("run %s: bad started_at %q: %w", r.ID, started, err)
	}
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.Filter.Q1 = orNaN(q1)
	r.Filter.Q3 = orNaN(q3)
	r.Filter.IQR = r.Filter.Q3 - r.Filter.Q1
	r.Filter.Upper = orNaN(upper)
	r.Filter.Lower = orNaN(lower)
	r.Filter.RowsIn = r.RowsLoaded
	r.Filter.RowsOut = r.RowsClean
	r.QuantileMethod = dataset.QuantileMethod(method.String)
	r.Skipped = int(skipped.Int64)
	return &r, nil
}

// GetRun loads a run with its stages and estimates.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("get run: store is closed")
	}

	r, err := scanRun(s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, rows_in, rows_out, duration_ms FROM stage_counts WHERE run_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}
	for rows.Next() {
		var st Stage
		var ms int64
		if err := rows.Scan(&st.Name, &st.RowsIn, &st.RowsOut, &ms); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		st.Duration = time.Duration(ms) * time.Millisecond
		r.Stages = append(r.Stages, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT procedure, term, estimate, std_err, statistic, p_value FROM estimates WHERE run_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load estimates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e analysis.Estimate
		var est, se, stat, p sql.NullFloat64
		if err := rows.Scan(&e.Procedure, &e.Term, &est, &se, &stat, &p); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		e.Estimate, e.StdErr, e.Statistic, e.P = orNaN(est), orNaN(se), orNaN(stat), orNaN(p)
		r.Estimates = append(r.Estimates, e)
	}
	return r, rows.Err()
}

// ListRuns returns the most recent runs first, without stages or
// estimates. A non-positive limit means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("list runs: store is closed")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// parseTime reads started_at, accepting rows written before timeLayout.
func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Parse(time.RFC3339Nano, v)
	}
	return t, nil
}

// nullable maps NaN and infinities to NULL.
func nullable(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
