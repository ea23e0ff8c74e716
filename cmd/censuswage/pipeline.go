package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"censuswage/internal/analysis"
	"censuswage/internal/config"
	"censuswage/internal/dataset"
	"censuswage/internal/logging"
	"censuswage/internal/store"

	"github.com/go-gota/gota/dataframe"
	"go.uber.org/zap"
)

// commandContext bounds a command by --timeout (or the configured analysis
// timeout) and cancels it on SIGINT/SIGTERM.
func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	d := timeout
	if d <= 0 {
		d = cfg.GetAnalysisTimeout()
	}
	ctx, cancel := context.WithTimeout(parent, d)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

// datasetPath picks the positional argument over data.path from config.
func datasetPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cfg.Data.Path != "" {
		return cfg.Data.Path, nil
	}
	return "", errors.New("no dataset given: pass a path or set data.path in the config")
}

func stagesOf(results []dataset.StageResult) []store.Stage {
	out := make([]store.Stage, len(results))
	for i, r := range results {
		out[i] = store.Stage{Name: r.Name, RowsIn: r.RowsIn, RowsOut: r.RowsOut, Duration: r.Duration}
	}
	return out
}

// loadAndClean loads path and runs the cleaning pipeline, recording counts
// on run.
func loadAndClean(ctx context.Context, path string, run *store.Run, audit *logging.AuditLogger) (dataset.Cleaned, error) {
	df, err := dataset.Load(ctx, path)
	if err != nil {
		return dataset.Cleaned{}, err
	}
	run.RowsLoaded = df.Nrow()
	logger.Debug("dataset loaded", zap.String("path", path), zap.Int("rows", df.Nrow()), zap.Int("columns", df.Ncol()))

	cleaned, err := dataset.Clean(ctx, df, cfg.Data.Columns, cfg.Filter, audit)
	if err != nil {
		return dataset.Cleaned{}, err
	}
	run.Stages = stagesOf(cleaned.Stages)
	run.Filter = cleaned.Filter
	run.QuantileMethod = cfg.Filter.Method
	run.RowsClean = cleaned.Table.Nrow()
	return cleaned, nil
}

// subsample draws the named subsample and records it as a stage.
func subsample(df dataframe.DataFrame, purpose string, run *store.Run, audit *logging.AuditLogger) (dataframe.DataFrame, error) {
	d, err := cfg.Divisor(purpose)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	start := time.Now()
	sub, err := dataset.Subsample(df, d)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s subsample: %w", purpose, err)
	}
	st := store.Stage{Name: "sample:" + purpose, RowsIn: df.Nrow(), RowsOut: sub.Nrow(), Duration: time.Since(start)}
	run.Stages = append(run.Stages, st)
	if audit != nil {
		audit.Stage(st.Name, st.RowsIn, st.RowsOut, st.Duration)
	}
	return sub, nil
}

// executeRun is the full pipeline: load, clean, subsample and analyse. The
// run record is filled in as far as the pipeline got; the returned error is
// also recorded on it.
func executeRun(ctx context.Context, path string, run *store.Run) (*analysis.Battery, error) {
	audit := logging.Audit(run.ID)
	audit.RunStart(path)
	start := time.Now()

	battery, err := func() (*analysis.Battery, error) {
		cleaned, err := loadAndClean(ctx, path, run, audit)
		if err != nil {
			return nil, err
		}
		ridge, err := subsample(cleaned.Table, config.PurposeRidge, run, audit)
		if err != nil {
			return nil, err
		}
		model, err := subsample(cleaned.Table, config.PurposeModel, run, audit)
		if err != nil {
			return nil, err
		}
		return analysis.Run(ctx, analysis.Input{
			Table:   cleaned.Table,
			Ridge:   ridge,
			Model:   model,
			Columns: cfg.Data.Columns,
		}, analysis.Options{
			Parallelism:   cfg.Analysis.Parallelism,
			RidgeLambda:   cfg.Analysis.RidgeLambda,
			MaxIterations: cfg.Analysis.MaxIterations,
			Tolerance:     cfg.Analysis.Tolerance,
			Method:        cfg.Filter.Method,
			Audit:         audit,
		})
	}()

	run.Duration = time.Since(start)
	audit.RunEnd(run.Duration, err)
	if err != nil {
		run.Fail(err)
		return nil, err
	}
	run.Estimates = battery.Estimates()
	run.Skipped = len(battery.Skipped)
	for _, s := range battery.Skipped {
		logger.Warn("procedure skipped", zap.String("procedure", s.Procedure), zap.String("reason", s.Reason))
	}
	return battery, nil
}

// saveRun records the run when the store is enabled. A store failure is
// logged and does not fail the command.
func saveRun(ctx context.Context, run *store.Run) {
	if !cfg.Store.Enabled {
		return
	}
	audit := logging.Audit(run.ID)
	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		audit.StoreWrite(cfg.Store.Path, err)
		logger.Warn("run not recorded", zap.String("db", cfg.Store.Path), zap.Error(err))
		return
	}
	defer s.Close()

	// a cancelled run is still recorded
	err = s.SaveRun(context.WithoutCancel(ctx), run)
	audit.StoreWrite(cfg.Store.Path, err)
	if err != nil {
		logger.Warn("run not recorded", zap.String("db", cfg.Store.Path), zap.Error(err))
	}
}

func openStore() (*store.Store, error) {
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no run history at %s", cfg.Store.Path)
		}
		return nil, err
	}
	return store.Open(cfg.Store.Path)
}
