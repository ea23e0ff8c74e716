package main

import (
	"fmt"
	"io"
	"os"

	"censuswage/internal/dataset"
	"censuswage/internal/logging"
	"censuswage/internal/report"
	"censuswage/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reportPath string
	plain      bool
	noStore    bool
	exportPath string
	purpose    string
)

// runCmd runs the whole pipeline and the analysis battery
var runCmd = &cobra.Command{
	Use:   "run [dataset]",
	Short: "Clean a dataset, run the analysis battery and print the report",
	Long: `Loads the dataset (.csv, .csv.gz, .parquet, .arrow), runs the cleaning
pipeline, draws the ridge and model subsamples and computes:
  - wage summaries overall and by education band, college flag and gender
  - Welch t-tests for college vs not and male vs female
  - Pearson and Spearman correlation tests
  - OLS on wage and log wage, ridge on the ridge subsample
  - logit and probit models of college status on the model subsample

The run is recorded in the history database unless --no-store is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipeline,
}

// cleanCmd exports the cleaned table
var cleanCmd = &cobra.Command{
	Use:   "clean [dataset]",
	Short: "Run the cleaning pipeline and export the cleaned table",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

// sampleCmd exports one positional subsample of the cleaned table
var sampleCmd = &cobra.Command{
	Use:   "sample [dataset]",
	Short: "Clean a dataset and export the subsample for one purpose",
	Long: `Draws the positional subsample configured for --purpose: with divisor d
the last N - round(N/d) rows of the cleaned table are kept.

Example:
  censuswage sample acs.parquet --purpose plot -o plot.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSample,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	path, err := datasetPath(args)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	run := store.NewRun(path)
	logger.Info("run started", zap.String("run", run.ID), zap.String("input", path))
	battery, runErr := executeRun(ctx, path, run)
	if !noStore {
		saveRun(ctx, run)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("run finished", zap.String("run", run.ID), zap.Duration("duration", run.Duration),
		zap.Int("rows_clean", run.RowsClean), zap.Int("skipped", run.Skipped))

	return writeReport(cmd.OutOrStdout(), run, report.Markdown(run, battery, cfg.Analysis.Alpha))
}

// writeReport sends the report to --output, report.output or the terminal.
func writeReport(out io.Writer, run *store.Run, md string) error {
	dest := reportPath
	if dest == "" {
		dest = cfg.Report.Output
	}
	if dest != "" {
		if err := os.WriteFile(dest, []byte(md), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logging.Report("Report written to %s", dest)
		fmt.Fprintln(out, report.Banner(run))
		fmt.Fprintf(out, "Report written to %s\n", dest)
		return nil
	}

	fmt.Fprintln(out, report.Banner(run))
	if plain || !cfg.Report.Render {
		_, err := io.WriteString(out, md)
		return err
	}
	rendered, err := report.Render(md, cfg.Report.WordWrap)
	if err != nil {
		logger.Warn("falling back to plain markdown", zap.Error(err))
		rendered = md
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func runClean(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	path, err := datasetPath(args)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	run := store.NewRun(path)
	audit := logging.Audit(run.ID)
	cleaned, err := loadAndClean(ctx, path, run, audit)
	if err != nil {
		return err
	}
	return export(cmd.OutOrStdout(), cleaned.Table.Nrow(), run, func() error {
		return dataset.Write(cleaned.Table, exportPath)
	})
}

func runSample(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Divisor(purpose); err != nil {
		return err
	}
	path, err := datasetPath(args)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	run := store.NewRun(path)
	audit := logging.Audit(run.ID)
	cleaned, err := loadAndClean(ctx, path, run, audit)
	if err != nil {
		return err
	}
	sub, err := subsample(cleaned.Table, purpose, run, audit)
	if err != nil {
		return err
	}
	return export(cmd.OutOrStdout(), sub.Nrow(), run, func() error {
		return dataset.Write(sub, exportPath)
	})
}

func export(out io.Writer, rows int, run *store.Run, write func() error) error {
	if err := write(); err != nil {
		return err
	}
	logging.Audit(run.ID).Export(exportPath, rows)
	for _, st := range run.Stages {
		fmt.Fprintf(out, "  %-14s %8d -> %8d\n", st.Name, st.RowsIn, st.RowsOut)
	}
	fmt.Fprintf(out, "Wrote %d rows to %s\n", rows, exportPath)
	return nil
}
