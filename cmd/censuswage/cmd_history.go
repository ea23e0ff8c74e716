package main

import (
	"context"
	"fmt"
	"strings"

	"censuswage/internal/report"
	"censuswage/internal/store"

	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd lists recorded runs
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

// showCmd prints the report of a recorded run
var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the stored report of a run",
	Long: `Prints the stored row counts, filter report and estimates of a run.
A unique prefix of the run id is enough.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-20s  %-6s  %10s  %10s  %s\n", "ID", "STARTED", "STATUS", "LOADED", "CLEAN", "INPUT")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-20s  %-6s  %10d  %10d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.RowsLoaded, r.RowsClean, r.Input)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := resolveRunID(ctx, s, args[0])
	if err != nil {
		return err
	}
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	md := report.Markdown(run, nil, cfg.Analysis.Alpha)
	fmt.Fprintln(out, report.Banner(run))
	if plain || !cfg.Report.Render {
		_, err = fmt.Fprint(out, md)
		return err
	}
	rendered, err := report.Render(md, cfg.Report.WordWrap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

// resolveRunID expands a unique id prefix.
func resolveRunID(ctx context.Context, s *store.Store, prefix string) (string, error) {
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range runs {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", store.ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("ambiguous run id %s: matches %s", prefix, strings.Join(matches, ", "))
}
