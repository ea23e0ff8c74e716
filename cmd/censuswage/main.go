package main

import (
	"fmt"
	"os"
	"time"

	"censuswage/internal/config"
	"censuswage/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "censuswage",
	Short: "censuswage - census microdata cleaning and wage analysis",
	Long: `censuswage loads a census microdata extract, cleans it and runs a
battery of wage statistics over the result.

The cleaning pipeline projects the education, wage and sex columns, recodes
them into education bands, a college flag and gender labels, drops sentinel,
non-positive and outlying wages, and draws positional subsamples for
plotting and model fitting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if err := logging.Initialize(loaded.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		cfg = loaded

		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Boot("Loaded config from %s", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "censuswage.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Operation timeout (default: analysis.timeout from config)")

	runCmd.Flags().StringVarP(&reportPath, "output", "o", "", "Write the Markdown report to this file")
	runCmd.Flags().BoolVar(&plain, "plain", false, "Print raw Markdown instead of styled output")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the run in the history database")

	cleanCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output file (.csv or .parquet)")
	_ = cleanCmd.MarkFlagRequired("output")

	sampleCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output file (.csv or .parquet)")
	sampleCmd.Flags().StringVar(&purpose, "purpose", config.PurposePlot, "Subsample purpose: plot, ridge or model")
	_ = sampleCmd.MarkFlagRequired("output")
	_ = sampleCmd.RegisterFlagCompletionFunc("purpose", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return config.Purposes(), cobra.ShellCompDirectiveNoFileComp
	})

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
	showCmd.Flags().BoolVar(&plain, "plain", false, "Print raw Markdown instead of styled output")

	configInitCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, cleanCmd, sampleCmd, historyCmd, showCmd, configCmd)
}

func main() {
	err := rootCmd.Execute()
	syncLoggers()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", explain(err))
		os.Exit(1)
	}
}

// syncLoggers flushes both loggers. It runs after Execute returns because
// cobra skips PersistentPostRun when a command fails.
func syncLoggers() {
	if logger != nil {
		_ = logger.Sync()
	}
	logging.Sync()
}
