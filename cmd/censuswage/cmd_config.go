package main

import (
	"fmt"
	"os"

	"censuswage/internal/config"

	"github.com/spf13/cobra"
)

var force bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the censuswage configuration file",
}

// configInitCmd writes the default configuration
var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration (default: the --config path)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
