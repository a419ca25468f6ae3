package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchgate",
		Short: "Benchgate - partition, collect and gate model-suite benchmark runs",
		Long: `Benchgate splits a model suite across parallel CI workers, collects the
per-model results they emit, and decides whether the run regressed.

Exit codes: 0 pass, 1 regression, 2 configuration or runtime error,
3 coverage below the required minimum.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newPartitionCommand())
	cmd.AddCommand(newPlanCommand())
	cmd.AddCommand(newCollectCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newLossCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newHistoryCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
