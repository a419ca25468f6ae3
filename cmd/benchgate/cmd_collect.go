package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/benchgate/benchgate/internal/collect"
	"github.com/benchgate/benchgate/internal/dataset"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/spf13/cobra"
)

var (
	collectMode        string
	collectSuite       string
	collectModelsFile  string
	collectExclude     []string
	collectTotal       int
	collectPartitionID int
	collectOutput      string
	collectDiagnostics string
)

func newCollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect <artifact.csv> [artifact.csv ...]",
		Short: "Merge worker artifacts into one suite-ordered result table",
		Long: `Read result artifacts emitted by workers and build a single result table.

Duplicate records keep the last one read. With --suite or --models-file,
rows follow suite order and every model the partition owns but that emitted
no record becomes a fail_to_run row with diagnostic "no result emitted".
Without a suite, rows keep arrival order and missing models cannot be
detected.

Artifacts ending in .gz or .zst are decompressed transparently; --output is
compressed the same way.`,
		Args: cobra.MinimumNArgs(1),
		RunE: collectCommandE,
	}

	cmd.Flags().StringVar(&collectMode, "mode", string(models.ModeAccuracy), "Run mode of the artifacts")
	cmd.Flags().StringVar(&collectSuite, "suite", "", "Suite name from .benchgate.yaml")
	cmd.Flags().StringVar(&collectModelsFile, "models-file", "", "Model list file instead of a configured suite")
	cmd.Flags().StringSliceVar(&collectExclude, "exclude", nil, "Model to exclude (can be repeated or comma separated)")
	cmd.Flags().IntVar(&collectTotal, "total-partitions", 1, "Number of partitions")
	cmd.Flags().IntVar(&collectPartitionID, "partition-id", 0, "Partition the artifacts belong to (default: whole suite)")
	cmd.Flags().StringVarP(&collectOutput, "output", "o", "", "Write the table to this file instead of stdout")
	cmd.Flags().StringVar(&collectDiagnostics, "diagnostics", "", "Write collector diagnostics as JSON to this file")

	return cmd
}

func collectCommandE(cmd *cobra.Command, args []string) error {
	mode, err := models.ParseRunMode(collectMode)
	if err != nil {
		return err
	}

	assigned, err := collectAssignment(cmd)
	if err != nil {
		return err
	}

	records, err := readArtifacts(cmd.Context(), args, mode)
	if err != nil {
		return err
	}

	table, diags := collect.Collect(mode, assigned, records)
	reportDiagnostics(cmd, diags)

	if collectDiagnostics != "" {
		if err := writeDiagnostics(collectDiagnostics, diags); err != nil {
			return err
		}
	}

	if collectOutput != "" {
		if err := dataset.WriteArtifact(collectOutput, table); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", table.Len(), collectOutput) //nolint:errcheck
		return nil
	}
	return dataset.EncodeArtifact(cmd.OutOrStdout(), table)
}

// collectAssignment returns the partition's model list, or nil when no suite
// was given.
func collectAssignment(cmd *cobra.Command) ([]string, error) {
	if collectSuite == "" && collectModelsFile == "" {
		slog.Warn("No suite given; rows keep arrival order and missing models cannot be detected")
		return nil, nil
	}
	cfg, err := loadProject()
	if err != nil {
		return nil, err
	}
	env, err := loadEnv()
	if err != nil {
		return nil, err
	}
	sel, err := selectSuite(cmd, cfg, env, collectSuite, collectModelsFile, collectExclude, collectTotal)
	if err != nil {
		return nil, err
	}
	return sel.assigned(partitionID(cmd, collectPartitionID, env.PartitionID))
}

func reportDiagnostics(cmd *cobra.Command, diags []collect.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	counts := collect.CountByKind(diags)
	fmt.Fprintf(cmd.ErrOrStderr(), "Collector diagnostics: %d duplicate, %d missing, %d unassigned, %d mode mismatch\n", //nolint:errcheck
		counts[collect.DiagnosticDuplicate], counts[collect.DiagnosticMissing],
		counts[collect.DiagnosticUnassigned], counts[collect.DiagnosticModeMismatch])
	for _, d := range diags {
		slog.Debug("Collector diagnostic", "kind", d.Kind, "model", d.Model, "message", d.Message)
	}
}

func writeDiagnostics(path string, diags []collect.Diagnostic) error {
	if diags == nil {
		diags = []collect.Diagnostic{}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating diagnostics file: %w", err)
	}
	defer f.Close() //nolint:errcheck
	if err := writeJSON(f, diags); err != nil {
		return fmt.Errorf("writing diagnostics: %w", err)
	}
	return nil
}
