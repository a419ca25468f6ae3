package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/benchgate/benchgate/internal/partition"
	"github.com/benchgate/benchgate/internal/projectconfig"
	"github.com/spf13/cobra"
)

var (
	planSuites  []string
	planModes   []string
	planTotal   int
	planCompact bool
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Emit the CI job matrix for configured suites",
		Long: `Expand configured suites into one job per (suite, run mode, partition id).

The output is a JSON object with an "include" list, ready to feed a GitHub
Actions strategy.matrix. Suites default to every suite in .benchgate.yaml.
When GITHUB_OUTPUT is set the compact matrix is also appended to it as
"matrix=...".`,
		Args: cobra.NoArgs,
		RunE: planCommandE,
	}

	cmd.Flags().StringSliceVar(&planSuites, "suite", nil, "Suite to include (can be repeated, default: all)")
	cmd.Flags().StringSliceVar(&planModes, "mode", nil, "Run mode override for every suite (can be repeated)")
	cmd.Flags().IntVar(&planTotal, "total-partitions", 0, "Partition count override for every suite")
	cmd.Flags().BoolVar(&planCompact, "compact", false, "Print the matrix on one line")

	return cmd
}

func planCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	env, err := loadEnv()
	if err != nil {
		return err
	}

	names := planSuites
	if len(names) == 0 {
		names = cfg.SuiteNames()
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no suites configured; add suites to %s or pass --suite", models.ErrInvalidInput, projectconfig.FileName)
	}

	var overrideModes []models.RunMode
	for _, m := range planModes {
		mode, err := models.ParseRunMode(m)
		if err != nil {
			return err
		}
		overrideModes = append(overrideModes, mode)
	}

	plans := make([]partition.SuitePlan, 0, len(names))
	for _, name := range names {
		sc, err := cfg.Suite(name)
		if err != nil {
			return err
		}
		modes := overrideModes
		if len(modes) == 0 {
			if modes, err = sc.RunModes(); err != nil {
				return fmt.Errorf("suite %s: %w", name, err)
			}
		}
		plans = append(plans, partition.SuitePlan{
			Name:            name,
			Modes:           modes,
			TotalPartitions: intFlag(cmd, "total-partitions", planTotal, env.TotalPartitions, cfg.TotalPartitions(sc)),
		})
	}

	matrix, err := partition.Plan(plans)
	if err != nil {
		return err
	}

	compact, err := json.Marshal(matrix)
	if err != nil {
		return fmt.Errorf("marshaling matrix: %w", err)
	}
	if out := os.Getenv("GITHUB_OUTPUT"); out != "" {
		if err := appendGitHubOutput(out, "matrix", string(compact)); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if planCompact {
		_, err = fmt.Fprintln(w, string(compact))
		return err
	}
	return writeJSON(w, matrix)
}

func appendGitHubOutput(path, key, value string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening GITHUB_OUTPUT: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
		return fmt.Errorf("writing GITHUB_OUTPUT: %w", err)
	}
	return nil
}
