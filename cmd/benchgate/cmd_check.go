package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/benchgate/benchgate/internal/dataset"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/benchgate/benchgate/internal/projectconfig"
	"github.com/benchgate/benchgate/internal/validation"
	"github.com/spf13/cobra"
)

var checkFormat string

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [.benchgate.yaml]",
		Short: "Check a project config for mistakes",
		Long: `Check .benchgate.yaml against the config schema, then load every suite.

Performs the following checks:
  1. Schema - unknown keys, wrong types, out-of-range values
  2. Suites - model lists load and contain no duplicates
  3. Baselines - every configured baseline file loads and is non-empty

With no argument the nearest .benchgate.yaml at or above the working
directory is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: checkCommandE,
	}
	cmd.Flags().StringVar(&checkFormat, "format", "text", "Output format: text | json")
	return cmd
}

type checkReport struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Suites   []string `json:"suites,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func checkCommandE(cmd *cobra.Command, args []string) error {
	if checkFormat != "text" && checkFormat != "json" {
		return fmt.Errorf("%w: unsupported format %q: must be text or json", models.ErrInvalidInput, checkFormat)
	}

	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		if path, err = projectconfig.Find(wd); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no %s found at or above %s", projectconfig.FileName, wd)
			}
			return err
		}
	}

	report := checkReport{Path: path}
	problems, err := validation.ValidateConfigFile(path)
	if err != nil {
		return err
	}
	report.Problems = problems

	if len(problems) == 0 {
		report.Suites, report.Problems = checkSuites(path)
	}
	report.Valid = len(report.Problems) == 0

	w := cmd.OutOrStdout()
	if checkFormat == "json" {
		if err := writeJSON(w, report); err != nil {
			return err
		}
	} else {
		if report.Valid {
			fmt.Fprintf(w, "✅ %s is valid (%d suite(s))\n", path, len(report.Suites)) //nolint:errcheck
		} else {
			fmt.Fprintf(w, "❌ %s has %d problem(s):\n", path, len(report.Problems)) //nolint:errcheck
			for _, p := range report.Problems {
				fmt.Fprintf(w, "  - %s\n", p) //nolint:errcheck
			}
		}
	}

	if !report.Valid {
		return fmt.Errorf("%w: config check failed with %d problem(s)", models.ErrInvalidInput, len(report.Problems))
	}
	return nil
}

// checkSuites loads the config fully and exercises every suite's model list
// and baselines.
func checkSuites(path string) ([]string, []string) {
	cfg, err := projectconfig.LoadFile(path)
	if err != nil {
		return nil, []string{err.Error()}
	}

	var problems []string
	names := cfg.SuiteNames()
	for _, name := range names {
		sc := cfg.Suites[name]
		suite, err := cfg.LoadModels(sc)
		if err != nil {
			problems = append(problems, fmt.Sprintf("suite %s: %v", name, err))
			continue
		}
		if len(suite.Filter(sc.Exclusions())) == 0 {
			problems = append(problems, fmt.Sprintf("suite %s: every model is excluded", name))
		}
		modes, err := sc.RunModes()
		if err != nil {
			problems = append(problems, fmt.Sprintf("suite %s: %v", name, err))
			continue
		}
		for _, mode := range modes {
			p := cfg.BaselinePath(sc, mode)
			if p == "" {
				continue
			}
			if _, err := dataset.LoadBaseline(p, mode); err != nil {
				problems = append(problems, fmt.Sprintf("suite %s: %s baseline: %v", name, mode, err))
			}
		}
	}
	return names, problems
}
