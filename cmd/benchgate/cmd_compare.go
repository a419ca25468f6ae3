package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/benchgate/benchgate/internal/baseline"
	"github.com/benchgate/benchgate/internal/dataset"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/benchgate/benchgate/internal/reporting"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	compareOutputFormat string
	compareMode         string
	compareAll          bool
	compareFail         bool
)

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <reference.csv> <candidate.csv>",
		Short: "Compare two result tables model by model",
		Long: `Compare a reference result table with a candidate, e.g. last night's run
with tonight's.

Each model is classified as unchanged, improved, regressed (pass to
non-pass), changed (between two non-pass statuses), added or removed.
Metric deltas are relative to the reference metric; the geometric mean of
metric ratios summarises speedups in performance runs.`,
		Args: cobra.ExactArgs(2),
		RunE: compareCommandE,
	}

	cmd.Flags().StringVarP(&compareOutputFormat, "format", "f", "table", "Output format: table or json")
	cmd.Flags().StringVar(&compareMode, "mode", string(models.ModeAccuracy), "Run mode of both tables")
	cmd.Flags().BoolVar(&compareAll, "all", false, "List unchanged models too")
	cmd.Flags().BoolVar(&compareFail, "fail-on-regression", false, "Exit 1 when any model regressed")

	return cmd
}

func compareCommandE(cmd *cobra.Command, args []string) error {
	if compareOutputFormat != "table" && compareOutputFormat != "json" {
		return fmt.Errorf("%w: unsupported format %q: must be table or json", models.ErrInvalidInput, compareOutputFormat)
	}
	mode, err := models.ParseRunMode(compareMode)
	if err != nil {
		return err
	}

	tables := make([]*models.ResultTable, 0, len(args))
	for _, path := range args {
		records, err := dataset.ReadArtifact(path, mode)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		t := models.NewResultTable(mode)
		for _, rec := range records {
			t.Set(rec)
		}
		tables = append(tables, t)
	}

	c, err := baseline.Compare(tables[0], tables[1])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if compareOutputFormat == "json" {
		if err := writeJSON(w, c); err != nil {
			return fmt.Errorf("failed to write comparison report: %w", err)
		}
	} else {
		printComparisonTable(w, args, c)
	}

	if n := c.Counts[baseline.ChangeRegressed]; compareFail && n > 0 {
		return &VerdictFailureError{
			Code:    reporting.ExitRegression,
			Message: fmt.Sprintf("%d model(s) regressed", n),
		}
	}
	return nil
}

func printComparisonTable(w io.Writer, files []string, c *baseline.Comparison) {
	line := strings.Repeat("=", 70)
	fmt.Fprintln(w, line)                 //nolint:errcheck
	fmt.Fprintln(w, " COMPARISON REPORT") //nolint:errcheck
	fmt.Fprintln(w, line)                 //nolint:errcheck
	fmt.Fprintf(w, "  [ref]  %s\n  [cand] %s\n\n", files[0], files[1]) //nolint:errcheck

	fmt.Fprintf(w, "  %-20s  %-9s  %-9s  %s\n", "Metric", "[ref]", "[cand]", "Delta")                                                //nolint:errcheck
	fmt.Fprintf(w, "  %-20s  %-8.1f%%  %-8.1f%%  %+.1f%%\n", "Pass Rate", c.ReferencePassRate*100, c.CandidatePassRate*100, c.PassRateDelta*100) //nolint:errcheck
	if c.MetricGeomean != nil {
		fmt.Fprintf(w, "  %-20s  %-9s  %-9s  %.4gx\n", "Metric geomean", "", "", *c.MetricGeomean) //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck

	width := len("Model")
	for _, mc := range c.Models {
		width = max(width, runewidth.StringWidth(mc.Model))
	}

	fmt.Fprintf(w, "  %s  %-13s  %-13s  %-10s  %s\n", runewidth.FillRight("Model", width), "[ref]", "[cand]", "Change", "Metric Δ") //nolint:errcheck
	shown := 0
	for _, mc := range c.Models {
		if mc.Change == baseline.ChangeUnchanged && !compareAll {
			continue
		}
		shown++
		delta := "-"
		if mc.MetricDelta != nil {
			delta = fmt.Sprintf("%+.1f%%", *mc.MetricDelta*100)
		}
		fmt.Fprintf(w, "  %s  %-13s  %-13s  %-10s  %s\n", //nolint:errcheck
			runewidth.FillRight(mc.Model, width), statusOrNA(mc.Reference), statusOrNA(mc.Candidate), mc.Change, delta)
	}
	if shown == 0 {
		fmt.Fprintln(w, "  (no changes)") //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck
	fmt.Fprintf(w, "  %d improved, %d regressed, %d changed, %d added, %d removed, %d unchanged\n", //nolint:errcheck
		c.Counts[baseline.ChangeImproved], c.Counts[baseline.ChangeRegressed], c.Counts[baseline.ChangeChanged],
		c.Counts[baseline.ChangeAdded], c.Counts[baseline.ChangeRemoved], c.Counts[baseline.ChangeUnchanged])
}

func statusOrNA(s models.Status) string {
	if s == "" {
		return "n/a"
	}
	return string(s)
}
