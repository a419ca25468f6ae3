package main

import (
	"fmt"
	"io"
	"time"

	"github.com/benchgate/benchgate/internal/history"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var (
	historyDB     string
	historyFormat string
	historySuite  string
	historyMode   string
	historyLimit  int
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query recorded verdicts",
		Long: `Query verdicts recorded with "benchgate validate --record".

recent lists past runs of a suite, model shows one model's status over time,
and flips finds models whose status keeps changing between runs.`,
	}

	cmd.PersistentFlags().StringVar(&historyDB, "db", "", "History database (default: history.path from .benchgate.yaml)")
	cmd.PersistentFlags().StringVarP(&historyFormat, "format", "f", "text", "Output format: text or json")
	cmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to consider")

	cmd.AddCommand(newHistoryRecentCommand())
	cmd.AddCommand(newHistoryModelCommand())
	cmd.AddCommand(newHistoryFlipsCommand())

	return cmd
}

func newHistoryRecentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent verdicts for a suite, newest first",
		Args:  cobra.NoArgs,
		RunE:  historyRecentE,
	}
	addSuiteModeFlags(cmd)
	return cmd
}

func newHistoryModelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "model <model>",
		Short: "Show one model's recorded results, newest first",
		Args:  cobra.ExactArgs(1),
		RunE:  historyModelE,
	}
}

func newHistoryFlipsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flips",
		Short: "List models whose status changed across recent runs",
		Long: `List models whose effective status changed between consecutive runs
within the last --limit runs of a suite. Frequent flips usually mean a
flaky model rather than a real regression.`,
		Args: cobra.NoArgs,
		RunE: historyFlipsE,
	}
	addSuiteModeFlags(cmd)
	return cmd
}

func addSuiteModeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&historySuite, "suite", "", "Suite name as recorded")
	cmd.Flags().StringVar(&historyMode, "mode", string(models.ModeAccuracy), "Run mode")
}

func openHistoryStore() (history.Store, error) {
	path := historyDB
	if path == "" {
		cfg, err := loadProject()
		if err != nil {
			return nil, err
		}
		path = cfg.Resolve(cfg.History.Path)
	}
	if historyFormat != "text" && historyFormat != "json" {
		return nil, fmt.Errorf("%w: unsupported format %q: must be text or json", models.ErrInvalidInput, historyFormat)
	}
	store, err := openHistory(path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}

func historyRecentE(cmd *cobra.Command, _ []string) error {
	mode, err := models.ParseRunMode(historyMode)
	if err != nil {
		return err
	}
	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	runs, err := store.Recent(cmd.Context(), historySuite, mode, historyLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if historyFormat == "json" {
		if runs == nil {
			runs = []history.Run{}
		}
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.") //nolint:errcheck
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-4s  %6.1f%%  %d/%d passed  %d regression(s)  %s\n", //nolint:errcheck
			r.CreatedAt.Format(time.RFC3339), r.Overall, r.Coverage*100, r.Passed, r.Considered, r.Regressions, r.RunID)
	}
	return nil
}

func historyModelE(cmd *cobra.Command, args []string) error {
	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	results, err := store.ModelHistory(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if historyFormat == "json" {
		if results == nil {
			results = []history.ModelResult{}
		}
		return writeJSON(w, results)
	}
	if len(results) == 0 {
		fmt.Fprintf(w, "No recorded results for %s.\n", args[0]) //nolint:errcheck
		return nil
	}
	for _, r := range results {
		metric := "-"
		if r.Metric != nil {
			metric = fmt.Sprintf("%.4g", *r.Metric)
		}
		fmt.Fprintf(w, "%s  %-12s  %-13s  %-8s  %s\n", //nolint:errcheck
			r.CreatedAt.Format(time.RFC3339), r.Suite+"/"+string(r.Mode), r.Status, metric, r.Diagnostic)
	}
	return nil
}

func historyFlipsE(cmd *cobra.Command, _ []string) error {
	mode, err := models.ParseRunMode(historyMode)
	if err != nil {
		return err
	}
	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	flips, err := store.Flips(cmd.Context(), historySuite, mode, historyLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if historyFormat == "json" {
		if flips == nil {
			flips = []history.Flip{}
		}
		return writeJSON(w, flips)
	}
	printFlips(w, flips)
	return nil
}

func printFlips(w io.Writer, flips []history.Flip) {
	if len(flips) == 0 {
		fmt.Fprintln(w, "No status changes.") //nolint:errcheck
		return
	}
	width := len("Model")
	for _, f := range flips {
		width = max(width, runewidth.StringWidth(f.Model))
	}
	fmt.Fprintf(w, "%s  %5s  %4s  %s\n", runewidth.FillRight("Model", width), "Flips", "Runs", "Current") //nolint:errcheck
	for _, f := range flips {
		fmt.Fprintf(w, "%s  %5d  %4d  %s\n", runewidth.FillRight(f.Model, width), f.Flips, f.Runs, f.Current) //nolint:errcheck
	}
}
