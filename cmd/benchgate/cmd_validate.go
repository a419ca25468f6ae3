package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/benchgate/benchgate/internal/collect"
	"github.com/benchgate/benchgate/internal/dataset"
	"github.com/benchgate/benchgate/internal/history"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/benchgate/benchgate/internal/projectconfig"
	"github.com/benchgate/benchgate/internal/publish"
	"github.com/benchgate/benchgate/internal/reporting"
	"github.com/benchgate/benchgate/internal/validate"
	"github.com/spf13/cobra"
)

var (
	valMode         string
	valSuite        string
	valModelsFile   string
	valExclude      []string
	valTotal        int
	valPartitionID  int
	valBaseline     string
	valMinCoverage  float64
	valMetricFloor  float64
	valQuirks       []string
	valFormat       string
	valAllRows      bool
	valTableOut     string
	valJUnit        string
	valMetricsFile  string
	valHTML         string
	valRecord       bool
	valPublish      bool
	valNoBaseline   bool
	valRequireBase  bool
	valIconsFlag    string
	valPublishFiles []string
)

// openHistory opens the verdict history store. Tests replace it.
var openHistory = func(path string) (history.Store, error) {
	return history.Open(path)
}

// newPublisher builds the artifact publisher. Tests replace it.
var newPublisher = func(cfg projectconfig.PublishConfig) (verdictPublisher, error) {
	return publish.New(cfg.AccountURL, cfg.Container, cfg.Prefix)
}

type verdictPublisher interface {
	PublishVerdict(ctx context.Context, v *models.Verdict, files []string) ([]string, error)
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <artifact.csv> [artifact.csv ...]",
		Short: "Validate result artifacts against a baseline and coverage policy",
		Long: `Collect result artifacts and decide whether the run passes.

Baseline-diff: every model that passes in the baseline must still pass,
unless it is listed as a quirk. Models the baseline does not mention are
informational; baseline models absent from the artifacts belong to another
partition and are ignored.

Coverage: passing / non-skipped rows must reach --min-coverage.

--metric-floor demotes passing rows whose metric is below the floor.

Exit codes: 0 pass, 1 regression, 2 configuration or runtime error,
3 coverage below the minimum. Regressions win when both apply.`,
		Example: `  benchgate validate results/*.csv --suite timm --mode accuracy
  benchgate validate shard-0.csv.gz --baseline expected_pass.txt --min-coverage 0.95
  benchgate validate results/*.csv --suite huggingface --format github-comment --junit junit.xml`,
		Args: cobra.MinimumNArgs(1),
		RunE: validateCommandE,
	}

	cmd.Flags().StringVar(&valMode, "mode", string(models.ModeAccuracy), "Run mode of the artifacts")
	cmd.Flags().StringVar(&valSuite, "suite", "", "Suite name from .benchgate.yaml")
	cmd.Flags().StringVar(&valModelsFile, "models-file", "", "Model list file instead of a configured suite")
	cmd.Flags().StringSliceVar(&valExclude, "exclude", nil, "Model to exclude (can be repeated or comma separated)")
	cmd.Flags().IntVar(&valTotal, "total-partitions", 1, "Number of partitions")
	cmd.Flags().IntVar(&valPartitionID, "partition-id", 0, "Partition the artifacts belong to (default: whole suite)")
	cmd.Flags().StringVar(&valBaseline, "baseline", "", "Baseline table (.csv) or expected-pass list (default: suite baseline for the mode)")
	cmd.Flags().BoolVar(&valNoBaseline, "no-baseline", false, "Ignore any configured baseline")
	cmd.Flags().BoolVar(&valRequireBase, "require-baseline", false, "Fail when no baseline is available")
	cmd.Flags().Float64Var(&valMinCoverage, "min-coverage", 0, "Minimum passing fraction in [0, 1] (default: suite min_coverage)")
	cmd.Flags().Float64Var(&valMetricFloor, "metric-floor", 0, "Demote passing rows whose metric is below this value")
	cmd.Flags().StringSliceVar(&valQuirks, "quirk", nil, "Model allowed to regress (can be repeated)")
	cmd.Flags().StringVarP(&valFormat, "format", "f", "", "Output format: text, json, github-comment or html (default: config or text)")
	cmd.Flags().BoolVar(&valAllRows, "all-rows", false, "List every row in the text report")
	cmd.Flags().StringVar(&valIconsFlag, "icons", "auto", "Unicode status icons: auto, always or never")
	cmd.Flags().StringVar(&valTableOut, "output-table", "", "Write the collected table to this artifact file")
	cmd.Flags().StringVar(&valJUnit, "junit", "", "Write a JUnit XML report to this file")
	cmd.Flags().StringVar(&valMetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this file")
	cmd.Flags().StringVar(&valHTML, "html", "", "Write an HTML report to this file")
	cmd.Flags().BoolVar(&valRecord, "record", false, "Record the verdict in the history store (default: history.enabled)")
	cmd.Flags().BoolVar(&valPublish, "publish", false, "Upload the verdict and written reports to blob storage")
	cmd.Flags().StringSliceVar(&valPublishFiles, "publish-file", nil, "Extra file to upload with --publish (can be repeated)")

	return cmd
}

func validateCommandE(cmd *cobra.Command, args []string) error {
	mode, err := models.ParseRunMode(valMode)
	if err != nil {
		return err
	}
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	env, err := loadEnv()
	if err != nil {
		return err
	}

	formatName := valFormat
	if formatName == "" {
		formatName = cfg.Defaults.Format
	}
	format, err := reporting.ParseOutputFormat(formatName)
	if err != nil {
		return err
	}

	var (
		sel      *suiteSelection
		assigned []string
	)
	if valSuite != "" || valModelsFile != "" {
		if sel, err = selectSuite(cmd, cfg, env, valSuite, valModelsFile, valExclude, valTotal); err != nil {
			return err
		}
		if assigned, err = sel.assigned(partitionID(cmd, valPartitionID, env.PartitionID)); err != nil {
			return err
		}
	} else {
		slog.Warn("No suite given; missing models cannot be detected")
	}

	policy, err := buildPolicy(cmd, cfg, sel, mode)
	if err != nil {
		return err
	}

	records, err := readArtifacts(cmd.Context(), args, mode)
	if err != nil {
		return err
	}
	table, diags := collect.Collect(mode, assigned, records)
	reportDiagnostics(cmd, diags)

	verdict, err := validate.Validate(table, policy)
	if err != nil {
		return err
	}

	opts := reporting.TextOptions{AllRows: valAllRows}
	switch valIconsFlag {
	case "always":
		opts.Icons = true
	case "never":
	case "auto":
		opts.Icons = isTerminal(cmd.OutOrStdout())
	default:
		return fmt.Errorf("%w: --icons must be auto, always or never", models.ErrInvalidInput)
	}

	code, err := reporting.Write(cmd.OutOrStdout(), verdict, format, opts)
	if err != nil {
		return err
	}

	written, err := writeSideReports(verdict, table)
	if err != nil {
		return err
	}

	if valRecord || (!cmd.Flags().Changed("record") && cfg.HistoryEnabled()) {
		if err := recordVerdict(cmd.Context(), cfg.Resolve(cfg.History.Path), verdict); err != nil {
			return err
		}
	}

	if valPublish {
		pub, err := newPublisher(cfg.Publish)
		if err != nil {
			return err
		}
		names, err := pub.PublishVerdict(cmd.Context(), verdict, append(written, valPublishFiles...))
		if err != nil {
			return fmt.Errorf("publishing verdict: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Published %d file(s) to %s\n", len(names), cfg.Publish.Container) //nolint:errcheck
	}

	if code != reporting.ExitPass {
		return &VerdictFailureError{
			Code:    code,
			Message: fmt.Sprintf("verdict failed: %s", reporting.InterpretFailures(verdict)),
		}
	}
	return nil
}

// buildPolicy merges flags with the suite's configuration. Flags win.
func buildPolicy(cmd *cobra.Command, cfg *projectconfig.ProjectConfig, sel *suiteSelection, mode models.RunMode) (validate.Policy, error) {
	policy := validate.Policy{RequireBaseline: valRequireBase}
	var sc projectconfig.SuiteConfig
	if sel != nil {
		policy.Suite = sel.name
		sc = sel.config
	}

	baselinePath := valBaseline
	if baselinePath == "" && sel != nil {
		baselinePath = cfg.BaselinePath(sc, mode)
	}
	if valNoBaseline {
		baselinePath = ""
	}
	if baselinePath != "" {
		baseline, err := dataset.LoadBaseline(baselinePath, mode)
		if err != nil {
			return policy, err
		}
		policy.Baseline = baseline
		slog.Debug("Loaded baseline", "path", baselinePath, "rows", baseline.Len())
	}

	switch {
	case cmd.Flags().Changed("min-coverage"):
		policy.MinCoverage = models.Float(valMinCoverage)
	case sc.MinCoverage != nil:
		policy.MinCoverage = sc.MinCoverage
	}
	switch {
	case cmd.Flags().Changed("metric-floor"):
		policy.MetricFloor = models.Float(valMetricFloor)
	case sc.MetricFloor != nil:
		policy.MetricFloor = sc.MetricFloor
	}
	policy.Quirks = sc.QuirkSet().Union(models.NewExclusionSet(valQuirks...))
	return policy, nil
}

// writeSideReports writes the optional file reports and returns the paths it
// wrote, in a stable order.
func writeSideReports(v *models.Verdict, table *models.ResultTable) ([]string, error) {
	var written []string
	if valTableOut != "" {
		if err := dataset.WriteArtifact(valTableOut, table); err != nil {
			return written, err
		}
		written = append(written, valTableOut)
	}
	if valJUnit != "" {
		if err := reporting.WriteJUnitXML(v, valJUnit); err != nil {
			return written, fmt.Errorf("writing JUnit report: %w", err)
		}
		written = append(written, valJUnit)
	}
	if valMetricsFile != "" {
		if err := reporting.WriteMetricsTextfile(v, valMetricsFile); err != nil {
			return written, fmt.Errorf("writing metrics: %w", err)
		}
		written = append(written, valMetricsFile)
	}
	if valHTML != "" {
		page, err := reporting.RenderHTML(v)
		if err != nil {
			return written, fmt.Errorf("rendering HTML report: %w", err)
		}
		if err := os.WriteFile(valHTML, page, 0644); err != nil {
			return written, fmt.Errorf("writing HTML report: %w", err)
		}
		written = append(written, valHTML)
	}
	return written, nil
}

func recordVerdict(ctx context.Context, path string, v *models.Verdict) error {
	store, err := openHistory(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close() //nolint:errcheck

	if err := store.Record(ctx, v); err != nil {
		if errors.Is(err, history.ErrDuplicateRun) {
			slog.Warn("Verdict already recorded", "run_id", v.RunID)
			return nil
		}
		return fmt.Errorf("recording verdict: %w", err)
	}
	slog.Debug("Recorded verdict", "path", path, "run_id", v.RunID)
	return nil
}
