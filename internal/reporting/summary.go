package reporting

import (
	"fmt"
	"strings"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/mattn/go-runewidth"
)

// TextOptions controls the plain-text summary.
type TextOptions struct {
	// Icons uses ✓/✗ markers instead of ASCII. Callers enable it for TTYs.
	Icons bool
	// AllRows lists every row, not only the ones that changed.
	AllRows bool
}

// InterpretCoverage returns a plain-language label for a coverage ratio (0–1).
func InterpretCoverage(ratio float64) string {
	pct := ratio * 100
	switch {
	case pct >= 100:
		return fmt.Sprintf("All models passed (%.0f%%)", pct)
	case pct >= 90:
		return fmt.Sprintf("Nearly all models passed (%.0f%%)", pct)
	case pct >= 70:
		return fmt.Sprintf("Most models passed (%.0f%%)", pct)
	case pct >= 50:
		return fmt.Sprintf("About half the models passed (%.0f%%)", pct)
	default:
		return fmt.Sprintf("Few models passed (%.0f%%)", pct)
	}
}

// InterpretFailures explains why a verdict failed.
func InterpretFailures(v *models.Verdict) string {
	if v.Passed() {
		return "No regressions; coverage requirement met."
	}
	var parts []string
	if n := len(v.Regressions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d model(s) that pass in the baseline no longer pass", n))
	}
	if !v.Coverage.Met && v.Coverage.Threshold != nil {
		parts = append(parts, fmt.Sprintf("coverage %.1f%% is below the required %.1f%%", v.Coverage.Ratio*100, *v.Coverage.Threshold*100))
	}
	return strings.Join(parts, "; ") + "."
}

// FormatText renders the verdict for a terminal or a CI log.
func FormatText(v *models.Verdict, opts TextOptions) string {
	var b strings.Builder
	pass, fail, warn := "+", "x", "!"
	if opts.Icons {
		pass, fail, warn = "✓", "✗", "⚠"
	}

	status := "PASS"
	if !v.Passed() {
		status = "FAIL"
	}
	b.WriteString(fmt.Sprintf("=== Verdict: %s ===\n\n", status))
	if v.Suite != "" {
		b.WriteString(fmt.Sprintf("Suite:      %s\n", v.Suite))
	}
	b.WriteString(fmt.Sprintf("Mode:       %s\n", v.Mode))
	b.WriteString(fmt.Sprintf("Run:        %s\n", v.RunID))
	b.WriteString(fmt.Sprintf("Coverage:   %d/%d, %s", v.Coverage.Passed, v.Coverage.Considered, InterpretCoverage(v.Coverage.Ratio)))
	if v.Coverage.Threshold != nil {
		b.WriteString(fmt.Sprintf(", minimum %.1f%%", *v.Coverage.Threshold*100))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Result:     %s\n", InterpretFailures(v)))

	counts := v.EffectiveCounts()
	var tally []string
	for _, s := range models.Statuses {
		if counts[s] > 0 {
			tally = append(tally, fmt.Sprintf("%d %s", counts[s], s))
		}
	}
	if len(tally) > 0 {
		b.WriteString(fmt.Sprintf("Rows:       %s\n", strings.Join(tally, ", ")))
	}
	if v.BaselineOutOfScope > 0 {
		b.WriteString(fmt.Sprintf("Baseline:   %d row(s) not in this table\n", v.BaselineOutOfScope))
	}

	width := modelColumnWidth(v)
	writeDiffs := func(title, icon string, diffs []models.ModelDiff) {
		if len(diffs) == 0 {
			return
		}
		b.WriteString(fmt.Sprintf("\n%s (%d):\n", title, len(diffs)))
		for _, d := range diffs {
			line := fmt.Sprintf("  %s %s  %s -> %s", icon, padRight(d.Model, width), orDash(string(d.Baseline)), d.Current)
			if d.Diagnostic != "" {
				line += "  " + d.Diagnostic
			}
			b.WriteString(line + "\n")
		}
	}
	writeDiffs("Regressions", fail, v.Regressions)
	writeDiffs("Allowed quirks", warn, v.AllowedQuirks)
	writeDiffs("Below metric floor", warn, v.Demoted)
	writeDiffs("Newly passing", pass, v.NewPasses)

	if len(v.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\nSkipped (%d): %s\n", len(v.Skipped), strings.Join(v.Skipped, ", ")))
	}

	if opts.AllRows && len(v.Rows) > 0 {
		b.WriteString("\nAll rows:\n")
		for _, r := range v.Rows {
			icon := pass
			switch r.Effective {
			case models.StatusPass:
			case models.StatusSkipped:
				icon = "-"
			default:
				icon = fail
			}
			b.WriteString(fmt.Sprintf("  %s %s  %-13s %8s  %s\n", icon, padRight(r.Model, width), r.Effective, formatMetric(r.Metric), r.Diagnostic))
		}
	}

	return b.String()
}

func modelColumnWidth(v *models.Verdict) int {
	w := 0
	for _, r := range v.Rows {
		if rw := runewidth.StringWidth(r.Model); rw > w {
			w = rw
		}
	}
	return w
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func formatMetric(m *float64) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%.4g", *m)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
