package reporting

import (
	"strings"
	"testing"
	"time"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/stretchr/testify/assert"
)

func newTestVerdict() *models.Verdict {
	return &models.Verdict{
		RunID:     "run-1",
		Suite:     "torchbench",
		Mode:      models.ModeAccuracy,
		CreatedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Overall:   models.OutcomeFail,
		Failures:  []models.FailureClass{models.FailureRegression},
		Regressions: []models.ModelDiff{
			{Model: "bert", Baseline: models.StatusPass, Current: models.StatusFailAccuracy, Diagnostic: "rmse | 0.2 > 0.1"},
		},
		NewPasses: []models.ModelDiff{
			{Model: "t5", Baseline: models.StatusFailToRun, Current: models.StatusPass},
		},
		Skipped: []string{"gpt2"},
		Coverage: models.Coverage{
			Ratio:      0.75,
			Passed:     3,
			Considered: 4,
			Threshold:  models.Float(0.5),
			Met:        true,
		},
		Rows: []models.VerdictRow{
			{Model: "resnet50", Recorded: models.StatusPass, Effective: models.StatusPass, Metric: models.Float(1.31)},
			{Model: "bert", Recorded: models.StatusFailAccuracy, Effective: models.StatusFailAccuracy, Diagnostic: "rmse | 0.2 > 0.1"},
			{Model: "t5", Recorded: models.StatusPass, Effective: models.StatusPass},
			{Model: "vit", Recorded: models.StatusPass, Effective: models.StatusPass},
			{Model: "gpt2", Recorded: models.StatusSkipped, Effective: models.StatusSkipped, Diagnostic: "needs 80GB"},
			{Model: "dlrm", Recorded: models.StatusTimeout, Effective: models.StatusTimeout, Diagnostic: "killed after 1800s"},
		},
	}
}

func TestInterpretCoverage(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  string
	}{
		{"all", 1.0, "All models passed (100%)"},
		{"nearly all", 0.95, "Nearly all models passed (95%)"},
		{"most", 0.80, "Most models passed (80%)"},
		{"about half", 0.55, "About half the models passed (55%)"},
		{"few", 0.20, "Few models passed (20%)"},
		{"none", 0.0, "Few models passed (0%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterpretCoverage(tt.ratio))
		})
	}
}

func TestInterpretFailures(t *testing.T) {
	v := newTestVerdict()
	assert.Equal(t, "1 model(s) that pass in the baseline no longer pass.", InterpretFailures(v))

	v.Failures = append(v.Failures, models.FailureCoverage)
	v.Coverage.Met = false
	v.Coverage.Threshold = models.Float(0.9)
	assert.Contains(t, InterpretFailures(v), "coverage 75.0% is below the required 90.0%")

	ok := &models.Verdict{Overall: models.OutcomePass}
	assert.Equal(t, "No regressions; coverage requirement met.", InterpretFailures(ok))
}

func TestFormatText(t *testing.T) {
	out := FormatText(newTestVerdict(), TextOptions{})

	assert.Contains(t, out, "=== Verdict: FAIL ===")
	assert.Contains(t, out, "Suite:      torchbench")
	assert.Contains(t, out, "Coverage:   3/4, Most models passed (75%), minimum 50.0%")
	assert.Contains(t, out, "Regressions (1):\n  x bert      pass -> fail_accuracy")
	assert.Contains(t, out, "Newly passing (1):\n  + t5        fail_to_run -> pass")
	assert.Contains(t, out, "Skipped (1): gpt2")
	assert.NotContains(t, out, "All rows:")
	assert.NotContains(t, out, "✗", "icons are opt-in")
}

func TestFormatText_AllRowsWithIcons(t *testing.T) {
	out := FormatText(newTestVerdict(), TextOptions{Icons: true, AllRows: true})

	assert.Contains(t, out, "All rows:")
	assert.Contains(t, out, "✓ resnet50")
	assert.Contains(t, out, "✗ dlrm")
	assert.Contains(t, out, "- gpt2")
	assert.Contains(t, out, "1.31")
	// Rows keep table order.
	assert.Less(t, strings.Index(out, "✓ resnet50"), strings.Index(out, "✗ dlrm"))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcdef", padRight("abcdef", 4))
	// Wide runes count as two columns.
	assert.Equal(t, "模型 ", padRight("模型", 5))
}
