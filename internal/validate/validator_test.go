package validate

import (
	"fmt"
	"math"
	"testing"

	"github.com/benchgate/benchgate/internal/collect"
	"github.com/benchgate/benchgate/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(rows ...models.ResultRecord) *models.ResultTable {
	t := models.NewResultTable(models.ModeAccuracy)
	for _, r := range rows {
		r.Mode = models.ModeAccuracy
		t.Set(r)
	}
	return t
}

func row(model string, status models.Status) models.ResultRecord {
	return models.ResultRecord{Model: model, Status: status}
}

func diffModels(diffs []models.ModelDiff) []string {
	out := make([]string, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, d.Model)
	}
	return out
}

func TestValidate_BaselineRegression(t *testing.T) {
	baseline := table(row("m1", models.StatusPass), row("m2", models.StatusPass))
	current := table(row("m1", models.StatusPass), row("m2", models.StatusFailAccuracy))

	v, err := Validate(current, Policy{Baseline: baseline})
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFail, v.Overall)
	assert.True(t, v.HasFailure(models.FailureRegression))
	require.Len(t, v.Regressions, 1)
	assert.Equal(t, "m2", v.Regressions[0].Model)
	assert.Equal(t, models.StatusPass, v.Regressions[0].Baseline)
	assert.Equal(t, models.StatusFailAccuracy, v.Regressions[0].Current)
	assert.NotEmpty(t, v.RunID)
}

func TestValidate_CoverageThreshold(t *testing.T) {
	rows := make([]models.ResultRecord, 0, 11)
	for i := 0; i < 10; i++ {
		status := models.StatusPass
		if i >= 8 {
			status = models.StatusTimeout
		}
		rows = append(rows, row(fmt.Sprintf("m%d", i), status))
	}
	rows = append(rows, row("skipped-one", models.StatusSkipped))
	current := table(rows...)

	tests := []struct {
		threshold float64
		want      models.Outcome
	}{
		{0.75, models.OutcomePass},
		{0.8, models.OutcomePass},
		{0.85, models.OutcomeFail},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.threshold), func(t *testing.T) {
			v, err := Validate(current, Policy{MinCoverage: models.Float(tt.threshold)})
			require.NoError(t, err)
			assert.InDelta(t, 0.8, v.Coverage.Ratio, 1e-12)
			assert.Equal(t, 8, v.Coverage.Passed)
			assert.Equal(t, 10, v.Coverage.Considered)
			assert.Equal(t, []string{"skipped-one"}, v.Skipped)
			assert.Equal(t, tt.want, v.Overall)
			assert.Equal(t, tt.want == models.OutcomeFail, v.HasFailure(models.FailureCoverage))
		})
	}
}

func TestValidate_MissingRecordIsRegression(t *testing.T) {
	assigned := []string{"m1", "m2", "m3"}
	current, _ := collect.Collect(models.ModeAccuracy, assigned, []models.ResultRecord{
		{Model: "m1", Status: models.StatusPass},
		{Model: "m3", Status: models.StatusPass},
	})
	baseline := table(row("m1", models.StatusPass), row("m2", models.StatusPass), row("m3", models.StatusPass))

	v, err := Validate(current, Policy{Baseline: baseline, MinCoverage: models.Float(0.5)})
	require.NoError(t, err)

	assert.Equal(t, []string{"m2"}, diffModels(v.Regressions))
	assert.Equal(t, models.StatusFailToRun, v.Regressions[0].Current)
	assert.Equal(t, collect.MissingDiagnostic, v.Regressions[0].Diagnostic)
	assert.Equal(t, 2, v.Coverage.Passed)
	assert.Equal(t, 3, v.Coverage.Considered)
}

func TestValidate_ListsFollowTableOrder(t *testing.T) {
	baseline := table(
		row("m5", models.StatusPass),
		row("m1", models.StatusPass),
		row("m3", models.StatusPass),
		row("m2", models.StatusFailToRun),
	)
	current := table(
		row("m1", models.StatusTimeout),
		row("m2", models.StatusPass),
		row("m3", models.StatusFailToRun),
		row("m4", models.StatusPass),
		row("m5", models.StatusFailAccuracy),
	)

	v, err := Validate(current, Policy{Baseline: baseline})
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"m1", "m3", "m5"}, diffModels(v.Regressions)); diff != "" {
		t.Errorf("regressions (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"m2", "m4"}, diffModels(v.NewPasses))
	assert.Equal(t, []string{"m4"}, v.Unbaselined)
	assert.Equal(t, models.Status(""), v.NewPasses[1].Baseline)
}

func TestValidate_BaselineOutOfScope(t *testing.T) {
	baseline := table(row("m1", models.StatusPass), row("m2", models.StatusPass), row("m9", models.StatusPass))
	current := table(row("m1", models.StatusPass), row("m2", models.StatusPass))

	v, err := Validate(current, Policy{Baseline: baseline})
	require.NoError(t, err)
	assert.True(t, v.Passed())
	assert.Equal(t, 1, v.BaselineOutOfScope)
}

func TestValidate_Quirks(t *testing.T) {
	baseline := table(row("m1", models.StatusPass), row("m2", models.StatusPass))
	current := table(row("m1", models.StatusFailToRun), row("m2", models.StatusFailToRun))

	v, err := Validate(current, Policy{Baseline: baseline, Quirks: models.NewExclusionSet("m2")})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, diffModels(v.Regressions))
	assert.Equal(t, []string{"m2"}, diffModels(v.AllowedQuirks))
}

func TestValidate_SkippedBaselinePassIsRegression(t *testing.T) {
	baseline := table(row("m1", models.StatusPass))
	current := table(row("m1", models.StatusSkipped))

	v, err := Validate(current, Policy{Baseline: baseline})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, diffModels(v.Regressions))
	assert.Equal(t, []string{"m1"}, v.Skipped)
	assert.Equal(t, 1.0, v.Coverage.Ratio)
}

func TestValidate_MetricFloor(t *testing.T) {
	current := table(
		models.ResultRecord{Model: "fast", Status: models.StatusPass, Metric: models.Float(1.4)},
		models.ResultRecord{Model: "slow", Status: models.StatusPass, Metric: models.Float(0.9)},
		models.ResultRecord{Model: "nometric", Status: models.StatusPass},
	)
	baseline := table(row("fast", models.StatusPass), row("slow", models.StatusPass), row("nometric", models.StatusPass))

	v, err := Validate(current, Policy{Baseline: baseline, MinCoverage: models.Float(0), MetricFloor: models.Float(1.0)})
	require.NoError(t, err)

	assert.Equal(t, []string{"slow"}, diffModels(v.Demoted))
	assert.Equal(t, []string{"slow"}, diffModels(v.Regressions))
	assert.Equal(t, models.StatusFailAccuracy, v.Rows[1].Effective)
	assert.Equal(t, models.StatusPass, v.Rows[1].Recorded, "recorded status is untouched")
	assert.Equal(t, 2, v.Coverage.Passed)

	rec, _ := current.Get("slow")
	assert.Equal(t, models.StatusPass, rec.Status, "table is not mutated")
}

func TestValidate_MetricFloorNonFinite(t *testing.T) {
	current := table(
		models.ResultRecord{Model: "m1", Status: models.StatusPass, Metric: models.Float(math.NaN())},
		models.ResultRecord{Model: "m2", Status: models.StatusPass, Metric: models.Float(0.5)},
		models.ResultRecord{Model: "m3", Status: models.StatusPass, Metric: models.Float(math.Inf(1))},
		models.ResultRecord{Model: "m4", Status: models.StatusPass, Metric: models.Float(2)},
	)

	v, err := Validate(current, Policy{MinCoverage: models.Float(0), MetricFloor: models.Float(1)})
	require.NoError(t, err)

	assert.Equal(t, []string{"m1", "m2", "m3"}, diffModels(v.Demoted))
	assert.Equal(t, 1, v.Coverage.Passed)
	assert.Equal(t, 4, v.Coverage.Considered)
}

// Demoting rows can only lower coverage.
func TestValidate_CoverageMonotonic(t *testing.T) {
	var rows []models.ResultRecord
	for i := 0; i < 20; i++ {
		rows = append(rows, models.ResultRecord{
			Model:  fmt.Sprintf("m%02d", i),
			Status: models.StatusPass,
			Metric: models.Float(float64(i) / 10),
		})
	}
	current := table(rows...)

	prev := 2.0
	for floor := 0.0; floor <= 2.0; floor += 0.25 {
		v, err := Validate(current, Policy{MinCoverage: models.Float(0), MetricFloor: models.Float(floor)})
		require.NoError(t, err)
		assert.LessOrEqual(t, v.Coverage.Ratio, prev, "floor %.2f", floor)
		prev = v.Coverage.Ratio
	}
}

func TestValidate_EmptyTableVacuousCoverage(t *testing.T) {
	v, err := Validate(table(), Policy{MinCoverage: models.Float(0.9)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Coverage.Ratio)
	assert.True(t, v.Passed())
}

func TestValidate_BothFailures(t *testing.T) {
	baseline := table(row("m1", models.StatusPass))
	current := table(row("m1", models.StatusFailAccuracy), row("m2", models.StatusFailAccuracy))

	v, err := Validate(current, Policy{Baseline: baseline, MinCoverage: models.Float(0.5)})
	require.NoError(t, err)
	assert.Equal(t, []models.FailureClass{models.FailureRegression, models.FailureCoverage}, v.Failures)
}

func TestValidate_InputContract(t *testing.T) {
	ok := table(row("m1", models.StatusPass))
	tests := []struct {
		name    string
		table   *models.ResultTable
		policy  Policy
		wantErr string
	}{
		{"nil table", nil, Policy{MinCoverage: models.Float(0.5)}, "no result table"},
		{"no modes", ok, Policy{}, "nothing to validate against"},
		{"required baseline missing", ok, Policy{RequireBaseline: true, MinCoverage: models.Float(0.5)}, "requires a non-empty baseline"},
		{"empty baseline", ok, Policy{Baseline: models.NewResultTable(models.ModeAccuracy)}, "baseline is empty"},
		{"coverage above one", ok, Policy{MinCoverage: models.Float(1.5)}, "MinCoverage"},
		{"negative floor", ok, Policy{MinCoverage: models.Float(0.5), MetricFloor: models.Float(-1)}, "MetricFloor"},
		{
			"mode mismatch", ok,
			Policy{Baseline: func() *models.ResultTable {
				b := models.NewResultTable(models.ModeTraining)
				b.Set(models.ResultRecord{Model: "m1", Mode: models.ModeTraining, Status: models.StatusPass})
				return b
			}()},
			"does not match table mode",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.table, tt.policy)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPolicy_Modes(t *testing.T) {
	assert.Empty(t, Policy{}.Modes())
	assert.Equal(t, []Mode{ModeCoverage}, Policy{MinCoverage: models.Float(0)}.Modes())
	assert.Equal(t, []Mode{ModeBaselineDiff, ModeCoverage}, Policy{Baseline: table(row("m", models.StatusPass)), MinCoverage: models.Float(0)}.Modes())
}
