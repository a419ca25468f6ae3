// Package validate compares a collected result table against a baseline
// and/or a coverage policy and produces a Verdict.
package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var structValidator = validator.New()

// Mode is a validation strategy. A policy may enable both.
type Mode string

const (
	ModeBaselineDiff Mode = "baseline-diff"
	ModeCoverage     Mode = "coverage"
)

// Policy is what a table is validated against.
type Policy struct {
	// Suite is copied into the verdict for reporting.
	Suite string

	// Baseline enables baseline-diff mode. Every baseline row with status
	// pass must still pass in the table.
	Baseline *models.ResultTable
	// RequireBaseline makes a missing or empty baseline an input-contract
	// violation instead of silently skipping baseline-diff mode.
	RequireBaseline bool

	// MinCoverage enables coverage-threshold mode.
	MinCoverage *float64 `validate:"omitempty,gte=0,lte=1"`

	// MetricFloor demotes passing rows whose metric is below it to
	// fail_accuracy, for verdict purposes only.
	MetricFloor *float64 `validate:"omitempty,gte=0"`

	// Quirks are baseline-passing models explicitly allowed to fail.
	Quirks models.ExclusionSet
}

// Modes returns the active validation modes.
func (p Policy) Modes() []Mode {
	var modes []Mode
	if p.Baseline != nil {
		modes = append(modes, ModeBaselineDiff)
	}
	if p.MinCoverage != nil {
		modes = append(modes, ModeCoverage)
	}
	return modes
}

// Validate checks the policy's preconditions.
func (p Policy) Validate() error {
	if err := structValidator.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s, got %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", models.ErrInvalidInput, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if p.RequireBaseline && (p.Baseline == nil || p.Baseline.Len() == 0) {
		return fmt.Errorf("%w: baseline-diff mode requires a non-empty baseline", models.ErrInvalidInput)
	}
	if p.Baseline != nil && p.Baseline.Len() == 0 {
		return fmt.Errorf("%w: baseline is empty", models.ErrInvalidInput)
	}
	if len(p.Modes()) == 0 {
		return fmt.Errorf("%w: nothing to validate against; provide a baseline or a minimum coverage", models.ErrInvalidInput)
	}
	return nil
}

// Validate applies policy to table. Only input-contract violations are
// returned as errors; regressions and coverage shortfalls are reported in the
// verdict.
func Validate(table *models.ResultTable, policy Policy) (*models.Verdict, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: no result table", models.ErrInvalidInput)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	baseline := policy.Baseline
	if baseline != nil && baseline.Mode != "" && table.Mode != "" && baseline.Mode != table.Mode {
		return nil, fmt.Errorf("%w: baseline mode %q does not match table mode %q", models.ErrInvalidInput, baseline.Mode, table.Mode)
	}

	v := &models.Verdict{
		RunID:       uuid.NewString(),
		Suite:       policy.Suite,
		Mode:        table.Mode,
		CreatedAt:   time.Now().UTC(),
		Regressions: []models.ModelDiff{},
		NewPasses:   []models.ModelDiff{},
		Rows:        make([]models.VerdictRow, 0, table.Len()),
	}

	passed, considered := 0, 0
	for _, rec := range table.Records() {
		effective := rec.Status
		if demoted, ok := belowFloor(rec, policy.MetricFloor); ok {
			effective = models.StatusFailAccuracy
			v.Demoted = append(v.Demoted, demoted)
			slog.Debug("Demoted by metric floor", "model", rec.Model, "metric", *rec.Metric, "floor", *policy.MetricFloor)
		}

		v.Rows = append(v.Rows, models.VerdictRow{
			Model:      rec.Model,
			Recorded:   rec.Status,
			Effective:  effective,
			Metric:     rec.Metric,
			Diagnostic: rec.Diagnostic,
		})

		if effective == models.StatusSkipped {
			v.Skipped = append(v.Skipped, rec.Model)
		} else {
			considered++
			if effective == models.StatusPass {
				passed++
			}
		}

		if baseline != nil {
			diffAgainstBaseline(v, baseline, rec, effective, policy.Quirks)
		}
	}

	if baseline != nil {
		for _, id := range baseline.Models() {
			if _, ok := table.Get(id); !ok {
				v.BaselineOutOfScope++
			}
		}
	}

	v.Coverage = models.Coverage{
		Ratio:      coverageRatio(passed, considered),
		Passed:     passed,
		Considered: considered,
		Threshold:  policy.MinCoverage,
		Met:        true,
	}
	if policy.MinCoverage != nil && v.Coverage.Ratio < *policy.MinCoverage {
		v.Coverage.Met = false
	}

	if len(v.Regressions) > 0 {
		v.Failures = append(v.Failures, models.FailureRegression)
	}
	if !v.Coverage.Met {
		v.Failures = append(v.Failures, models.FailureCoverage)
	}
	v.Overall = models.OutcomePass
	if len(v.Failures) > 0 {
		v.Overall = models.OutcomeFail
	}
	return v, nil
}

// coverageRatio is 1 when nothing was considered: an empty or fully skipped
// partition has nothing failing.
func coverageRatio(passed, considered int) float64 {
	if considered == 0 {
		return 1.0
	}
	return float64(passed) / float64(considered)
}

func belowFloor(rec models.ResultRecord, floor *float64) (models.ModelDiff, bool) {
	if floor == nil || rec.Status != models.StatusPass || rec.Metric == nil {
		return models.ModelDiff{}, false
	}
	m := *rec.Metric
	if m >= *floor && !math.IsInf(m, 0) {
		return models.ModelDiff{}, false
	}
	return models.ModelDiff{
		Model:      rec.Model,
		Current:    models.StatusFailAccuracy,
		Metric:     rec.Metric,
		Diagnostic: fmt.Sprintf("metric %.4g below floor %.4g", *rec.Metric, *floor),
	}, true
}

func diffAgainstBaseline(v *models.Verdict, baseline *models.ResultTable, rec models.ResultRecord, effective models.Status, quirks models.ExclusionSet) {
	base, inBaseline := baseline.Get(rec.Model)
	if !inBaseline {
		v.Unbaselined = append(v.Unbaselined, rec.Model)
	}

	diff := models.ModelDiff{
		Model:      rec.Model,
		Baseline:   base.Status,
		Current:    effective,
		Metric:     rec.Metric,
		Diagnostic: rec.Diagnostic,
	}

	switch {
	case effective == models.StatusPass && (!inBaseline || base.Status != models.StatusPass):
		v.NewPasses = append(v.NewPasses, diff)
	case inBaseline && base.Status == models.StatusPass && effective != models.StatusPass:
		if quirks.Contains(rec.Model) {
			v.AllowedQuirks = append(v.AllowedQuirks, diff)
			return
		}
		v.Regressions = append(v.Regressions, diff)
	}
}
