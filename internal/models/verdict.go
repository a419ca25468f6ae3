package models

import "time"

// Outcome is the overall decision for a validated table.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
)

// FailureClass tells automation why a verdict failed.
type FailureClass string

const (
	FailureRegression FailureClass = "regression"
	FailureCoverage   FailureClass = "coverage"
)

// Verdict is the validator's terminal output. It is built once and never
// mutated afterwards.
type Verdict struct {
	RunID     string    `json:"run_id"`
	Suite     string    `json:"suite,omitempty"`
	Mode      RunMode   `json:"mode"`
	CreatedAt time.Time `json:"created_at"`

	Overall  Outcome        `json:"overall"`
	Failures []FailureClass `json:"failures,omitempty"`

	// Regressions and NewPasses are in suite order.
	Regressions []ModelDiff `json:"regressions"`
	NewPasses   []ModelDiff `json:"new_passes"`
	// Unbaselined lists models with no baseline row; informational only.
	Unbaselined []string `json:"unbaselined,omitempty"`
	// Demoted lists passing rows that missed the metric floor.
	Demoted []ModelDiff `json:"demoted,omitempty"`
	// AllowedQuirks lists baseline-passing models that failed but are allowed to.
	AllowedQuirks []ModelDiff `json:"allowed_quirks,omitempty"`
	Skipped       []string    `json:"skipped,omitempty"`

	Coverage Coverage `json:"coverage"`

	// BaselineOutOfScope counts baseline rows with no matching table row,
	// e.g. models owned by another partition.
	BaselineOutOfScope int `json:"baseline_out_of_scope,omitempty"`

	Rows []VerdictRow `json:"rows"`
}

// Coverage is passing / considered, where skipped rows are not considered.
type Coverage struct {
	Ratio      float64  `json:"ratio"`
	Passed     int      `json:"passed"`
	Considered int      `json:"considered"`
	Threshold  *float64 `json:"threshold,omitempty"`
	Met        bool     `json:"met"`
}

// ModelDiff describes one model's status change against the baseline.
type ModelDiff struct {
	Model      string   `json:"model"`
	Baseline   Status   `json:"baseline,omitempty"`
	Current    Status   `json:"current"`
	Metric     *float64 `json:"metric,omitempty"`
	Diagnostic string   `json:"diagnostic,omitempty"`
}

// VerdictRow keeps the recorded status next to the status the verdict used.
type VerdictRow struct {
	Model      string   `json:"model"`
	Recorded   Status   `json:"recorded"`
	Effective  Status   `json:"effective"`
	Metric     *float64 `json:"metric,omitempty"`
	Diagnostic string   `json:"diagnostic,omitempty"`
}

// Passed reports whether the overall outcome is pass.
func (v *Verdict) Passed() bool {
	return v.Overall == OutcomePass
}

// HasFailure reports whether the verdict failed for the given reason.
func (v *Verdict) HasFailure(class FailureClass) bool {
	for _, f := range v.Failures {
		if f == class {
			return true
		}
	}
	return false
}

// EffectiveCounts tallies rows per effective status.
func (v *Verdict) EffectiveCounts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, r := range v.Rows {
		counts[r.Effective]++
	}
	return counts
}
