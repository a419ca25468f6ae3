package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks an input-contract violation: bad partition indices,
// an empty baseline where one is required, an unknown status string. These
// are configuration mistakes and are never retried.
var ErrInvalidInput = errors.New("invalid input")

// Status represents the outcome of one model run.
type Status string

const (
	StatusPass         Status = "pass"
	StatusFailAccuracy Status = "fail_accuracy"
	StatusFailToRun    Status = "fail_to_run"
	StatusTimeout      Status = "timeout"
	StatusSkipped      Status = "skipped"
)

// Statuses lists every valid status in report order.
var Statuses = []Status{
	StatusPass,
	StatusFailAccuracy,
	StatusFailToRun,
	StatusTimeout,
	StatusSkipped,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts an artifact cell into a Status. Surrounding whitespace
// and case are ignored.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q (want one of %s)", ErrInvalidInput, s, joinStatuses())
	}
	return st, nil
}

func joinStatuses() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// RunMode identifies which runner code path produced a record.
type RunMode string

const (
	ModeAccuracy    RunMode = "accuracy"
	ModePerformance RunMode = "performance"
	ModeTraining    RunMode = "training"
	ModeInference   RunMode = "inference"
)

// RunModes lists every valid run mode.
var RunModes = []RunMode{ModeAccuracy, ModePerformance, ModeTraining, ModeInference}

// ParseRunMode converts a flag or config value into a RunMode.
func ParseRunMode(s string) (RunMode, error) {
	m := RunMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range RunModes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown run mode %q", ErrInvalidInput, s)
}

// ResultRecord is one model's outcome for one run mode. Records are created by
// the external runner and treated as immutable once read.
type ResultRecord struct {
	Model  string  `json:"model"`
	Mode   RunMode `json:"mode"`
	Status Status  `json:"status"`
	// Metric is a speedup ratio or latency. Nil for accuracy-only runs.
	Metric     *float64 `json:"metric,omitempty"`
	Diagnostic string   `json:"diagnostic,omitempty"`
}

// HasMetric reports whether the record carries a numeric metric.
func (r ResultRecord) HasMetric() bool {
	return r.Metric != nil
}

// Float returns a pointer to v, for building records with a metric.
func Float(v float64) *float64 {
	return &v
}
