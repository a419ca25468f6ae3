// Package baseline compares two result tables model by model, e.g. last
// night's artifact against tonight's, or a stored baseline against a fresh
// run.
package baseline

import (
	"fmt"
	"math"

	"github.com/benchgate/benchgate/internal/models"
)

// Change classifies how a model moved between the reference and the
// candidate table.
type Change string

const (
	ChangeUnchanged Change = "unchanged"
	ChangeImproved  Change = "improved"
	ChangeRegressed Change = "regressed"
	// ChangeChanged is a move between two non-passing statuses.
	ChangeChanged Change = "changed"
	ChangeAdded   Change = "added"
	ChangeRemoved Change = "removed"
)

// ModelComparison pairs one model's reference and candidate results.
type ModelComparison struct {
	Model           string        `json:"model"`
	Reference       models.Status `json:"reference,omitempty"`
	Candidate       models.Status `json:"candidate,omitempty"`
	ReferenceMetric *float64      `json:"reference_metric,omitempty"`
	CandidateMetric *float64      `json:"candidate_metric,omitempty"`
	// MetricDelta is (candidate - reference) / reference. Nil unless both
	// metrics are present and the reference is positive.
	MetricDelta *float64 `json:"metric_delta,omitempty"`
	Change      Change   `json:"change"`
}

// Comparison is the full model-by-model comparison.
type Comparison struct {
	Mode              models.RunMode    `json:"mode"`
	Models            []ModelComparison `json:"models"`
	ReferencePassRate float64           `json:"reference_pass_rate"`
	CandidatePassRate float64           `json:"candidate_pass_rate"`
	PassRateDelta     float64           `json:"pass_rate_delta"`
	// MetricGeomean is the geometric mean of candidate/reference metric
	// ratios over models with both metrics positive. Nil when there are none.
	MetricGeomean *float64       `json:"metric_geomean,omitempty"`
	Counts        map[Change]int `json:"counts"`
}

// Compare builds a comparison. Models appear in reference order, followed by
// candidate-only models in candidate order.
func Compare(reference, candidate *models.ResultTable) (*Comparison, error) {
	if reference == nil || candidate == nil {
		return nil, fmt.Errorf("%w: compare needs two tables", models.ErrInvalidInput)
	}
	if reference.Mode != candidate.Mode {
		return nil, fmt.Errorf("%w: cannot compare %s results with %s results",
			models.ErrInvalidInput, reference.Mode, candidate.Mode)
	}

	c := &Comparison{
		Mode:   reference.Mode,
		Models: make([]ModelComparison, 0, reference.Len()),
		Counts: make(map[Change]int),
	}

	var logSum float64
	var ratios int
	add := func(mc ModelComparison) {
		mc.Change = classify(mc.Reference, mc.Candidate)
		if mc.ReferenceMetric != nil && mc.CandidateMetric != nil && *mc.ReferenceMetric > 0 {
			d := (*mc.CandidateMetric - *mc.ReferenceMetric) / *mc.ReferenceMetric
			mc.MetricDelta = &d
			if *mc.CandidateMetric > 0 {
				logSum += math.Log(*mc.CandidateMetric / *mc.ReferenceMetric)
				ratios++
			}
		}
		c.Counts[mc.Change]++
		c.Models = append(c.Models, mc)
	}

	for _, ref := range reference.Records() {
		mc := ModelComparison{Model: ref.Model, Reference: ref.Status, ReferenceMetric: ref.Metric}
		if cand, ok := candidate.Get(ref.Model); ok {
			mc.Candidate = cand.Status
			mc.CandidateMetric = cand.Metric
		}
		add(mc)
	}
	for _, cand := range candidate.Records() {
		if _, ok := reference.Get(cand.Model); ok {
			continue
		}
		add(ModelComparison{Model: cand.Model, Candidate: cand.Status, CandidateMetric: cand.Metric})
	}

	c.ReferencePassRate = passRate(reference)
	c.CandidatePassRate = passRate(candidate)
	c.PassRateDelta = c.CandidatePassRate - c.ReferencePassRate
	if ratios > 0 {
		g := math.Exp(logSum / float64(ratios))
		c.MetricGeomean = &g
	}
	return c, nil
}

// Changed returns the comparisons whose change is one of kinds, in order.
func (c *Comparison) Changed(kinds ...Change) []ModelComparison {
	var out []ModelComparison
	for _, mc := range c.Models {
		for _, k := range kinds {
			if mc.Change == k {
				out = append(out, mc)
				break
			}
		}
	}
	return out
}

func classify(ref, cand models.Status) Change {
	switch {
	case ref == "":
		return ChangeAdded
	case cand == "":
		return ChangeRemoved
	case ref == cand:
		return ChangeUnchanged
	case cand == models.StatusPass:
		return ChangeImproved
	case ref == models.StatusPass:
		return ChangeRegressed
	}
	return ChangeChanged
}

// passRate is pass / non-skipped, 1.0 when nothing was considered.
func passRate(t *models.ResultTable) float64 {
	counts := t.Counts()
	considered := t.Len() - counts[models.StatusSkipped]
	if considered == 0 {
		return 1.0
	}
	return float64(counts[models.StatusPass]) / float64(considered)
}
