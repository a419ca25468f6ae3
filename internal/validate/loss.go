package validate

import (
	"fmt"
	"math"

	"github.com/benchgate/benchgate/internal/models"
)

const (
	// DefaultLossWindow is how many trailing epochs are averaged.
	DefaultLossWindow = 10
	// DefaultLossTolerance is how far the candidate mean may exceed the
	// reference mean.
	DefaultLossTolerance = 0.1
)

// LossCheck is the outcome of comparing two training loss histories.
type LossCheck struct {
	Window        int     `json:"window"`
	ReferenceMean float64 `json:"reference_mean"`
	CandidateMean float64 `json:"candidate_mean"`
	Tolerance     float64 `json:"tolerance"`
	Converged     bool    `json:"converged"`
}

// LossConverged compares the trailing mean of candidate against reference.
// Both histories must have the same non-zero length and contain only finite
// values. window must be positive and tolerance non-negative; a tolerance of
// zero requires the candidate mean not to exceed the reference mean at all.
//
// The mean is taken over min(window, len) epochs, so histories shorter than
// the window are held to the same flat tolerance rather than a looser bound.
func LossConverged(reference, candidate []float64, window int, tolerance float64) (LossCheck, error) {
	if len(reference) != len(candidate) {
		return LossCheck{}, fmt.Errorf("%w: loss histories differ in length (%d reference, %d candidate)", models.ErrInvalidInput, len(reference), len(candidate))
	}
	if len(reference) == 0 {
		return LossCheck{}, fmt.Errorf("%w: loss histories are empty", models.ErrInvalidInput)
	}
	if window <= 0 {
		return LossCheck{}, fmt.Errorf("%w: window must be positive, got %d", models.ErrInvalidInput, window)
	}
	if tolerance < 0 || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		return LossCheck{}, fmt.Errorf("%w: tolerance must be a non-negative number, got %v", models.ErrInvalidInput, tolerance)
	}
	window = min(window, len(reference))

	refMean, err := tailMean(reference, window)
	if err != nil {
		return LossCheck{}, fmt.Errorf("reference: %w", err)
	}
	candMean, err := tailMean(candidate, window)
	if err != nil {
		return LossCheck{}, fmt.Errorf("candidate: %w", err)
	}

	return LossCheck{
		Window:        window,
		ReferenceMean: refMean,
		CandidateMean: candMean,
		Tolerance:     tolerance,
		Converged:     candMean <= refMean+tolerance,
	}, nil
}

func tailMean(values []float64, n int) (float64, error) {
	var sum float64
	for i, v := range values[len(values)-n:] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: epoch %d loss is not finite", models.ErrInvalidInput, len(values)-n+i)
		}
		sum += v
	}
	return sum / float64(n), nil
}

// LossRecord turns a convergence check into a training-mode result row.
func LossRecord(model string, check LossCheck) models.ResultRecord {
	rec := models.ResultRecord{
		Model:  model,
		Mode:   models.ModeTraining,
		Status: models.StatusPass,
		Metric: models.Float(check.CandidateMean),
	}
	if !check.Converged {
		rec.Status = models.StatusFailAccuracy
		rec.Diagnostic = fmt.Sprintf("loss %.4f exceeds reference %.4f + %.2g", check.CandidateMean, check.ReferenceMean, check.Tolerance)
	}
	return rec
}
