package validate

import (
	"math"
	"testing"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLossConverged(t *testing.T) {
	ref := []float64{2.0, 1.5, 1.2, 1.0, 0.9, 0.8, 0.7, 0.6, 0.55, 0.5, 0.45, 0.4}

	tests := []struct {
		name      string
		candidate []float64
		want      bool
	}{
		{"identical", ref, true},
		{"within tolerance", shift(ref, 0.09), true},
		{"beyond tolerance", shift(ref, 0.2), false},
		{"better than reference", shift(ref, -0.3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := LossConverged(ref, tt.candidate, DefaultLossWindow, DefaultLossTolerance)
			require.NoError(t, err)
			assert.Equal(t, tt.want, check.Converged)
			assert.Equal(t, DefaultLossWindow, check.Window)
			assert.Equal(t, DefaultLossTolerance, check.Tolerance)
		})
	}
}

func TestLossConverged_ShortHistory(t *testing.T) {
	check, err := LossConverged([]float64{1, 2, 3}, []float64{1, 2, 3.2}, DefaultLossWindow, DefaultLossTolerance)
	require.NoError(t, err)
	assert.Equal(t, 3, check.Window)
	assert.InDelta(t, 2.0, check.ReferenceMean, 1e-12)
	assert.InDelta(t, 2.0666, check.CandidateMean, 1e-3)
	assert.True(t, check.Converged)
}

func TestLossConverged_ZeroTolerance(t *testing.T) {
	ref := []float64{1, 1, 1}

	check, err := LossConverged(ref, []float64{1.05, 1.05, 1.05}, DefaultLossWindow, 0)
	require.NoError(t, err)
	assert.False(t, check.Converged)
	assert.Zero(t, check.Tolerance)

	check, err = LossConverged(ref, ref, DefaultLossWindow, 0)
	require.NoError(t, err)
	assert.True(t, check.Converged)
}

func TestLossConverged_Errors(t *testing.T) {
	tests := []struct {
		name     string
		ref, got  []float64
		window    int
		tolerance float64
		wantErr   string
	}{
		{"length mismatch", []float64{1, 2}, []float64{1}, 10, 0.1, "differ in length"},
		{"empty", nil, nil, 10, 0.1, "empty"},
		{"nan", []float64{1, 2}, []float64{1, math.NaN()}, 10, 0.1, "candidate: invalid input: epoch 1"},
		{"zero window", []float64{1, 2}, []float64{1, 2}, 0, 0.1, "window must be positive"},
		{"negative window", []float64{1, 2}, []float64{1, 2}, -3, 0.1, "window must be positive"},
		{"negative tolerance", []float64{1, 2}, []float64{1, 2}, 10, -0.1, "tolerance must be"},
		{"nan tolerance", []float64{1, 2}, []float64{1, 2}, 10, math.NaN(), "tolerance must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LossConverged(tt.ref, tt.got, tt.window, tt.tolerance)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLossRecord(t *testing.T) {
	rec := LossRecord("bert", LossCheck{CandidateMean: 0.7, ReferenceMean: 0.5, Tolerance: 0.1})
	assert.Equal(t, models.StatusFailAccuracy, rec.Status)
	assert.Equal(t, models.ModeTraining, rec.Mode)
	assert.Contains(t, rec.Diagnostic, "exceeds reference")

	rec = LossRecord("bert", LossCheck{CandidateMean: 0.5, ReferenceMean: 0.5, Tolerance: 0.1, Converged: true})
	assert.Equal(t, models.StatusPass, rec.Status)
	require.NotNil(t, rec.Metric)
	assert.Equal(t, 0.5, *rec.Metric)
}

func shift(values []float64, by float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v + by
	}
	return out
}
