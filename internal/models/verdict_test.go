package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerdict_Helpers(t *testing.T) {
	v := &Verdict{
		Overall:  OutcomeFail,
		Failures: []FailureClass{FailureCoverage},
		Rows: []VerdictRow{
			{Model: "m1", Recorded: StatusPass, Effective: StatusPass},
			{Model: "m2", Recorded: StatusPass, Effective: StatusFailAccuracy},
			{Model: "m3", Recorded: StatusSkipped, Effective: StatusSkipped},
		},
	}

	assert.False(t, v.Passed())
	assert.True(t, v.HasFailure(FailureCoverage))
	assert.False(t, v.HasFailure(FailureRegression))

	counts := v.EffectiveCounts()
	assert.Equal(t, 1, counts[StatusPass])
	assert.Equal(t, 1, counts[StatusFailAccuracy])
	assert.Equal(t, 1, counts[StatusSkipped])
}
