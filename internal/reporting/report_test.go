package reporting

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		verdict  *models.Verdict
		wantCode int
	}{
		{"nil verdict", nil, ExitError},
		{"pass", &models.Verdict{Overall: models.OutcomePass}, ExitPass},
		{"regression", &models.Verdict{Overall: models.OutcomeFail, Failures: []models.FailureClass{models.FailureRegression}}, ExitRegression},
		{"coverage", &models.Verdict{Overall: models.OutcomeFail, Failures: []models.FailureClass{models.FailureCoverage}}, ExitCoverage},
		{
			"regression takes precedence",
			&models.Verdict{Overall: models.OutcomeFail, Failures: []models.FailureClass{models.FailureCoverage, models.FailureRegression}},
			ExitRegression,
		},
		{"fail without class", &models.Verdict{Overall: models.OutcomeFail}, ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, ExitCode(tt.verdict))
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, f := range OutputFormats {
		got, err := ParseOutputFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseOutputFormat("")
	require.NoError(t, err)
	assert.Equal(t, OutputText, got)

	_, err = ParseOutputFormat("yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	assert.Contains(t, err.Error(), "text, json, github-comment, html")
}

func TestWrite(t *testing.T) {
	for _, f := range OutputFormats {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			code, err := Write(&buf, newTestVerdict(), f, TextOptions{})
			require.NoError(t, err)
			assert.Equal(t, ExitRegression, code)
			assert.NotEmpty(t, buf.String())
		})
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, newTestVerdict(), OutputJSON, TextOptions{})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "fail", decoded["overall"])
	assert.Equal(t, []any{"regression"}, decoded["failures"])
	regs := decoded["regressions"].([]any)
	require.Len(t, regs, 1)
	assert.Equal(t, "bert", regs[0].(map[string]any)["model"])
}

func TestWrite_UnknownFormat(t *testing.T) {
	code, err := Write(&bytes.Buffer{}, newTestVerdict(), OutputFormat("pdf"), TextOptions{})
	require.Error(t, err)
	assert.Equal(t, ExitError, code)
}
