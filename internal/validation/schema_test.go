package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `results_dir: out/
cache:
  dir: .cache/benchgate
defaults:
  total_partitions: 2
  format: github-comment
suites:
  torchbench:
    models_file: suites/torchbench.txt
    exclude: [detectron2_maskrcnn]
    total_partitions: 3
    modes: [accuracy, performance]
    baselines:
      accuracy: baselines/torchbench_accuracy.csv
    min_coverage: 0.9
    quirks: [hf_Reformer]
  huggingface:
    models: [bert, t5]
    metric_floor: 0.95
`

func TestValidateConfigBytes_Valid(t *testing.T) {
	errs := ValidateConfigBytes([]byte(validConfigYAML))
	require.Empty(t, errs, "valid config should have no errors")
}

func TestValidateConfigBytes_Empty(t *testing.T) {
	assert.Empty(t, ValidateConfigBytes(nil))
	assert.Empty(t, ValidateConfigBytes([]byte("# nothing yet\n")))
}

func TestValidateConfigBytes_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantLoc string
	}{
		{
			name:    "unknown top-level key",
			yaml:    "runner: nightly\n",
			wantLoc: "/",
		},
		{
			name:    "coverage above one",
			yaml:    "suites:\n  s:\n    models: [a]\n    min_coverage: 1.5\n",
			wantLoc: "/suites/s/min_coverage",
		},
		{
			name:    "zero partitions",
			yaml:    "suites:\n  s:\n    models: [a]\n    total_partitions: 0\n",
			wantLoc: "/suites/s/total_partitions",
		},
		{
			name:    "unknown mode",
			yaml:    "suites:\n  s:\n    models: [a]\n    modes: [accuracy, speed]\n",
			wantLoc: "/suites/s/modes/1",
		},
		{
			name:    "baseline for unknown mode",
			yaml:    "suites:\n  s:\n    models: [a]\n    baselines:\n      speed: x.csv\n",
			wantLoc: "/suites/s/baselines",
		},
		{
			name:    "suite without models",
			yaml:    "suites:\n  s:\n    modes: [accuracy]\n",
			wantLoc: "/suites/s",
		},
		{
			name:    "duplicate model",
			yaml:    "suites:\n  s:\n    models: [a, a]\n",
			wantLoc: "/suites/s/models",
		},
		{
			name:    "bad format",
			yaml:    "defaults:\n  format: pdf\n",
			wantLoc: "/defaults/format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateConfigBytes([]byte(tt.yaml))
			require.NotEmpty(t, errs)
			found := false
			for _, e := range errs {
				if strings.HasPrefix(e, tt.wantLoc) {
					found = true
				}
			}
			assert.True(t, found, "expected an error at %s, got %v", tt.wantLoc, errs)
		})
	}
}

func TestValidateConfigBytes_BadYAML(t *testing.T) {
	errs := ValidateConfigBytes([]byte("suites: [unclosed\n"))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "YAML parse error")
}

func TestValidateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".benchgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfigYAML), 0o644))

	errs, err := ValidateConfigFile(path)
	require.NoError(t, err)
	assert.Empty(t, errs)

	_, err = ValidateConfigFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvertToJSONCompatible(t *testing.T) {
	in := map[any]any{1: []any{map[any]any{"k": "v"}}}
	out := convertToJSONCompatible(in)
	assert.Equal(t, map[string]any{"1": []any{map[string]any{"k": "v"}}}, out)
}
