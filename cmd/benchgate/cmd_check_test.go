package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommand_Valid(t *testing.T) {
	dir := projectDir(t, map[string]string{
		".benchgate.yaml": `
suites:
  timm:
    models_file: lists/timm.txt
    baselines:
      accuracy: lists/timm_pass.txt
`,
		"lists/timm.txt":      "resnet50\nvit\n",
		"lists/timm_pass.txt": "resnet50\n",
	})
	nested := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(nested, 0o755))
	t.Chdir(nested)

	out, err := runCommand(t, newCheckCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (1 suite(s))")
}

func TestCheckCommand_SchemaViolation(t *testing.T) {
	projectDir(t, map[string]string{
		"custom.yaml": `
suites:
  timm:
    models: [a]
    min_coverage: 2
    colour: blue
`,
	})

	out, err := runCommand(t, newCheckCommand(), "custom.yaml", "--format", "json")
	require.ErrorIs(t, err, models.ErrInvalidInput)

	var report checkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.Problems)
	assert.Equal(t, "custom.yaml", report.Path)
}

func TestCheckCommand_SuiteProblems(t *testing.T) {
	projectDir(t, map[string]string{
		".benchgate.yaml": `
suites:
  broken:
    models_file: missing.txt
  dup:
    models: [a]
    models_file: dup.txt
  excluded:
    models: [a]
    exclude: [a]
  nobaseline:
    models: [a]
    baselines:
      accuracy: gone.txt
`,
		"dup.txt": "a\n",
	})

	out, err := runCommand(t, newCheckCommand())
	require.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Contains(t, out, "has 4 problem(s)")
	assert.Contains(t, out, "suite broken")
	assert.Contains(t, out, "suite dup")
	assert.Contains(t, out, "every model is excluded")
	assert.Contains(t, out, "accuracy baseline")
}

func TestCheckCommand_NoConfig(t *testing.T) {
	projectDir(t, nil)

	_, err := runCommand(t, newCheckCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .benchgate.yaml found")
}
