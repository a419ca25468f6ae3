package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// runCommand executes cmd with args and returns what it wrote to stdout.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// clearEnv keeps the caller's CI environment from leaking into flag defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BENCHGATE_TOTAL_PARTITIONS",
		"BENCHGATE_PARTITION_ID",
		"BENCHGATE_EXCLUDE",
		"BENCHGATE_DEVICE",
		"GITHUB_OUTPUT",
	} {
		t.Setenv(k, "")
	}
}

// projectDir creates a temp project, makes it the working directory and
// writes the given files into it.
func projectDir(t *testing.T, files map[string]string) string {
	t.Helper()
	clearEnv(t)
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}
