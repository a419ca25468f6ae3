package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benchgate/benchgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDecodeArtifact(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		wantRows int
		wantErr  string
	}{
		{
			name:     "canonical columns",
			csv:      "model,status,metric,diagnostic\nresnet50,pass,1.31,\nbert,fail_accuracy,,tolerance exceeded\n",
			wantRows: 2,
		},
		{
			name:     "reordered columns and extra column",
			csv:      "status,model,host,metric\npass,vit,worker-3,0.98\n",
			wantRows: 1,
		},
		{
			name:     "header only",
			csv:      "model,status,metric,diagnostic\n",
			wantRows: 0,
		},
		{
			name:    "empty file",
			csv:     "",
			wantErr: "no header row",
		},
		{
			name:    "missing status column",
			csv:     "model,metric\nm1,1.0\n",
			wantErr: `missing "status" column`,
		},
		{
			name:    "unknown status",
			csv:     "model,status\nm1,passed\n",
			wantErr: "row 2: invalid input: unknown status",
		},
		{
			name:    "bad metric",
			csv:     "model,status,metric\nm1,pass,fast\n",
			wantErr: `metric "fast" is not a number`,
		},
		{
			name:    "nan metric on a passing row",
			csv:     "model,status,metric\nm1,pass,NaN\n",
			wantErr: `passing model "m1" has non-finite metric "NaN"`,
		},
		{
			name:    "infinite metric on a passing row",
			csv:     "model,status,metric\nm1,pass,+Inf\n",
			wantErr: "non-finite metric",
		},
		{
			name:    "empty model",
			csv:     "model,status\n,pass\n",
			wantErr: "empty model identifier",
		},
		{
			name:    "mismatched column count",
			csv:     "model,status\nm1,pass\nm2\n",
			wantErr: "wrong number of fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := DecodeArtifact(strings.NewReader(tt.csv), "test.csv", models.ModeAccuracy)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, recs, tt.wantRows)
		})
	}
}

func TestDecodeArtifact_Fields(t *testing.T) {
	csv := "model,status,metric,diagnostic\n" +
		"resnet50,pass,1.31,\n" +
		"bert,fail_accuracy,,\"tolerance exceeded, rmse=0.2\"\n" +
		"gpt2,timeout,nan,killed after 1800s\n"

	recs, err := DecodeArtifact(strings.NewReader(csv), "x.csv", models.ModePerformance)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "resnet50", recs[0].Model)
	assert.Equal(t, models.ModePerformance, recs[0].Mode)
	require.NotNil(t, recs[0].Metric)
	assert.InDelta(t, 1.31, *recs[0].Metric, 1e-9)

	assert.Equal(t, models.StatusFailAccuracy, recs[1].Status)
	assert.Nil(t, recs[1].Metric)
	assert.Equal(t, "tolerance exceeded, rmse=0.2", recs[1].Diagnostic)

	assert.Nil(t, recs[2].Metric, "NaN metrics on failed rows are treated as absent")
}

func TestDecodeArtifact_ModeColumnOverrides(t *testing.T) {
	csv := "model,status,mode\nm1,pass,training\nm2,pass,\n"
	recs, err := DecodeArtifact(strings.NewReader(csv), "x.csv", models.ModeAccuracy)
	require.NoError(t, err)
	assert.Equal(t, models.ModeTraining, recs[0].Mode)
	assert.Equal(t, models.ModeAccuracy, recs[1].Mode)
}

func sampleTable() *models.ResultTable {
	tbl := models.NewResultTable(models.ModePerformance)
	tbl.Set(models.ResultRecord{Model: "resnet50", Mode: models.ModePerformance, Status: models.StatusPass, Metric: models.Float(1.25)})
	tbl.Set(models.ResultRecord{Model: "bert", Mode: models.ModePerformance, Status: models.StatusFailToRun, Diagnostic: "no result emitted"})
	tbl.Set(models.ResultRecord{Model: "t5", Mode: models.ModePerformance, Status: models.StatusSkipped, Diagnostic: "needs 80GB, got 40GB"})
	return tbl
}

func TestEncodeArtifact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeArtifact(&buf, sampleTable()))
	want := "model,status,metric,diagnostic\n" +
		"resnet50,pass,1.25,\n" +
		"bert,fail_to_run,,no result emitted\n" +
		"t5,skipped,,\"needs 80GB, got 40GB\"\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReadArtifact_Compressed(t *testing.T) {
	for _, name := range []string{"p0.csv", "p0.csv.gz", "p0.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteArtifact(path, sampleTable()))

			recs, err := ReadArtifact(path, models.ModePerformance)
			require.NoError(t, err)
			assert.Equal(t, sampleTable().Records(), recs)
		})
	}
}

func TestReadArtifact_MissingFile(t *testing.T) {
	_, err := ReadArtifact(filepath.Join(t.TempDir(), "nope.csv"), models.ModeAccuracy)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
