// Package dataset reads and writes the tabular artifacts exchanged between
// the runner and the validator, plus plain model lists.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/benchgate/benchgate/internal/models"
)

// Artifact column names. The on-disk header must contain at least
// ColumnModel and ColumnStatus; the rest default to empty.
const (
	ColumnModel      = "model"
	ColumnStatus     = "status"
	ColumnMetric     = "metric"
	ColumnDiagnostic = "diagnostic"
	// ColumnMode is optional. When present and non-empty it overrides the
	// mode the file was opened with, so a mislabelled row can be caught.
	ColumnMode = "mode"
)

// Columns is the header written by WriteArtifact.
var Columns = []string{ColumnModel, ColumnStatus, ColumnMetric, ColumnDiagnostic}

// Row represents a single CSV row with column name to value mapping.
type Row map[string]string

// readRows parses CSV from r. The first row is treated as headers.
func readRows(r io.Reader, name string) ([]string, []Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("csv: parse %s: %w", name, err)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("csv: %s is empty (no header row)", name)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	rows := make([]Row, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) != len(headers) {
			return nil, nil, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(record), len(headers))
		}
		row := make(Row, len(headers))
		for j, h := range headers {
			row[h] = record[j]
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

// DecodeArtifact parses an artifact stream into records in file order.
// name is used in error messages only.
func DecodeArtifact(r io.Reader, name string, mode models.RunMode) ([]models.ResultRecord, error) {
	headers, rows, err := readRows(r, name)
	if err != nil {
		return nil, err
	}
	for _, required := range []string{ColumnModel, ColumnStatus} {
		if !contains(headers, required) {
			return nil, fmt.Errorf("%w: %s: missing %q column (have %s)", models.ErrInvalidInput, name, required, strings.Join(headers, ","))
		}
	}

	records := make([]models.ResultRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := decodeRow(row, mode)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", name, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRow(row Row, mode models.RunMode) (models.ResultRecord, error) {
	rec := models.ResultRecord{
		Model:      strings.TrimSpace(row[ColumnModel]),
		Mode:       mode,
		Diagnostic: row[ColumnDiagnostic],
	}
	if rec.Model == "" {
		return rec, fmt.Errorf("%w: empty model identifier", models.ErrInvalidInput)
	}

	status, err := models.ParseStatus(row[ColumnStatus])
	if err != nil {
		return rec, err
	}
	rec.Status = status

	if m := strings.TrimSpace(row[ColumnMode]); m != "" {
		parsed, err := models.ParseRunMode(m)
		if err != nil {
			return rec, err
		}
		rec.Mode = parsed
	}

	if cell := strings.TrimSpace(row[ColumnMetric]); cell != "" {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return rec, fmt.Errorf("%w: metric %q is not a number", models.ErrInvalidInput, cell)
		}
		switch {
		case !math.IsNaN(v) && !math.IsInf(v, 0):
			rec.Metric = &v
		case rec.Status == models.StatusPass:
			return rec, fmt.Errorf("%w: passing model %q has non-finite metric %q", models.ErrInvalidInput, rec.Model, cell)
		default:
			slog.Debug("Ignoring non-finite metric", "model", rec.Model, "status", rec.Status, "metric", cell)
		}
	}
	return rec, nil
}

// ReadArtifact loads an artifact file, decompressing .gz/.zst transparently.
func ReadArtifact(path string, mode models.RunMode) ([]models.ResultRecord, error) {
	rc, err := openFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: open %s: %w", path, err)
	}
	defer rc.Close() //nolint:errcheck

	return DecodeArtifact(rc, path, mode)
}

// EncodeArtifact writes the table in the canonical column order.
func EncodeArtifact(w io.Writer, table *models.ResultTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, rec := range table.Records() {
		metric := ""
		if rec.Metric != nil {
			metric = strconv.FormatFloat(*rec.Metric, 'g', -1, 64)
		}
		if err := cw.Write([]string{rec.Model, string(rec.Status), metric, rec.Diagnostic}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteArtifact writes the table to path, compressing by suffix.
func WriteArtifact(path string, table *models.ResultTable) (err error) {
	wc, err := createFile(path)
	if err != nil {
		return fmt.Errorf("artifact: create %s: %w", path, err)
	}
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("artifact: close %s: %w", path, cerr)
		}
	}()

	if err := EncodeArtifact(wc, table); err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
