package dataset

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benchgate/benchgate/internal/models"
)

// DecodeModelList reads one identifier per line. Blank lines and lines
// starting with '#' are ignored; trailing "# ..." comments are stripped.
func DecodeModelList(r io.Reader) ([]string, error) {
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// LoadModelList reads a model list file (suite or exclusion list).
func LoadModelList(path string) ([]string, error) {
	rc, err := openFile(path)
	if err != nil {
		return nil, fmt.Errorf("model list: open %s: %w", path, err)
	}
	defer rc.Close() //nolint:errcheck

	ids, err := DecodeModelList(rc)
	if err != nil {
		return nil, fmt.Errorf("model list: read %s: %w", path, err)
	}
	return ids, nil
}

// IsTabular reports whether path names a CSV artifact (possibly compressed)
// rather than a plain model list.
func IsTabular(path string) bool {
	return strings.EqualFold(filepath.Ext(TrimCompressionSuffix(path)), ".csv")
}

// LoadBaseline loads a baseline table for mode. From a CSV artifact only rows
// of mode are kept, so one file may hold baselines for several modes; any
// other file is an allow-list of expected-passing models, each treated as
// pass. An empty baseline is an input-contract violation.
func LoadBaseline(path string, mode models.RunMode) (*models.ResultTable, error) {
	table := models.NewResultTable(mode)

	if IsTabular(path) {
		records, err := ReadArtifact(path, mode)
		if err != nil {
			return nil, fmt.Errorf("baseline: %w", err)
		}
		skipped := 0
		for _, rec := range records {
			if rec.Mode != mode {
				skipped++
				continue
			}
			table.Set(rec)
		}
		if skipped > 0 {
			slog.Debug("Skipped baseline rows of another mode", "path", path, "mode", mode, "rows", skipped)
		}
	} else {
		ids, err := LoadModelList(path)
		if err != nil {
			return nil, fmt.Errorf("baseline: %w", err)
		}
		for _, id := range ids {
			table.Set(models.ResultRecord{Model: id, Mode: mode, Status: models.StatusPass})
		}
	}

	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: baseline %s has no %s rows", models.ErrInvalidInput, path, mode)
	}
	return table, nil
}

// LoadLossHistory reads one loss value per epoch, one per line. Comments and
// blank lines follow the model list rules.
func LoadLossHistory(path string) ([]float64, error) {
	lines, err := LoadModelList(path)
	if err != nil {
		return nil, fmt.Errorf("loss history: %w", err)
	}
	values := make([]float64, 0, len(lines))
	for i, line := range lines {
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: loss history %s: entry %d: %q is not a number", models.ErrInvalidInput, path, i+1, line)
		}
		values = append(values, v)
	}
	return values, nil
}
