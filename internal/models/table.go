package models

import (
	"encoding/json"
	"fmt"
)

// ResultTable maps model identifiers to records for one (partition, run mode)
// pair. Rows keep insertion order, which the collector arranges to be suite
// order.
type ResultTable struct {
	Mode  RunMode
	order []string
	rows  map[string]ResultRecord
}

// NewResultTable returns an empty table for the given mode.
func NewResultTable(mode RunMode) *ResultTable {
	return &ResultTable{
		Mode: mode,
		rows: make(map[string]ResultRecord),
	}
}

// Set inserts or replaces the row for rec.Model. A replaced row keeps its
// original position.
func (t *ResultTable) Set(rec ResultRecord) {
	if _, ok := t.rows[rec.Model]; !ok {
		t.order = append(t.order, rec.Model)
	}
	t.rows[rec.Model] = rec
}

// Get returns the row for model.
func (t *ResultTable) Get(model string) (ResultRecord, bool) {
	rec, ok := t.rows[model]
	return rec, ok
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	return len(t.order)
}

// Models returns the identifiers in row order.
func (t *ResultTable) Models() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Records returns the rows in order.
func (t *ResultTable) Records() []ResultRecord {
	out := make([]ResultRecord, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

// Counts tallies rows per status.
func (t *ResultTable) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, rec := range t.rows {
		counts[rec.Status]++
	}
	return counts
}

// MarshalJSON encodes the table as its mode plus the ordered row list.
func (t *ResultTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mode RunMode        `json:"mode"`
		Rows []ResultRecord `json:"rows"`
	}{
		Mode: t.Mode,
		Rows: t.Records(),
	})
}

// MergeTables combines per-partition tables into one. Rows named in order
// come first, in that order; anything else follows in the order it appears
// across tables. Partitions are disjoint, so a model present in two tables is
// an input-contract violation, as is mixing run modes.
func MergeTables(order []string, tables ...*ResultTable) (*ResultTable, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables to merge", ErrInvalidInput)
	}

	mode := tables[0].Mode
	all := make(map[string]ResultRecord)
	var arrival []string
	for i, t := range tables {
		if t.Mode != mode {
			return nil, fmt.Errorf("%w: table %d has mode %q, expected %q", ErrInvalidInput, i, t.Mode, mode)
		}
		for _, rec := range t.Records() {
			if _, dup := all[rec.Model]; dup {
				return nil, fmt.Errorf("%w: model %q appears in more than one partition", ErrInvalidInput, rec.Model)
			}
			all[rec.Model] = rec
			arrival = append(arrival, rec.Model)
		}
	}

	merged := NewResultTable(mode)
	for _, id := range order {
		if rec, ok := all[id]; ok {
			merged.Set(rec)
		}
	}
	for _, id := range arrival {
		if _, placed := merged.Get(id); !placed {
			merged.Set(all[id])
		}
	}
	return merged, nil
}
