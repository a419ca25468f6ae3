// Package collect turns the records emitted by workers into a complete,
// suite-ordered result table.
package collect

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/benchgate/benchgate/internal/models"
)

// MissingDiagnostic is the diagnostic attached to synthesized rows for models
// that never emitted a record.
const MissingDiagnostic = "no result emitted"

// DiagnosticKind classifies a collector side-channel message.
type DiagnosticKind string

const (
	// DiagnosticDuplicate: a second record arrived for the same model. The
	// last one wins. Signals a worker re-run.
	DiagnosticDuplicate DiagnosticKind = "duplicate"
	// DiagnosticMissing: an assigned model emitted nothing.
	DiagnosticMissing DiagnosticKind = "missing"
	// DiagnosticUnassigned: a record for a model outside this partition.
	DiagnosticUnassigned DiagnosticKind = "unassigned"
	// DiagnosticModeMismatch: a record for a different run mode.
	DiagnosticModeMismatch DiagnosticKind = "mode_mismatch"
)

// Diagnostic is one non-fatal anomaly seen while collecting.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Model   string         `json:"model"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Model, d.Message)
}

// Collector accumulates records for one (partition, run mode). Add is safe for
// concurrent use; records may arrive in any order.
type Collector struct {
	mode     models.RunMode
	assigned []string
	owned    map[string]struct{}

	mu      sync.Mutex
	latest  map[string]models.ResultRecord
	arrival []string
	diags   []Diagnostic
}

// New creates a collector. assigned is the partition's ordered model list; a
// nil assigned list accepts every model and keeps arrival order, but then
// missing rows cannot be detected.
func New(mode models.RunMode, assigned []string) *Collector {
	c := &Collector{
		mode:     mode,
		assigned: assigned,
		latest:   make(map[string]models.ResultRecord),
	}
	if assigned != nil {
		c.owned = make(map[string]struct{}, len(assigned))
		for _, id := range assigned {
			c.owned[id] = struct{}{}
		}
	}
	return c
}

// Add records rec. Out-of-mode and out-of-partition records are dropped with a
// diagnostic; duplicates replace the earlier record.
func (c *Collector) Add(rec models.ResultRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec.Mode == "" {
		rec.Mode = c.mode
	}
	if rec.Mode != c.mode {
		c.note(Diagnostic{
			Kind:    DiagnosticModeMismatch,
			Model:   rec.Model,
			Message: fmt.Sprintf("record has mode %q, collecting %q; dropped", rec.Mode, c.mode),
		})
		return
	}
	if c.owned != nil {
		if _, ok := c.owned[rec.Model]; !ok {
			c.note(Diagnostic{
				Kind:    DiagnosticUnassigned,
				Model:   rec.Model,
				Message: "model is not assigned to this partition; dropped",
			})
			return
		}
	}

	if prev, dup := c.latest[rec.Model]; dup {
		c.note(Diagnostic{
			Kind:    DiagnosticDuplicate,
			Model:   rec.Model,
			Message: fmt.Sprintf("replacing %s with %s (last record wins)", prev.Status, rec.Status),
		})
	} else {
		c.arrival = append(c.arrival, rec.Model)
	}
	c.latest[rec.Model] = rec
}

// AddAll adds records in slice order.
func (c *Collector) AddAll(recs []models.ResultRecord) {
	for _, r := range recs {
		c.Add(r)
	}
}

// note must be called with mu held.
func (c *Collector) note(d Diagnostic) {
	slog.Warn("Collector diagnostic", "kind", d.Kind, "model", d.Model, "message", d.Message)
	c.diags = append(c.diags, d)
}

// Table builds the result table. Every assigned model gets a row, in assigned
// order; models with no record become fail_to_run. The returned diagnostics
// include everything reported by Add plus one entry per missing model.
// Table may be called more than once; it does not consume the collector.
func (c *Collector) Table() (*models.ResultTable, []Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	diags := make([]Diagnostic, len(c.diags))
	copy(diags, c.diags)

	table := models.NewResultTable(c.mode)
	if c.assigned == nil {
		for _, id := range c.arrival {
			table.Set(c.latest[id])
		}
		return table, diags
	}

	for _, id := range c.assigned {
		if rec, ok := c.latest[id]; ok {
			table.Set(rec)
			continue
		}
		table.Set(models.ResultRecord{
			Model:      id,
			Mode:       c.mode,
			Status:     models.StatusFailToRun,
			Diagnostic: MissingDiagnostic,
		})
		diags = append(diags, Diagnostic{
			Kind:    DiagnosticMissing,
			Model:   id,
			Message: "assigned but " + MissingDiagnostic + "; recorded as fail_to_run",
		})
	}
	return table, diags
}

// Collect is the one-shot form of New + AddAll + Table.
func Collect(mode models.RunMode, assigned []string, records []models.ResultRecord) (*models.ResultTable, []Diagnostic) {
	c := New(mode, assigned)
	c.AddAll(records)
	return c.Table()
}

// CountByKind tallies diagnostics per kind.
func CountByKind(diags []Diagnostic) map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range diags {
		counts[d.Kind]++
	}
	return counts
}
