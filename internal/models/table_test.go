package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultTable_SetKeepsFirstPosition(t *testing.T) {
	tbl := NewResultTable(ModeAccuracy)
	tbl.Set(ResultRecord{Model: "m1", Status: StatusFailToRun})
	tbl.Set(ResultRecord{Model: "m2", Status: StatusPass})
	tbl.Set(ResultRecord{Model: "m1", Status: StatusPass})

	assert.Equal(t, []string{"m1", "m2"}, tbl.Models())
	rec, ok := tbl.Get("m1")
	require.True(t, ok)
	assert.Equal(t, StatusPass, rec.Status)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 2, tbl.Counts()[StatusPass])
}

func TestResultTable_ModelsIsACopy(t *testing.T) {
	tbl := NewResultTable(ModeAccuracy)
	tbl.Set(ResultRecord{Model: "m1"})
	ids := tbl.Models()
	ids[0] = "changed"
	assert.Equal(t, []string{"m1"}, tbl.Models())
}

func TestResultTable_MarshalJSON(t *testing.T) {
	tbl := NewResultTable(ModePerformance)
	tbl.Set(ResultRecord{Model: "m1", Mode: ModePerformance, Status: StatusPass, Metric: Float(1.5)})

	data, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"performance","rows":[{"model":"m1","mode":"performance","status":"pass","metric":1.5}]}`, string(data))
}

func TestMergeTables(t *testing.T) {
	p0 := NewResultTable(ModeAccuracy)
	p0.Set(ResultRecord{Model: "m1", Status: StatusPass})
	p0.Set(ResultRecord{Model: "m3", Status: StatusPass})
	p1 := NewResultTable(ModeAccuracy)
	p1.Set(ResultRecord{Model: "m2", Status: StatusTimeout})
	p1.Set(ResultRecord{Model: "extra", Status: StatusPass})

	merged, err := MergeTables([]string{"m1", "m2", "m3"}, p0, p1)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3", "extra"}, merged.Models())
	assert.Equal(t, ModeAccuracy, merged.Mode)
}

func TestMergeTables_Errors(t *testing.T) {
	_, err := MergeTables(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	a := NewResultTable(ModeAccuracy)
	a.Set(ResultRecord{Model: "m1"})
	b := NewResultTable(ModeAccuracy)
	b.Set(ResultRecord{Model: "m1"})
	_, err = MergeTables(nil, a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one partition")

	c := NewResultTable(ModePerformance)
	_, err = MergeTables(nil, a, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has mode")
}
