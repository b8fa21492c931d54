package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planJSON = `{
  "production_plans": [{
    "product": "Rainforest Gin",
    "production_type": "GIN",
    "production_schedule": [
      {"batch_id": "DG-1", "scheduled_month": 3, "scheduled_month_name": "March", "bottles_700ml": 600},
      {"batch_id": "DG-2", "scheduled_month": 4, "scheduled_month_name": "April", "bottles_700ml": 60}
    ]
  }]
}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestRun_CSVForMonth(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	err := run(options{
		PlanFile:     writeFile(t, dir, "plan.json", planJSON),
		SnapshotFile: writeFile(t, dir, "stock.json", `{"Bottle 700ml": 500}`),
		Format:       "csv",
		Month:        "March",
		Category:     "Packaging",
		Output:       out,
	})
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	csv := string(b)
	assert.True(t, strings.HasPrefix(csv, "Item Name,Category,Shortage,UOM\n"))
	assert.Contains(t, csv, "Bottle 700ml,Packaging,100,units")
	assert.NotContains(t, csv, "Juniper")
}

func TestRun_TextAndJSON(t *testing.T) {
	dir := t.TempDir()
	plan := writeFile(t, dir, "plan.json", planJSON)

	for _, format := range []string{"text", "json"} {
		out := filepath.Join(dir, "out."+format)
		require.NoError(t, run(options{PlanFile: plan, Format: format, Output: out}))
		b, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(b), "Bottle 700ml", format)
	}
}

func TestRun_Rejects(t *testing.T) {
	dir := t.TempDir()
	plan := writeFile(t, dir, "plan.json", planJSON)

	assert.Error(t, run(options{Format: "text"}))
	assert.Error(t, run(options{PlanFile: plan, Format: "xlsx"}))
	assert.Error(t, run(options{PlanFile: plan, Format: "yaml", Output: filepath.Join(dir, "x")}))
	assert.Error(t, run(options{PlanFile: filepath.Join(dir, "missing.json"), Format: "text"}))
}
