package planning

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const samplePlan = `{
  "production_plans": [
    {
      "product": "Rainforest Gin",
      "production_type": "GIN",
      "production_schedule": [
        {"scheduled_month": 3, "scheduled_month_name": "Mar", "bottles_700ml": 601},
        {"scheduled_month": 1, "scheduled_month_name": "Jan", "bottles_700ml": 0, "bottles_200ml": 120}
      ]
    },
    {
      "production_schedule": [
        {"product": "Spiced Rum", "production_type": "RUM", "scheduled_month": 2,
         "scheduled_month_name": "Feb", "bottles_1000ml": 24}
      ]
    }
  ]
}`

func TestParsePlan(t *testing.T) {
	batches, err := ParsePlan(strings.NewReader(samplePlan))
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, "Rainforest Gin", batches[0].Product)
	assert.Equal(t, "GIN", batches[0].ProductionType)
	assert.Equal(t, []PackQuantity{{SizeML: 700, Units: 601}}, batches[0].Packs)
	assert.Equal(t, []PackQuantity{{SizeML: 200, Units: 120}}, batches[1].Packs)
	assert.Equal(t, "Spiced Rum", batches[2].Product)
	assert.Equal(t, "RUM", batches[2].ProductionType)

	sorted := SortSchedule(batches)
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, []string{
		sorted[0].ScheduledMonthName, sorted[1].ScheduledMonthName, sorted[2].ScheduledMonthName,
	})
}

func TestParsePlan_Rejects(t *testing.T) {
	_, err := ParsePlan(strings.NewReader(`{"production_plans":[{"production_schedule":[{"bottles_700ml":5}]}]}`))
	assert.ErrorContains(t, err, "product is required")

	_, err = ParsePlan(strings.NewReader(`{"production_plans":[{"product":"X","production_schedule":[{"bottles_700ml":-1}]}]}`))
	assert.ErrorContains(t, err, "must not be negative")

	_, err = ParsePlan(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestLoadSnapshotAndRecipes(t *testing.T) {
	dir := t.TempDir()
	snapPath := filepath.Join(dir, "stock.json")
	require.NoError(t, os.WriteFile(snapPath, []byte(`{"Bottle 700ml": 500, "Juniper Berries": "1250.5"}`), 0o600))

	snap, err := LoadSnapshot(snapPath)
	require.NoError(t, err)
	assert.True(t, d(500).Equal(snap["Bottle 700ml"]))
	assert.Equal(t, "1250.5", snap["Juniper Berries"].String())

	recipePath := filepath.Join(dir, "recipes.json")
	require.NoError(t, os.WriteFile(recipePath, []byte(`{"House Gin":[{"name":"Juniper Berries","weight_g":5000}]}`), 0o600))
	table, err := LoadRecipes(recipePath)
	require.NoError(t, err)
	require.Len(t, table["House Gin"], 1)

	require.NoError(t, os.WriteFile(recipePath, []byte(`{"House Gin":[{"name":"Juniper Berries","weight_g":0}]}`), 0o600))
	_, err = LoadRecipes(recipePath)
	assert.ErrorContains(t, err, "positive weight")
}

func TestWritePurchaseCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePurchaseCSV(&buf, []PurchaseLine{
		{Name: "Label 700ml - Merchant Mae Gin", Category: CategoryPackaging, UOM: UOMUnits, Shortage: d(40)},
		{Name: "Orris Root, powdered", Category: CategoryBotanicals, UOM: UOMGrams, Shortage: d(12)},
	}))
	assert.Equal(t,
		"Item Name,Category,Shortage,UOM\n"+
			"Label 700ml - Merchant Mae Gin,Packaging,40,units\n"+
			"\"Orris Root, powdered\",Botanicals,12,g\n",
		buf.String())
}

func TestWritePurchaseXLSX(t *testing.T) {
	lines := []PurchaseLine{
		{Name: "Juniper Berries", Category: CategoryBotanicals, UOM: UOMGrams, Shortage: d(6400)},
		{Name: "Bottle 700ml", Category: CategoryPackaging, UOM: UOMUnits, Shortage: d(100)},
	}
	proj := NewProjector(nil).Project([]ScheduledBatch{bottles700("A", "Jan", 1, 6)}, nil)

	var buf bytes.Buffer
	require.NoError(t, WritePurchaseXLSX(&buf, lines, proj.Timelines))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Purchasing", "Botanicals", "Timelines"}, f.GetSheetList())

	rows, err := f.GetRows("Purchasing")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Item Name", "Category", "Shortage", "UOM"}, rows[0])
	assert.Equal(t, "Juniper Berries", rows[1][0])

	bot, err := f.GetRows("Botanicals")
	require.NoError(t, err)
	assert.Len(t, bot, 2)

	tl, err := f.GetRows("Timelines")
	require.NoError(t, err)
	assert.Len(t, tl, 1+len(proj.Timelines))
}
