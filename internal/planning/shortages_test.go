package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plan(month string, reqs ...MaterialRequirement) BatchPlan {
	return BatchPlan{Batch: ScheduledBatch{ScheduledMonthName: month}, Requirements: reqs}
}

func need(name, category, uom string, needed, available int64) MaterialRequirement {
	return MaterialRequirement{Material: name, Category: category, UOM: uom, Needed: d(needed), Available: d(available)}
}

func TestAggregateShortages_SumsAndSorts(t *testing.T) {
	plans := []BatchPlan{
		plan("Jan",
			need("Bottle 700ml", CategoryPackaging, UOMUnits, 600, 500),
			need("Juniper Berries", CategoryBotanicals, UOMGrams, 6400, 0),
			need("Cork 700ml", CategoryPackaging, UOMUnits, 10, 50),
		),
		plan("Feb",
			need("Bottle 700ml", CategoryPackaging, UOMUnits, 300, 100),
		),
	}
	lines := AggregateShortages(plans)
	require.Len(t, lines, 2)
	assert.Equal(t, "Juniper Berries", lines[0].Name)
	assert.True(t, d(6400).Equal(lines[0].Shortage))
	assert.Equal(t, "Bottle 700ml", lines[1].Name)
	assert.True(t, d(300).Equal(lines[1].Shortage))
}

func TestAggregateShortages_KeyIncludesUnitAndCategory(t *testing.T) {
	lines := AggregateShortages([]BatchPlan{plan("Jan",
		need("Orange Peel", CategoryBotanicals, UOMGrams, 10, 0),
		need("Orange Peel", CategoryBotanicals, "kg", 1, 0),
	)})
	assert.Len(t, lines, 2)
}

func TestAggregateShortages_TiesByName(t *testing.T) {
	lines := AggregateShortages([]BatchPlan{plan("Jan",
		need("Cork 700ml", CategoryPackaging, UOMUnits, 5, 0),
		need("Bottle 700ml", CategoryPackaging, UOMUnits, 5, 0),
	)})
	require.Len(t, lines, 2)
	assert.Equal(t, "Bottle 700ml", lines[0].Name)
}

func TestAggregateShortagesForMonth(t *testing.T) {
	plans := []BatchPlan{
		plan("Jan", need("Bottle 700ml", CategoryPackaging, UOMUnits, 10, 0)),
		plan("Feb", need("Cap 200ml", CategoryPackaging, UOMUnits, 4, 1)),
	}
	feb := AggregateShortagesForMonth(plans, "Feb")
	require.Len(t, feb, 1)
	assert.Equal(t, "Cap 200ml", feb[0].Name)
	assert.True(t, d(3).Equal(feb[0].Shortage))
	assert.Empty(t, AggregateShortagesForMonth(plans, "Dec"))
}

func TestAggregateTimelineShortages_MatchesBatchView(t *testing.T) {
	proj := NewProjector(nil).Project([]ScheduledBatch{
		{Product: "Merchant Mae Gin", ProductionType: "GIN", ScheduledMonth: 1, ScheduledMonthName: "Jan",
			Packs: []PackQuantity{{SizeML: 700, Units: 600}}},
		{Product: "Merchant Mae Gin", ProductionType: "GIN", ScheduledMonth: 2, ScheduledMonthName: "Feb",
			Packs: []PackQuantity{{SizeML: 200, Units: 50}}},
	}, Snapshot{"Bottle 700ml": d(500), "Juniper Berries": d(7000)})

	assert.Equal(t, AggregateShortages(proj.Batches), AggregateTimelineShortages(proj.Timelines))
}

func TestFilterCategoryAndTotal(t *testing.T) {
	lines := []PurchaseLine{
		{Name: "Juniper Berries", Category: CategoryBotanicals, UOM: UOMGrams, Shortage: d(100)},
		{Name: "Bottle 700ml", Category: CategoryPackaging, UOM: UOMUnits, Shortage: d(5)},
	}
	bot := FilterCategory(lines, CategoryBotanicals)
	require.Len(t, bot, 1)
	assert.Equal(t, "Juniper Berries", bot[0].Name)
	assert.Len(t, FilterCategory(lines, ""), 2)
	assert.True(t, d(105).Equal(TotalShortage(lines)))
}

func TestMonthlyStats(t *testing.T) {
	stats := MonthlyStats([]BatchPlan{
		plan("Jan", need("A", CategoryPackaging, UOMUnits, 10, 0), need("B", CategoryPackaging, UOMUnits, 1, 5)),
		plan("Feb", need("A", CategoryPackaging, UOMUnits, 3, 0)),
		plan("Jan", need("C", CategoryPackaging, UOMUnits, 2, 0)),
	})
	require.Len(t, stats, 2)
	assert.Equal(t, "Jan", stats[0].Month)
	assert.Equal(t, 2, stats[0].Count)
	assert.True(t, d(12).Equal(stats[0].Shortage))
	assert.Equal(t, "Feb", stats[1].Month)
}
