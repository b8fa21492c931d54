package planning

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AggregateShortages sums each batch requirement's shortage (needed minus the
// stock before that batch, floored at zero) per material, unit and category.
// Lines with no shortage are dropped; the rest are ordered largest first, then by name.
func AggregateShortages(plans []BatchPlan) []PurchaseLine {
	acc := newShortageAccumulator()
	for _, p := range plans {
		for _, r := range p.Requirements {
			acc.add(r.Key(), Shortage(r.Needed, r.Available))
		}
	}
	return acc.lines()
}

// AggregateShortagesForMonth restricts AggregateShortages to batches scheduled in monthName.
func AggregateShortagesForMonth(plans []BatchPlan, monthName string) []PurchaseLine {
	var month []BatchPlan
	for _, p := range plans {
		if p.Batch.ScheduledMonthName == monthName {
			month = append(month, p)
		}
	}
	return AggregateShortages(month)
}

// AggregateTimelineShortages computes the same report from timelines alone.
func AggregateTimelineShortages(timelines []StockTimeline) []PurchaseLine {
	acc := newShortageAccumulator()
	for _, t := range timelines {
		k := MaterialKey{Name: t.Material, UOM: t.UOM, Category: t.Category}
		for _, e := range t.Entries {
			acc.add(k, Shortage(e.Consumed, e.StockBefore))
		}
	}
	return acc.lines()
}

// FilterCategory keeps the lines of one category, e.g. a botanicals-only order.
// An empty category keeps everything.
func FilterCategory(lines []PurchaseLine, category string) []PurchaseLine {
	if category == "" {
		return lines
	}
	out := make([]PurchaseLine, 0, len(lines))
	for _, l := range lines {
		if l.Category == category {
			out = append(out, l)
		}
	}
	return out
}

// TotalShortage adds up every line.
func TotalShortage(lines []PurchaseLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Shortage)
	}
	return total
}

// MonthStats is the per-month purchasing summary.
type MonthStats struct {
	Month    string          `json:"month"`
	Count    int             `json:"count"`
	Shortage decimal.Decimal `json:"shortage"`
}

// MonthlyStats summarizes shortages per month in schedule order.
func MonthlyStats(plans []BatchPlan) []MonthStats {
	var months []string
	seen := make(map[string]bool)
	for _, p := range plans {
		m := p.Batch.ScheduledMonthName
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	out := make([]MonthStats, 0, len(months))
	for _, m := range months {
		lines := AggregateShortagesForMonth(plans, m)
		out = append(out, MonthStats{Month: m, Count: len(lines), Shortage: TotalShortage(lines)})
	}
	return out
}

type shortageAccumulator struct {
	order []MaterialKey
	sums  map[MaterialKey]decimal.Decimal
}

func newShortageAccumulator() *shortageAccumulator {
	return &shortageAccumulator{sums: make(map[MaterialKey]decimal.Decimal)}
}

func (a *shortageAccumulator) add(k MaterialKey, s decimal.Decimal) {
	if !s.IsPositive() {
		return
	}
	prev, ok := a.sums[k]
	if !ok {
		a.order = append(a.order, k)
	}
	a.sums[k] = prev.Add(s)
}

func (a *shortageAccumulator) lines() []PurchaseLine {
	out := make([]PurchaseLine, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, PurchaseLine{Name: k.Name, Category: k.Category, UOM: k.UOM, Shortage: a.sums[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Shortage.Cmp(out[j].Shortage); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
