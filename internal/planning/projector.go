package planning

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Projector walks a production schedule against a starting stock snapshot.
type Projector struct {
	calc *Calculator
}

func NewProjector(calc *Calculator) *Projector {
	if calc == nil {
		calc = NewCalculator(nil)
	}
	return &Projector{calc: calc}
}

func (p *Projector) Calculator() *Calculator { return p.calc }

// SortSchedule returns a copy of batches ordered by scheduled month. Batches in
// the same month keep their input order.
func SortSchedule(batches []ScheduledBatch) []ScheduledBatch {
	sorted := make([]ScheduledBatch, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScheduledMonth < sorted[j].ScheduledMonth
	})
	return sorted
}

// Project simulates the schedule. Each material's running balance starts at its
// snapshot value (zero when absent) and every requirement subtracts from it
// unconditionally: negative stock is reported through RunsOut, never rejected.
// Timelines come back in the order their material was first required. The
// result depends only on the arguments; start is not modified.
func (p *Projector) Project(batches []ScheduledBatch, start Snapshot) Projection {
	sorted := SortSchedule(batches)

	running := make(map[string]decimal.Decimal)
	index := make(map[string]int)
	var timelines []StockTimeline
	plans := make([]BatchPlan, 0, len(sorted))

	for bi, b := range sorted {
		reqs := p.calc.Requirements(b)
		graded := make([]MaterialRequirement, 0, len(reqs))

		for _, r := range reqs {
			ti, seen := index[r.Material]
			if !seen {
				initial := start[r.Material]
				running[r.Material] = initial
				timelines = append(timelines, StockTimeline{
					Material:     r.Material,
					Category:     r.Category,
					UOM:          r.UOM,
					InitialStock: initial,
				})
				ti = len(timelines) - 1
				index[r.Material] = ti
			}

			before := running[r.Material]
			g := grade(r, before)
			running[r.Material] = g.StockAfter
			graded = append(graded, g)

			timelines[ti].Entries = append(timelines[ti].Entries, TimelineEntry{
				BatchIndex:  bi,
				BatchID:     b.BatchID,
				Product:     b.Product,
				Month:       b.ScheduledMonthName,
				Consumed:    r.Needed,
				StockBefore: before,
				StockAfter:  g.StockAfter,
				RunsOut:     !g.StockAfter.IsPositive(),
			})
		}
		plans = append(plans, BatchPlan{Index: bi, Batch: b, Requirements: graded})
	}

	return Projection{Batches: plans, Timelines: timelines}
}

// RunningOut lists the timelines that hit zero at some point in the schedule.
func (pr Projection) RunningOut() []StockTimeline {
	var out []StockTimeline
	for _, t := range pr.Timelines {
		if _, ok := t.FirstRunOut(); ok {
			out = append(out, t)
		}
	}
	return out
}

// Timeline looks up one material's timeline.
func (pr Projection) Timeline(material string) (StockTimeline, bool) {
	for _, t := range pr.Timelines {
		if t.Material == material {
			return t, true
		}
	}
	return StockTimeline{}, false
}
