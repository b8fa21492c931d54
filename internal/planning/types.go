// Package planning forecasts material consumption for a production schedule.
// Everything here is a pure function of its inputs: no store access and no clocks.
package planning

import (
	"github.com/shopspring/decimal"
)

// Units of measure emitted by the requirement rules.
const (
	UOMUnits = "units"
	UOMGrams = "g"
)

// Category labels emitted by the requirement rules.
const (
	CategoryPackaging  = "Packaging"
	CategoryBotanicals = "Botanicals"
)

// ProductionTypeGin is the production type whose batches draw botanicals from the recipe table.
const ProductionTypeGin = "GIN"

// PackQuantity is the number of bottles filled at one size.
type PackQuantity struct {
	SizeML int   `json:"size_ml"`
	Units  int64 `json:"units"`
}

// ScheduledBatch is a planned production run. Batches are read-only inputs.
type ScheduledBatch struct {
	BatchID            string         `json:"batch_id,omitempty"`
	Product            string         `json:"product"`
	ProductionType     string         `json:"production_type"`
	ScheduledMonth     int            `json:"scheduled_month"`
	ScheduledMonthName string         `json:"scheduled_month_name"`
	Packs              []PackQuantity `json:"packs"`
}

// Status grades a requirement against the stock available before the batch.
type Status string

const (
	StatusCritical Status = "CRITICAL"
	StatusLow      Status = "LOW"
	StatusAdequate Status = "ADEQUATE"
	StatusGood     Status = "GOOD"
)

var statusRank = map[Status]int{StatusCritical: 0, StatusLow: 1, StatusAdequate: 2, StatusGood: 3}

// Worse reports whether s is more severe than o.
func (s Status) Worse(o Status) bool { return statusRank[s] < statusRank[o] }

// MaterialKey groups requirements for aggregation.
type MaterialKey struct {
	Name     string
	UOM      string
	Category string
}

// MaterialRequirement is one material needed by one batch. Available, Shortage,
// StockAfter and Status are only set once the requirement is evaluated against stock.
type MaterialRequirement struct {
	Material   string          `json:"material"`
	Category   string          `json:"category"`
	UOM        string          `json:"uom"`
	Needed     decimal.Decimal `json:"needed"`
	Available  decimal.Decimal `json:"available"`
	Shortage   decimal.Decimal `json:"shortage"`
	StockAfter decimal.Decimal `json:"stock_after"`
	Status     Status          `json:"status,omitempty"`
}

func (r MaterialRequirement) Key() MaterialKey {
	return MaterialKey{Name: r.Material, UOM: r.UOM, Category: r.Category}
}

// Snapshot is starting stock keyed by material name. Missing names count as zero.
type Snapshot map[string]decimal.Decimal

// TimelineEntry is one batch's draw on one material.
type TimelineEntry struct {
	BatchIndex  int             `json:"batch_index"`
	BatchID     string          `json:"batch_id,omitempty"`
	Product     string          `json:"product"`
	Month       string          `json:"month"`
	Consumed    decimal.Decimal `json:"consumed"`
	StockBefore decimal.Decimal `json:"stock_before"`
	StockAfter  decimal.Decimal `json:"stock_after"`
	RunsOut     bool            `json:"runs_out"`
}

// StockTimeline is the projected balance of one material across the schedule.
type StockTimeline struct {
	Material     string          `json:"material"`
	Category     string          `json:"category"`
	UOM          string          `json:"uom"`
	InitialStock decimal.Decimal `json:"initial_stock"`
	Entries      []TimelineEntry `json:"entries"`
}

// FirstRunOut returns the first entry that leaves the material at or below zero.
func (t StockTimeline) FirstRunOut() (TimelineEntry, bool) {
	for _, e := range t.Entries {
		if e.RunsOut {
			return e, true
		}
	}
	return TimelineEntry{}, false
}

// FinalStock is the balance after the last entry.
func (t StockTimeline) FinalStock() decimal.Decimal {
	if len(t.Entries) == 0 {
		return t.InitialStock
	}
	return t.Entries[len(t.Entries)-1].StockAfter
}

// BatchPlan is a scheduled batch with its requirements evaluated against the
// running balance at the point the batch runs.
type BatchPlan struct {
	Index        int                   `json:"index"`
	Batch        ScheduledBatch        `json:"batch"`
	Requirements []MaterialRequirement `json:"requirements"`
}

// WorstStatus is the most severe status among the batch's requirements.
func (p BatchPlan) WorstStatus() Status {
	worst := StatusGood
	for _, r := range p.Requirements {
		if r.Status.Worse(worst) {
			worst = r.Status
		}
	}
	return worst
}

// Projection is the result of walking a schedule.
type Projection struct {
	Batches   []BatchPlan     `json:"batches"`
	Timelines []StockTimeline `json:"timelines"`
}

// PurchaseLine is an aggregated shortage for one material.
type PurchaseLine struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	UOM      string          `json:"uom"`
	Shortage decimal.Decimal `json:"total_shortage"`
}
