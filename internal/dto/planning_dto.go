package dto

import "distillery/internal/planning"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ScheduledBatchRequest struct {
	BatchID            string `json:"batch_id"             validate:"omitempty,max=80"`
	Product            string `json:"product"              validate:"required,max=120"`
	ProductionType     string `json:"production_type"      validate:"omitempty,max=40"`
	ScheduledMonth     int    `json:"scheduled_month"      validate:"min=0"`
	ScheduledMonthName string `json:"scheduled_month_name" validate:"max=40"`
	Bottles700ml       int64  `json:"bottles_700ml"        validate:"min=0"`
	Bottles200ml       int64  `json:"bottles_200ml"        validate:"min=0"`
	Bottles1000ml      int64  `json:"bottles_1000ml"       validate:"min=0"`
}

// ToBatch converts the wire shape into the planner's batch.
func (r ScheduledBatchRequest) ToBatch() planning.ScheduledBatch {
	b := planning.ScheduledBatch{
		BatchID:            r.BatchID,
		Product:            r.Product,
		ProductionType:     r.ProductionType,
		ScheduledMonth:     r.ScheduledMonth,
		ScheduledMonthName: r.ScheduledMonthName,
	}
	for _, p := range []planning.PackQuantity{
		{SizeML: 700, Units: r.Bottles700ml},
		{SizeML: 200, Units: r.Bottles200ml},
		{SizeML: 1000, Units: r.Bottles1000ml},
	} {
		if p.Units > 0 {
			b.Packs = append(b.Packs, p)
		}
	}
	return b
}

type RequirementsRequest struct {
	Batch ScheduledBatchRequest `json:"batch" validate:"required"`
}

type ScheduleRequest struct {
	Batches []ScheduledBatchRequest `json:"batches" validate:"required,min=1,max=1000,dive"`
	// Snapshot overrides the ledger's on-hand figures, keyed by material name.
	Snapshot planning.Snapshot `json:"snapshot"`
}

// ToBatches converts every request batch.
func (r ScheduleRequest) ToBatches() []planning.ScheduledBatch {
	out := make([]planning.ScheduledBatch, len(r.Batches))
	for i, b := range r.Batches {
		out[i] = b.ToBatch()
	}
	return out
}

type ShortagesRequest struct {
	ScheduleRequest
	Month    string `json:"month"    validate:"max=40"`
	Category string `json:"category" validate:"max=60"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RequirementsResponse struct {
	Requirements []planning.MaterialRequirement `json:"requirements"`
}

type ProjectionResponse struct {
	Batches   []planning.BatchPlan     `json:"batches"`
	Timelines []planning.StockTimeline `json:"timelines"`
	RunsOut   []string                 `json:"runs_out"`
	Months    []planning.MonthStats    `json:"months"`
}

type ShortagesResponse struct {
	Lines []planning.PurchaseLine `json:"lines"`
}

type ExportResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
