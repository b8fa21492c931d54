package planning

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
)

// planFile mirrors the production plan export: one entry per product, each with
// its own month-by-month schedule.
type planFile struct {
	ProductionPlans []struct {
		Product        string      `json:"product"`
		ProductionType string      `json:"production_type"`
		Schedule       []planBatch `json:"production_schedule"`
	} `json:"production_plans"`
}

type planBatch struct {
	BatchID            string `json:"batch_id"`
	Product            string `json:"product"`
	ProductionType     string `json:"production_type"`
	Bottles700         int64  `json:"bottles_700ml"`
	Bottles200         int64  `json:"bottles_200ml"`
	Bottles1000        int64  `json:"bottles_1000ml"`
	ScheduledMonth     int    `json:"scheduled_month"`
	ScheduledMonthName string `json:"scheduled_month_name"`
}

// ParsePlan reads a production plan document. Batches inherit product and
// production type from their plan when they leave them empty. The result is in
// document order; Project sorts it.
func ParsePlan(r io.Reader) ([]ScheduledBatch, error) {
	var doc planFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	var batches []ScheduledBatch
	for pi, plan := range doc.ProductionPlans {
		for si, pb := range plan.Schedule {
			b := ScheduledBatch{
				BatchID:            pb.BatchID,
				Product:            pb.Product,
				ProductionType:     pb.ProductionType,
				ScheduledMonth:     pb.ScheduledMonth,
				ScheduledMonthName: pb.ScheduledMonthName,
			}
			if b.Product == "" {
				b.Product = plan.Product
			}
			if b.ProductionType == "" {
				b.ProductionType = plan.ProductionType
			}
			if b.Product == "" {
				return nil, fmt.Errorf("plan %d batch %d: product is required", pi, si)
			}
			if pb.Bottles700 < 0 || pb.Bottles200 < 0 || pb.Bottles1000 < 0 {
				return nil, fmt.Errorf("plan %d batch %d: bottle counts must not be negative", pi, si)
			}
			for _, p := range []PackQuantity{
				{SizeML: 700, Units: pb.Bottles700},
				{SizeML: 200, Units: pb.Bottles200},
				{SizeML: 1000, Units: pb.Bottles1000},
			} {
				if p.Units > 0 {
					b.Packs = append(b.Packs, p)
				}
			}
			batches = append(batches, b)
		}
	}
	return batches, nil
}

// LoadPlan reads a production plan file.
func LoadPlan(path string) ([]ScheduledBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()
	return ParsePlan(f)
}

// ParseSnapshot reads a {"<material>": <quantity>} object.
func ParseSnapshot(r io.Reader) (Snapshot, error) {
	var raw map[string]decimal.Decimal
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return Snapshot(raw), nil
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return ParseSnapshot(f)
}
