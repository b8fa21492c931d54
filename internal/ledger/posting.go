package ledger

import (
	"sort"
	"strings"
	"time"

	"distillery/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityScale is the number of decimal places the store keeps (decimal(18,4)).
const QuantityScale = 4

// maxQuantity is the first value decimal(18,4) cannot hold.
var maxQuantity = decimal.New(1, 18-QuantityScale)

// Proposed is a transaction that has not been written yet.
type Proposed struct {
	ItemID        uuid.UUID
	LotID         *uuid.UUID
	Type          TxnType
	Quantity      decimal.Decimal
	UOM           string
	Note          *string
	ReferenceType *string
	ReferenceID   *uuid.UUID
	OccurredAt    time.Time
}

// Validate runs the local checks. index is the entry's position in its batch.
func (p Proposed) Validate(index int) error {
	if p.ItemID == uuid.Nil {
		return &ValidationError{Index: index, Field: "item_id", Reason: "required"}
	}
	if p.LotID != nil && *p.LotID == uuid.Nil {
		return &ValidationError{Index: index, Field: "lot_id", Reason: "must not be the nil uuid"}
	}
	if !p.Type.Valid() {
		return &ValidationError{Index: index, Field: "txn_type", Reason: "unknown type " + string(p.Type)}
	}
	if !p.Quantity.IsPositive() {
		return &ValidationError{Index: index, Field: "quantity", Reason: "must be greater than zero"}
	}
	if !p.Quantity.Equal(p.Quantity.Truncate(QuantityScale)) {
		return &ValidationError{Index: index, Field: "quantity", Reason: "at most 4 decimal places"}
	}
	if p.Quantity.GreaterThanOrEqual(maxQuantity) {
		return &ValidationError{Index: index, Field: "quantity", Reason: "must be less than " + maxQuantity.String()}
	}
	if strings.TrimSpace(p.UOM) == "" {
		return &ValidationError{Index: index, Field: "uom", Reason: "required"}
	}
	return nil
}

// ValidateBatch checks every entry and rejects empty batches.
func ValidateBatch(batch []Proposed) error {
	if len(batch) == 0 {
		return &ValidationError{Index: -1, Field: "transactions", Reason: "batch is empty"}
	}
	for i, p := range batch {
		if err := p.Validate(i); err != nil {
			return err
		}
	}
	return nil
}

// CheckFloor checks every decreasing entry of batch against the balances read
// before the batch. Decreases are netted cumulatively per item and per lot;
// increases in the same batch never fund them. opening is not modified.
func CheckFloor(batch []Proposed, opening Balances) error {
	running := opening.Clone()
	for _, p := range batch {
		if !p.Type.Decreasing() {
			continue
		}
		if avail := running.Item(p.ItemID); avail.LessThan(p.Quantity) {
			return &InsufficientStockError{
				ItemID:    p.ItemID,
				Required:  p.Quantity,
				Available: avail,
			}
		}
		if p.LotID != nil {
			if avail := running.Lot(p.ItemID, *p.LotID); avail.LessThan(p.Quantity) {
				lotID := *p.LotID
				return &InsufficientStockError{
					ItemID:    p.ItemID,
					LotID:     &lotID,
					Required:  p.Quantity,
					Available: avail,
				}
			}
		}
		running.Apply(p.ItemID, p.LotID, p.Quantity.Neg())
	}
	return nil
}

// ItemIDs returns the distinct items of batch in ascending order.
func ItemIDs(batch []Proposed) []uuid.UUID {
	ids := make([]uuid.UUID, len(batch))
	for i, p := range batch {
		ids[i] = p.ItemID
	}
	return SortedIDs(ids)
}

// SortedIDs dedupes ids and orders them by their string form. Locks are always
// taken in this order so two postings can never wait on each other.
func SortedIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// LotKeys returns the distinct lots referenced by batch.
func LotKeys(batch []Proposed) []LotKey {
	seen := make(map[LotKey]struct{})
	var keys []LotKey
	for _, p := range batch {
		if p.LotID == nil {
			continue
		}
		k := LotKey{ItemID: p.ItemID, LotID: *p.LotID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Rows turns a validated batch into store rows for orgID. Entries without an
// OccurredAt get now.
func Rows(orgID uuid.UUID, batch []Proposed, now time.Time) []model.InventoryTxn {
	rows := make([]model.InventoryTxn, len(batch))
	for i, p := range batch {
		occurred := p.OccurredAt
		if occurred.IsZero() {
			occurred = now
		}
		rows[i] = model.InventoryTxn{
			ID:             uuid.New(),
			OrganizationID: orgID,
			ItemID:         p.ItemID,
			LotID:          p.LotID,
			TxnType:        string(p.Type),
			Quantity:       p.Quantity,
			UOM:            p.UOM,
			Note:           p.Note,
			ReferenceType:  p.ReferenceType,
			ReferenceID:    p.ReferenceID,
			OccurredAt:     occurred,
		}
	}
	return rows
}
