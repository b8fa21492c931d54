package ledger

import (
	"distillery/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotKey identifies a lot balance. Lots are always read together with their item.
type LotKey struct {
	ItemID uuid.UUID
	LotID  uuid.UUID
}

// Balances is an on-hand snapshot at item and lot granularity.
// It is derived on demand and never persisted.
type Balances struct {
	Items map[uuid.UUID]decimal.Decimal
	Lots  map[LotKey]decimal.Decimal
}

func NewBalances() Balances {
	return Balances{
		Items: make(map[uuid.UUID]decimal.Decimal),
		Lots:  make(map[LotKey]decimal.Decimal),
	}
}

// Item returns the item balance, zero when unknown.
func (b Balances) Item(id uuid.UUID) decimal.Decimal {
	return b.Items[id]
}

// Lot returns the lot balance, zero when unknown.
func (b Balances) Lot(itemID, lotID uuid.UUID) decimal.Decimal {
	return b.Lots[LotKey{ItemID: itemID, LotID: lotID}]
}

// Apply moves the item balance, and the lot balance when lotID is set, by delta.
func (b Balances) Apply(itemID uuid.UUID, lotID *uuid.UUID, delta decimal.Decimal) {
	b.Items[itemID] = b.Items[itemID].Add(delta)
	if lotID != nil {
		k := LotKey{ItemID: itemID, LotID: *lotID}
		b.Lots[k] = b.Lots[k].Add(delta)
	}
}

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	out := NewBalances()
	for k, v := range b.Items {
		out.Items[k] = v
	}
	for k, v := range b.Lots {
		out.Lots[k] = v
	}
	return out
}

// OnHand is the signed sum of txns. Rows of unknown type contribute nothing.
func OnHand(txns []model.InventoryTxn) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(TxnType(t.TxnType).Signed(t.Quantity))
	}
	return total
}

// Snapshot folds txns into item and lot balances.
func Snapshot(txns []model.InventoryTxn) Balances {
	b := NewBalances()
	for _, t := range txns {
		b.Apply(t.ItemID, t.LotID, TxnType(t.TxnType).Signed(t.Quantity))
	}
	return b
}
