// Package ledger holds the pure stock arithmetic of the inventory ledger:
// the transaction sign convention, on-hand sums and the cumulative floor
// check applied to a batch before it is written.
package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TxnType is the closed set of inventory transaction kinds.
type TxnType string

const (
	Receive  TxnType = "RECEIVE"
	Produce  TxnType = "PRODUCE"
	Consume  TxnType = "CONSUME"
	Transfer TxnType = "TRANSFER"
	Destroy  TxnType = "DESTROY"
	// Adjust is a downward correction and is floor-checked like any other decrease.
	Adjust TxnType = "ADJUST"
	// AdjustUp is an upward correction, e.g. a stocktake that found more than the ledger.
	AdjustUp TxnType = "ADJUST_UP"
)

var txnSigns = map[TxnType]int64{
	Receive:  1,
	Produce:  1,
	AdjustUp: 1,
	Consume:  -1,
	Transfer: -1,
	Destroy:  -1,
	Adjust:   -1,
}

// AllTxnTypes lists every known type in a stable order.
func AllTxnTypes() []TxnType {
	return []TxnType{Receive, Produce, AdjustUp, Consume, Transfer, Destroy, Adjust}
}

// ParseTxnType normalizes s and reports whether it names a known type.
func ParseTxnType(s string) (TxnType, bool) {
	t := TxnType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

func (t TxnType) Valid() bool {
	_, ok := txnSigns[t]
	return ok
}

// Sign returns +1 for increasing types, -1 for decreasing types and 0 for unknown ones.
func (t TxnType) Sign() int64 {
	return txnSigns[t]
}

// Decreasing reports whether the type lowers on-hand and must pass the floor check.
func (t TxnType) Decreasing() bool {
	return t.Sign() < 0
}

// Signed applies the sign convention to a stored (always positive) quantity.
func (t TxnType) Signed(q decimal.Decimal) decimal.Decimal {
	return q.Mul(decimal.NewFromInt(t.Sign()))
}

func (t TxnType) String() string { return string(t) }
