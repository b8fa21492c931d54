package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationError rejects a proposed transaction before any I/O happens.
type ValidationError struct {
	Index  int // position in the batch, -1 when not batch-related
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("transaction %d: invalid %s: %s", e.Index, e.Field, e.Reason)
}

// ItemNotFoundError is returned when an item does not exist in the organization.
type ItemNotFoundError struct {
	ItemID uuid.UUID
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found", e.ItemID)
}

// LotNotFoundError is returned when a lot does not exist or belongs to another item.
type LotNotFoundError struct {
	ItemID uuid.UUID
	LotID  uuid.UUID
}

func (e *LotNotFoundError) Error() string {
	return fmt.Sprintf("lot %s not found for item %s", e.LotID, e.ItemID)
}

// InsufficientStockError carries what the caller needs to shrink or split the request.
// Available is the running balance at the rejected entry, after earlier entries
// of the same batch were netted in.
type InsufficientStockError struct {
	ItemID    uuid.UUID
	LotID     *uuid.UUID
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	if e.LotID != nil {
		return fmt.Sprintf("insufficient stock for item %s lot %s: required %s, available %s",
			e.ItemID, *e.LotID, e.Required, e.Available)
	}
	return fmt.Sprintf("insufficient stock for item %s: required %s, available %s",
		e.ItemID, e.Required, e.Available)
}

// Shortfall is how much more stock the rejected entry needed.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

// ConcurrencyConflictError means the posting lock for Key could not be taken.
// The whole PostBatch call is safe to retry.
type ConcurrencyConflictError struct {
	Key string
	Err error
}

func (e *ConcurrencyConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("concurrent posting on %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("concurrent posting on %s", e.Key)
}

func (e *ConcurrencyConflictError) Unwrap() error { return e.Err }
