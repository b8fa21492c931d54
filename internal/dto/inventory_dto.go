package dto

import (
	"time"

	"distillery/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateItemRequest struct {
	Name      string `json:"name"       validate:"required,min=2,max=120"`
	Category  string `json:"category"   validate:"required,max=60"`
	UOM       string `json:"uom"        validate:"required,max=20"`
	IsAlcohol bool   `json:"is_alcohol"`
}

type ProposedTxnRequest struct {
	ItemID        string          `json:"item_id"        validate:"required,uuid"`
	LotID         *string         `json:"lot_id"         validate:"omitempty,uuid"`
	TxnType       string          `json:"txn_type"       validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	UOM           string          `json:"uom"            validate:"required,max=20"`
	Note          *string         `json:"note"           validate:"omitempty,max=500"`
	ReferenceType *string         `json:"reference_type" validate:"omitempty,max=60"`
	ReferenceID   *string         `json:"reference_id"   validate:"omitempty,uuid"`
	OccurredAt    *string         `json:"occurred_at"    validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type PostBatchRequest struct {
	Transactions []ProposedTxnRequest `json:"transactions" validate:"required,min=1,max=500,dive"`
}

// ToProposed converts the request into ledger entries, keeping batch order.
func (r PostBatchRequest) ToProposed() ([]ledger.Proposed, error) {
	out := make([]ledger.Proposed, len(r.Transactions))
	for i, t := range r.Transactions {
		p, err := t.toProposed(i)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (t ProposedTxnRequest) toProposed(i int) (ledger.Proposed, error) {
	itemID, err := uuid.Parse(t.ItemID)
	if err != nil {
		return ledger.Proposed{}, &ledger.ValidationError{Index: i, Field: "item_id", Reason: "invalid uuid"}
	}
	typ, ok := ledger.ParseTxnType(t.TxnType)
	if !ok {
		return ledger.Proposed{}, &ledger.ValidationError{Index: i, Field: "txn_type", Reason: "unknown type " + t.TxnType}
	}
	p := ledger.Proposed{
		ItemID:        itemID,
		Type:          typ,
		Quantity:      t.Quantity,
		UOM:           t.UOM,
		Note:          t.Note,
		ReferenceType: t.ReferenceType,
	}
	if t.LotID != nil {
		id, err := uuid.Parse(*t.LotID)
		if err != nil {
			return ledger.Proposed{}, &ledger.ValidationError{Index: i, Field: "lot_id", Reason: "invalid uuid"}
		}
		p.LotID = &id
	}
	if t.ReferenceID != nil {
		id, err := uuid.Parse(*t.ReferenceID)
		if err != nil {
			return ledger.Proposed{}, &ledger.ValidationError{Index: i, Field: "reference_id", Reason: "invalid uuid"}
		}
		p.ReferenceID = &id
	}
	if t.OccurredAt != nil {
		at, err := time.Parse(time.RFC3339, *t.OccurredAt)
		if err != nil {
			return ledger.Proposed{}, &ledger.ValidationError{Index: i, Field: "occurred_at", Reason: "expected RFC3339"}
		}
		p.OccurredAt = at.UTC()
	}
	return p, nil
}

type CreateLotRequest struct {
	Code     string          `json:"code"     validate:"required,max=80"`
	Quantity decimal.Decimal `json:"quantity"`
	UOM      string          `json:"uom"      validate:"required,max=20"`
	Note     *string         `json:"note"     validate:"omitempty,max=500"`
}

// StocktakeLine is a physical count for one item.
type StocktakeLine struct {
	ItemID  string          `json:"item_id"  validate:"required,uuid"`
	Counted decimal.Decimal `json:"counted"`
}

type StocktakeRequest struct {
	Lines []StocktakeLine `json:"lines" validate:"required,min=1,max=500,dive"`
	Note  *string         `json:"note"  validate:"omitempty,max=500"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type StockLevelFilter struct {
	Category string `form:"category"`
	Name     string `form:"name"`
}

type TxnFilter struct {
	ItemID  string `form:"item_id" validate:"omitempty,uuid"`
	LotID   string `form:"lot_id"  validate:"omitempty,uuid"`
	TxnType string `form:"txn_type"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=20" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	UOM       string `json:"uom"`
	IsAlcohol bool   `json:"is_alcohol"`
}

type OnHandResponse struct {
	ItemID string          `json:"item_id"`
	LotID  *string         `json:"lot_id,omitempty"`
	OnHand decimal.Decimal `json:"on_hand"`
}

type StockLevelResponse struct {
	ItemResponse
	OnHand decimal.Decimal `json:"on_hand"`
}

type LotResponse struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"item_id"`
	Code         string          `json:"code"`
	ReceivedDate string          `json:"received_date"`
	Note         *string         `json:"note"`
	OnHand       decimal.Decimal `json:"on_hand"`
}

type CreateLotResponse struct {
	LotID string `json:"lot_id"`
}

type TxnResponse struct {
	ID            string          `json:"id"`
	ItemID        string          `json:"item_id"`
	ItemName      string          `json:"item_name,omitempty"`
	LotID         *string         `json:"lot_id"`
	LotCode       *string         `json:"lot_code,omitempty"`
	TxnType       string          `json:"txn_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UOM           string          `json:"uom"`
	Note          *string         `json:"note"`
	ReferenceType *string         `json:"reference_type,omitempty"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
	OccurredAt    string          `json:"occurred_at"`
}

type PostBatchResponse struct {
	Posted       int           `json:"posted"`
	Transactions []TxnResponse `json:"transactions"`
}

type TxnListResponse struct {
	Data  []TxnResponse `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type StocktakeAdjustment struct {
	ItemID  string          `json:"item_id"`
	Before  decimal.Decimal `json:"before"`
	Counted decimal.Decimal `json:"counted"`
	Delta   decimal.Decimal `json:"delta"`
	TxnType string          `json:"txn_type,omitempty"`
}

type StocktakeResponse struct {
	Adjustments []StocktakeAdjustment `json:"adjustments"`
	Posted      int                   `json:"posted"`
}
