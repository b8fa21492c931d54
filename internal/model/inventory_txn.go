package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryTxn is an immutable stock fact. Quantity is always stored positive;
// the direction comes from TxnType. Corrections are made by appending a
// compensating row, never by editing one.
type InventoryTxn struct {
	ID             uuid.UUID       `gorm:"type:char(36);primaryKey"`
	OrganizationID uuid.UUID       `gorm:"type:char(36);not null;index:idx_txns_org_item"`
	ItemID         uuid.UUID       `gorm:"type:char(36);not null;index:idx_txns_org_item"`
	LotID          *uuid.UUID      `gorm:"type:char(36);index"`
	TxnType        string          `gorm:"size:20;not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UOM            string          `gorm:"column:uom;size:20;not null"`
	Note           *string
	ReferenceType  *string    `gorm:"size:60"`
	ReferenceID    *uuid.UUID `gorm:"type:char(36)"`
	OccurredAt     time.Time  `gorm:"not null;index"`
	CreatedAt      time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
	Lot  *Lot  `gorm:"foreignKey:LotID"`
}

// TableName overrides GORM's default pluralization (inventory_txns → inventory_transactions).
func (InventoryTxn) TableName() string { return "inventory_transactions" }
