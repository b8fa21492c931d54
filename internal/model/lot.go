package model

import (
	"time"

	"github.com/google/uuid"
)

// Lot is a receipt-level subdivision of an Item. Created once at receipt, never deleted.
type Lot struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:char(36);not null;index"`
	ItemID         uuid.UUID `gorm:"type:char(36);not null;index"`
	Code           string    `gorm:"size:80;not null"`
	ReceivedDate   time.Time `gorm:"not null"`
	Note           *string
	CreatedAt      time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}
