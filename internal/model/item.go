package model

import (
	"time"

	"github.com/google/uuid"
)

// Item categories used by the planning engine.
const (
	CategoryPackaging    = "Packaging"
	CategoryBotanicals   = "Botanicals"
	CategoryRawMaterials = "RawMaterials"
	CategorySpirits      = "Spirits"
)

// Item is a trackable material: packaging unit, botanical, raw material or finished spirit.
// Items are never deleted while transactions reference them.
type Item struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_items_org_name"`
	Name           string    `gorm:"size:120;not null;uniqueIndex:idx_items_org_name"`
	Category       string    `gorm:"size:60;not null;index"`
	UOM            string    `gorm:"column:uom;size:20;not null;default:'units'"`
	IsAlcohol      bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
