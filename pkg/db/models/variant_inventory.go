package models

import (
	"time"

	"github.com/google/uuid"
)

// VariantInventory tracks the stock counters for one product variant.
// available + in_escrow + pending_inspection + rejected never exceeds total.
type VariantInventory struct {
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SellerID  uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`

	TotalInventory     int `gorm:"column:total_inventory;not null;default:0"`
	AvailableInventory int `gorm:"column:available_inventory;not null;default:0"`
	InEscrowInventory  int `gorm:"column:in_escrow_inventory;not null;default:0"`
	PendingInspection  int `gorm:"column:pending_inspection;not null;default:0"`
	RejectedInventory  int `gorm:"column:rejected_inventory;not null;default:0"`

	LowStockThreshold int `gorm:"column:low_stock_threshold;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (VariantInventory) TableName() string {
	return "variant_inventory"
}

// IsLowStock reports whether available stock fell to or below the threshold.
func (v VariantInventory) IsLowStock() bool {
	return v.LowStockThreshold > 0 && v.AvailableInventory <= v.LowStockThreshold
}
