package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// StockMovement is the append-only audit row written for every inventory
// mutation, with counter snapshots taken before and after the change.
type StockMovement struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	VariantID uuid.UUID               `gorm:"column:variant_id;type:uuid;not null;index"`
	Type      enums.StockMovementType `gorm:"column:type;type:stock_movement_type;not null;index"`
	Quantity  int                     `gorm:"column:quantity;not null"`

	TransactionID *uuid.UUID `gorm:"column:transaction_id;type:uuid;index"`
	ActorID       *uuid.UUID `gorm:"column:actor_id;type:uuid"`

	PreviousTotal     int `gorm:"column:previous_total;not null"`
	PreviousAvailable int `gorm:"column:previous_available;not null"`
	PreviousInEscrow  int `gorm:"column:previous_in_escrow;not null"`
	PreviousPending   int `gorm:"column:previous_pending;not null"`
	PreviousRejected  int `gorm:"column:previous_rejected;not null"`
	NewTotal          int `gorm:"column:new_total;not null"`
	NewAvailable      int `gorm:"column:new_available;not null"`
	NewInEscrow       int `gorm:"column:new_in_escrow;not null"`
	NewPending        int `gorm:"column:new_pending;not null"`
	NewRejected       int `gorm:"column:new_rejected;not null"`

	Notes     *string   `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (StockMovement) TableName() string {
	return "stock_movements"
}
