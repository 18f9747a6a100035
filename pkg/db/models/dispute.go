package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// Dispute is the single dispute a transaction may carry. The unique index
// on transaction_id enforces the 1:1 relationship at the database level.
type Dispute struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"column:transaction_id;type:uuid;not null;uniqueIndex:ux_disputes_transaction_id"`

	OpenedBy     uuid.UUID           `gorm:"column:opened_by;type:uuid;not null"`
	OpenedByRole enums.ActorRole     `gorm:"column:opened_by_role;type:text;not null"`
	Reason       enums.DisputeReason `gorm:"column:reason;type:dispute_reason;not null"`
	Description  string              `gorm:"column:description;not null"`
	Status       enums.DisputeStatus `gorm:"column:status;type:dispute_status;not null;default:'opened'"`

	// PriorStatus is the transaction status the dispute interrupted,
	// kept for arbiter context when ruling for the seller.
	PriorStatus enums.TransactionStatus `gorm:"column:prior_status;type:transaction_status;not null"`

	ResolvedBy     *uuid.UUID `gorm:"column:resolved_by;type:uuid"`
	ResolutionNote *string    `gorm:"column:resolution_note"`
	ResolvedAt     *time.Time `gorm:"column:resolved_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Dispute) TableName() string {
	return "disputes"
}
