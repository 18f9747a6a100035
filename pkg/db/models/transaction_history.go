package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// TransactionHistory records one immutable status change of an escrow
// transaction. PreviousStatus is nil on the creation row; ActorID is nil
// when the scheduler drove the change.
type TransactionHistory struct {
	ID             uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID  uuid.UUID                `gorm:"column:transaction_id;type:uuid;not null;index"`
	PreviousStatus *enums.TransactionStatus `gorm:"column:previous_status;type:transaction_status"`
	NewStatus      enums.TransactionStatus  `gorm:"column:new_status;type:transaction_status;not null"`
	ActorID        *uuid.UUID               `gorm:"column:actor_id;type:uuid"`
	ActorRole      enums.ActorRole          `gorm:"column:actor_role;type:text;not null;default:'system'"`
	Notes          *string                  `gorm:"column:notes"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default pluralization.
func (TransactionHistory) TableName() string {
	return "transaction_history"
}
