package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// EscrowTransaction holds one escrow-settled purchase from initiation to
// settlement. Status moves only through the transition table in
// internal/escrow; everything else here is payload around that machine.
type EscrowTransaction struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TrackingID string    `gorm:"column:tracking_id;uniqueIndex:ux_escrow_transactions_tracking_id;not null"`

	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null;index"`
	BuyerID   uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID  uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`

	Quantity    int                     `gorm:"column:quantity;not null"`
	Price       decimal.Decimal         `gorm:"column:price;type:numeric(12,2);not null"`
	TotalAmount decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency    enums.Currency          `gorm:"column:currency;type:text;not null;default:'USD'"`
	Status      enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'initiated'"`

	StatusChangedAt time.Time `gorm:"column:status_changed_at;not null"`

	InspectionPeriodDays int        `gorm:"column:inspection_period_days;not null;default:3"`
	InspectionEndDate    *time.Time `gorm:"column:inspection_end_date"`

	IsAutoTransitionScheduled bool                      `gorm:"column:is_auto_transition_scheduled;not null;default:false;index:ix_escrow_transactions_auto_due,priority:1"`
	AutoTransitionType        *enums.AutoTransitionType `gorm:"column:auto_transition_type;type:auto_transition_type"`
	NextAutoTransitionAt      *time.Time                `gorm:"column:next_auto_transition_at;index:ix_escrow_transactions_auto_due,priority:2"`
	AutoTransitionAttempts    int                       `gorm:"column:auto_transition_attempts;not null;default:0"`

	FlaggedForReview bool    `gorm:"column:flagged_for_review;not null;default:false"`
	ReviewReason     *string `gorm:"column:review_reason"`

	// StockCommittedAt marks the one-time inventory commit so repeated
	// settlement edges never double-deduct.
	StockCommittedAt *time.Time `gorm:"column:stock_committed_at"`

	TrackingNumber  *string `gorm:"column:tracking_number"`
	ShippingCarrier *string `gorm:"column:shipping_carrier"`
	ShippingAddress *string `gorm:"column:shipping_address"`
	Notes           *string `gorm:"column:notes"`

	NegotiationID *uuid.UUID `gorm:"column:negotiation_id;type:uuid"`

	CompletedAt     *time.Time `gorm:"column:completed_at"`
	FundsReleasedAt *time.Time `gorm:"column:funds_released_at"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (EscrowTransaction) TableName() string {
	return "escrow_transactions"
}
