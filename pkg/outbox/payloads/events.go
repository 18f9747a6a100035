package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// TransactionCreatedEvent signals a new escrow transaction with stock reserved.
type TransactionCreatedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	TrackingID    string          `json:"tracking_id"`
	VariantID     uuid.UUID       `json:"variant_id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Quantity      int             `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      enums.Currency  `json:"currency"`
}

// TransactionStateChangedEvent is emitted on every accepted transition.
type TransactionStateChangedEvent struct {
	TransactionID  uuid.UUID               `json:"transaction_id"`
	TrackingID     string                  `json:"tracking_id"`
	PreviousStatus enums.TransactionStatus `json:"previous_status"`
	NewStatus      enums.TransactionStatus `json:"new_status"`
	ActorRole      enums.ActorRole         `json:"actor_role"`
	ChangedAt      time.Time               `json:"changed_at"`
}

// TransactionFlaggedEvent reports a transaction parked for manual review
// after the scheduler exhausted its retries.
type TransactionFlaggedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	TrackingID    string    `json:"tracking_id"`
	Reason        string    `json:"reason"`
}

// PayoutRequestedEvent asks the payment collaborator to pay the seller.
type PayoutRequestedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	TrackingID    string          `json:"tracking_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      enums.Currency  `json:"currency"`
}

// RefundRequestedEvent asks the payment collaborator to refund the buyer.
type RefundRequestedEvent struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	TrackingID    string          `json:"tracking_id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      enums.Currency  `json:"currency"`
}

// DisputeOpenedEvent is emitted when the dispute gate accepts a filing.
type DisputeOpenedEvent struct {
	DisputeID     uuid.UUID           `json:"dispute_id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	TrackingID    string              `json:"tracking_id"`
	OpenedBy      uuid.UUID           `json:"opened_by"`
	Reason        enums.DisputeReason `json:"reason"`
}

// DisputeResolvedEvent is emitted when an arbiter rules on a dispute.
type DisputeResolvedEvent struct {
	DisputeID     uuid.UUID           `json:"dispute_id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	TrackingID    string              `json:"tracking_id"`
	Status        enums.DisputeStatus `json:"status"`
	ResolvedBy    uuid.UUID           `json:"resolved_by"`
}

// StockMovementEvent mirrors a committed ledger mutation so downstream
// caches and search indexes can refresh.
type StockMovementEvent struct {
	VariantID     uuid.UUID               `json:"variant_id"`
	TransactionID *uuid.UUID              `json:"transaction_id,omitempty"`
	Type          enums.StockMovementType `json:"type"`
	Quantity      int                     `json:"quantity"`
	Available     int                     `json:"available"`
	InEscrow      int                     `json:"in_escrow"`
	Rejected      int                     `json:"rejected"`
	Total         int                     `json:"total"`
}

// LowStockEvent warns that available stock fell to or below the threshold.
type LowStockEvent struct {
	VariantID uuid.UUID `json:"variant_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Available int       `json:"available"`
	Threshold int       `json:"threshold"`
}

// NotificationRequestedEvent tells the notification collaborator to alert
// the parties to a transaction.
type NotificationRequestedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	TrackingID    string    `json:"tracking_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Type          string    `json:"type"`
}
