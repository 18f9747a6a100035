package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// transactionDTO is the wire shape of an escrow transaction. Transactions
// are addressed by tracking_id everywhere outside this service; the row's
// primary key never leaves it.
type transactionDTO struct {
	TrackingID           string                  `json:"tracking_id"`
	Status               enums.TransactionStatus `json:"status"`
	ProductID            uuid.UUID               `json:"product_id"`
	VariantID            uuid.UUID               `json:"variant_id"`
	BuyerID              uuid.UUID               `json:"buyer_id"`
	SellerID             uuid.UUID               `json:"seller_id"`
	Quantity             int                     `json:"quantity"`
	Price                decimal.Decimal         `json:"price"`
	TotalAmount          decimal.Decimal         `json:"total_amount"`
	Currency             enums.Currency          `json:"currency"`
	StatusChangedAt      time.Time               `json:"status_changed_at"`
	InspectionPeriodDays int                     `json:"inspection_period_days"`
	InspectionEndDate    *time.Time              `json:"inspection_end_date,omitempty"`
	FlaggedForReview     bool                    `json:"flagged_for_review,omitempty"`
	TrackingNumber       *string                 `json:"tracking_number,omitempty"`
	ShippingCarrier      *string                 `json:"shipping_carrier,omitempty"`
	ShippingAddress      *string                 `json:"shipping_address,omitempty"`
	Notes                *string                 `json:"notes,omitempty"`
	NegotiationID        *uuid.UUID              `json:"negotiation_id,omitempty"`
	CompletedAt          *time.Time              `json:"completed_at,omitempty"`
	FundsReleasedAt      *time.Time              `json:"funds_released_at,omitempty"`
	CancelledAt          *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
	UpdatedAt            time.Time               `json:"updated_at"`
}

func transactionDTOFrom(txn *models.EscrowTransaction) transactionDTO {
	return transactionDTO{
		TrackingID:           txn.TrackingID,
		Status:               txn.Status,
		ProductID:            txn.ProductID,
		VariantID:            txn.VariantID,
		BuyerID:              txn.BuyerID,
		SellerID:             txn.SellerID,
		Quantity:             txn.Quantity,
		Price:                txn.Price,
		TotalAmount:          txn.TotalAmount,
		Currency:             txn.Currency,
		StatusChangedAt:      txn.StatusChangedAt,
		InspectionPeriodDays: txn.InspectionPeriodDays,
		InspectionEndDate:    txn.InspectionEndDate,
		FlaggedForReview:     txn.FlaggedForReview,
		TrackingNumber:       txn.TrackingNumber,
		ShippingCarrier:      txn.ShippingCarrier,
		ShippingAddress:      txn.ShippingAddress,
		Notes:                txn.Notes,
		NegotiationID:        txn.NegotiationID,
		CompletedAt:          txn.CompletedAt,
		FundsReleasedAt:      txn.FundsReleasedAt,
		CancelledAt:          txn.CancelledAt,
		CreatedAt:            txn.CreatedAt,
		UpdatedAt:            txn.UpdatedAt,
	}
}

// historyEntryDTO exposes one status change. The owning transaction is
// implied by the route, so no transaction reference is repeated per row.
type historyEntryDTO struct {
	PreviousStatus *enums.TransactionStatus `json:"previous_status,omitempty"`
	NewStatus      enums.TransactionStatus  `json:"new_status"`
	ActorID        *uuid.UUID               `json:"actor_id,omitempty"`
	ActorRole      enums.ActorRole          `json:"actor_role"`
	Notes          *string                  `json:"notes,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

func historyDTOsFrom(entries []models.TransactionHistory) []historyEntryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]historyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyEntryDTO{
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			ActorID:        entry.ActorID,
			ActorRole:      entry.ActorRole,
			Notes:          entry.Notes,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return out
}

// disputeDTO is the wire shape of a dispute. The dispute id is the resolve
// route's handle and stays; the transaction is referenced by tracking id.
type disputeDTO struct {
	ID             uuid.UUID               `json:"id"`
	TrackingID     string                  `json:"tracking_id,omitempty"`
	OpenedBy       uuid.UUID               `json:"opened_by"`
	OpenedByRole   enums.ActorRole         `json:"opened_by_role"`
	Reason         enums.DisputeReason     `json:"reason"`
	Description    string                  `json:"description"`
	Status         enums.DisputeStatus     `json:"status"`
	PriorStatus    enums.TransactionStatus `json:"prior_status"`
	ResolvedBy     *uuid.UUID              `json:"resolved_by,omitempty"`
	ResolutionNote *string                 `json:"resolution_note,omitempty"`
	ResolvedAt     *time.Time              `json:"resolved_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

func disputeDTOFrom(dispute *models.Dispute, trackingID string) disputeDTO {
	return disputeDTO{
		ID:             dispute.ID,
		TrackingID:     trackingID,
		OpenedBy:       dispute.OpenedBy,
		OpenedByRole:   dispute.OpenedByRole,
		Reason:         dispute.Reason,
		Description:    dispute.Description,
		Status:         dispute.Status,
		PriorStatus:    dispute.PriorStatus,
		ResolvedBy:     dispute.ResolvedBy,
		ResolutionNote: dispute.ResolutionNote,
		ResolvedAt:     dispute.ResolvedAt,
		CreatedAt:      dispute.CreatedAt,
	}
}

// stockMovementDTO exposes one audit row with the counters it left behind.
type stockMovementDTO struct {
	Type      enums.StockMovementType `json:"type"`
	Quantity  int                     `json:"quantity"`
	ActorID   *uuid.UUID              `json:"actor_id,omitempty"`
	Total     int                     `json:"total"`
	Available int                     `json:"available"`
	InEscrow  int                     `json:"in_escrow"`
	Pending   int                     `json:"pending_inspection"`
	Rejected  int                     `json:"rejected"`
	Notes     *string                 `json:"notes,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

func stockMovementDTOsFrom(movements []models.StockMovement) []stockMovementDTO {
	out := make([]stockMovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, stockMovementDTO{
			Type:      m.Type,
			Quantity:  m.Quantity,
			ActorID:   m.ActorID,
			Total:     m.NewTotal,
			Available: m.NewAvailable,
			InEscrow:  m.NewInEscrow,
			Pending:   m.NewPending,
			Rejected:  m.NewRejected,
			Notes:     m.Notes,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
