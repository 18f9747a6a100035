package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetradehq/safetrade-backend/api/middleware"
	"github.com/safetradehq/safetrade-backend/api/responses"
	"github.com/safetradehq/safetrade-backend/api/validators"
	"github.com/safetradehq/safetrade-backend/internal/escrow"
	"github.com/safetradehq/safetrade-backend/internal/history"
	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
	"github.com/safetradehq/safetrade-backend/pkg/logger"
)

type createTransactionRequest struct {
	VariantID            string  `json:"variant_id" validate:"required,uuid4"`
	Quantity             int     `json:"quantity" validate:"required,gt=0"`
	Price                string  `json:"price" validate:"required"`
	Currency             string  `json:"currency,omitempty"`
	InspectionPeriodDays int     `json:"inspection_period_days,omitempty" validate:"omitempty,gte=0,lte=30"`
	ShippingAddress      string  `json:"shipping_address,omitempty"`
	NegotiationID        *string `json:"negotiation_id,omitempty" validate:"omitempty,uuid4"`
	Notes                string  `json:"notes,omitempty"`
}

type advanceTransactionRequest struct {
	Action          string `json:"action" validate:"required"`
	TrackingNumber  string `json:"tracking_number,omitempty"`
	ShippingCarrier string `json:"shipping_carrier,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// transactionResponse is the API shape of an escrow transaction, with the
// actions the calling actor may take from its current status.
type transactionResponse struct {
	Transaction      transactionDTO    `json:"transaction"`
	AvailableActions []escrow.Action   `json:"available_actions"`
	History          []historyEntryDTO `json:"history,omitempty"`
}

func actorFromRequest(r *http.Request) escrow.Actor {
	return escrow.Actor{
		ID:   middleware.ActorIDFromContext(r.Context()),
		Role: middleware.ActorRoleFromContext(r.Context()),
	}
}

// TransactionCreate opens a new escrow transaction and reserves stock.
func TransactionCreate(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		var payload createTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variantID, err := uuid.Parse(payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}
		price, err := decimal.NewFromString(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}

		input := escrow.CreateInput{
			BuyerID:              middleware.ActorIDFromContext(r.Context()),
			VariantID:            variantID,
			Quantity:             payload.Quantity,
			Price:                price,
			Currency:             enums.Currency(strings.ToUpper(payload.Currency)),
			InspectionPeriodDays: payload.InspectionPeriodDays,
			ShippingAddress:      validators.SanitizeString(payload.ShippingAddress, validators.MaxAddressLen),
			Notes:                validators.SanitizeString(payload.Notes, validators.MaxNotesLen),
		}
		if payload.NegotiationID != nil {
			negID, err := uuid.Parse(*payload.NegotiationID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid negotiation id"))
				return
			}
			input.NegotiationID = &negID
		}

		txn, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, transactionResponse{
			Transaction:      transactionDTOFrom(txn),
			AvailableActions: svc.ActionsFor(txn, actorFromRequest(r)),
		})
	}
}

// TransactionAdvance moves a transaction one step through the state machine.
// The request carries an action verb; the transition table decides whether
// the caller's role may drive that edge.
func TransactionAdvance(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		trackingID := strings.TrimSpace(chi.URLParam(r, "trackingId"))
		if trackingID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required"))
			return
		}

		var payload advanceTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, ok := escrow.ParseAction(strings.ToLower(strings.TrimSpace(payload.Action)))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown action"))
			return
		}
		target, _ := action.TargetStatus()

		result, err := svc.Transition(r.Context(), escrow.TransitionInput{
			TrackingID:      trackingID,
			Target:          target,
			Actor:           actorFromRequest(r),
			TrackingNumber:  validators.SanitizeString(payload.TrackingNumber, validators.MaxTrackingNumberLen),
			ShippingCarrier: validators.SanitizeString(payload.ShippingCarrier, validators.MaxCarrierLen),
			Notes:           validators.SanitizeString(payload.Notes, validators.MaxNotesLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transactionResponse{
			Transaction:      transactionDTOFrom(result.Transaction),
			AvailableActions: svc.ActionsFor(result.Transaction, actorFromRequest(r)),
		})
	}
}

// TransactionGet returns a transaction by tracking id along with its
// transition history. Only the parties, arbiters, and system callers may
// look a transaction up.
func TransactionGet(svc escrow.Service, hist history.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		trackingID := strings.TrimSpace(chi.URLParam(r, "trackingId"))
		if trackingID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required"))
			return
		}

		txn, err := svc.GetByTrackingID(r.Context(), trackingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := actorFromRequest(r)
		if !canViewTransaction(txn, actor) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotAParty, "actor is not a party to this transaction"))
			return
		}

		resp := transactionResponse{
			Transaction:      transactionDTOFrom(txn),
			AvailableActions: svc.ActionsFor(txn, actor),
		}
		if hist != nil {
			entries, err := hist.List(r.Context(), txn.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.History = historyDTOsFrom(entries)
		}

		responses.WriteSuccess(w, resp)
	}
}

func canViewTransaction(txn *models.EscrowTransaction, actor escrow.Actor) bool {
	switch actor.Role {
	case enums.ActorRoleArbiter, enums.ActorRoleSystem:
		return true
	}
	return actor.ID == txn.BuyerID || actor.ID == txn.SellerID
}
