package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/api/responses"
	"github.com/safetradehq/safetrade-backend/api/validators"
	"github.com/safetradehq/safetrade-backend/internal/disputes"
	"github.com/safetradehq/safetrade-backend/internal/escrow"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
	"github.com/safetradehq/safetrade-backend/pkg/logger"
)

type openDisputeRequest struct {
	Reason      string `json:"reason" validate:"required"`
	Description string `json:"description" validate:"required,min=10,max=2000"`
}

type resolveDisputeRequest struct {
	Outcome          string `json:"outcome" validate:"required"`
	StockDisposition string `json:"stock_disposition,omitempty"`
	Note             string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// DisputeOpen files a dispute against a transaction, freezing its
// auto-transition schedule until an arbiter rules.
func DisputeOpen(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		trackingID := strings.TrimSpace(chi.URLParam(r, "trackingId"))
		if trackingID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required"))
			return
		}

		var payload openDisputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := enums.ParseDisputeReason(strings.ToLower(strings.TrimSpace(payload.Reason)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute reason"))
			return
		}

		dispute, err := svc.Open(r.Context(), disputes.OpenInput{
			TrackingID:  trackingID,
			Actor:       actorFromRequest(r),
			Reason:      reason,
			Description: validators.SanitizeString(payload.Description, validators.MaxNotesLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, disputeDTOFrom(dispute, trackingID))
	}
}

// DisputeResolve records an arbiter ruling and drives the settlement
// transition the outcome demands.
func DisputeResolve(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		disputeID, err := uuid.Parse(chi.URLParam(r, "disputeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute id"))
			return
		}

		var payload resolveDisputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := parseDisputeOutcome(payload.Outcome)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := disputes.ResolveInput{
			DisputeID: disputeID,
			Actor:     actorFromRequest(r),
			Outcome:   outcome,
			Note:      validators.SanitizeString(payload.Note, validators.MaxNotesLen),
		}
		if raw := strings.TrimSpace(payload.StockDisposition); raw != "" {
			disposition, err := enums.ParseStockDisposition(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock disposition"))
				return
			}
			input.Disposition = disposition
		}

		result, err := svc.Resolve(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn := result.Transition.Transaction
		responses.WriteSuccess(w, resolveDisputeResponse{
			Dispute:     disputeDTOFrom(result.Dispute, txn.TrackingID),
			Transaction: transactionDTOFrom(txn),
		})
	}
}

// resolveDisputeResponse pairs the ruled dispute with the transaction state
// the ruling produced.
type resolveDisputeResponse struct {
	Dispute     disputeDTO     `json:"dispute"`
	Transaction transactionDTO `json:"transaction"`
}

// DisputeGetByTransaction looks up the dispute attached to a transaction.
func DisputeGetByTransaction(svc disputes.Service, escrowSvc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || escrowSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		trackingID := strings.TrimSpace(chi.URLParam(r, "trackingId"))
		if trackingID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required"))
			return
		}

		txn, err := escrowSvc.GetByTrackingID(r.Context(), trackingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !canViewTransaction(txn, actorFromRequest(r)) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotAParty, "actor is not a party to this transaction"))
			return
		}

		dispute, err := svc.GetByTransactionID(r.Context(), txn.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, disputeDTOFrom(dispute, txn.TrackingID))
	}
}

// parseDisputeOutcome accepts only the terminal ruling statuses; the opened
// and in_review states are owned by the service, not the API.
func parseDisputeOutcome(value string) (enums.DisputeStatus, error) {
	outcome := enums.DisputeStatus(strings.ToLower(strings.TrimSpace(value)))
	switch outcome {
	case enums.DisputeStatusResolvedBuyer, enums.DisputeStatusResolvedSeller:
		return outcome, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "outcome must be resolved_buyer or resolved_seller")
}
