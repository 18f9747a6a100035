package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/api/responses"
	"github.com/safetradehq/safetrade-backend/api/validators"
	"github.com/safetradehq/safetrade-backend/internal/inventory"
	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
	"github.com/safetradehq/safetrade-backend/pkg/logger"
)

// StockCache is the slice of the redis client the stock endpoints use.
// Every write path invalidates through Del so cached counters never
// outlive a ledger mutation.
type StockCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StockKey(variantID string) string
}

func invalidateStockCache(ctx context.Context, cache StockCache, logg *logger.Logger, variantID uuid.UUID) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, cache.StockKey(variantID.String())); err != nil && logg != nil {
		logg.Warn(logg.WithField(ctx, "variant_id", variantID.String()), "stock cache invalidation failed")
	}
}

type stockSnapshot struct {
	VariantID string `json:"variant_id"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
	InEscrow  int    `json:"in_escrow"`
	Pending   int    `json:"pending_inspection"`
	Rejected  int    `json:"rejected"`
	LowStock  bool   `json:"low_stock"`
	Cached    bool   `json:"cached"`
}

func snapshotFrom(inv *models.VariantInventory) stockSnapshot {
	return stockSnapshot{
		VariantID: inv.VariantID.String(),
		Total:     inv.TotalInventory,
		Available: inv.AvailableInventory,
		InEscrow:  inv.InEscrowInventory,
		Pending:   inv.PendingInspection,
		Rejected:  inv.RejectedInventory,
		LowStock:  inv.IsLowStock(),
	}
}

// StockGet returns the stock counters for a variant. Snapshots are served
// from the cache when fresh; cache failures fall through to the database.
func StockGet(svc inventory.Service, cache StockCache, ttl time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := uuid.Parse(chi.URLParam(r, "variantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		if cache != nil && ttl > 0 {
			if raw, err := cache.Get(r.Context(), cache.StockKey(variantID.String())); err == nil {
				var snap stockSnapshot
				if err := json.Unmarshal([]byte(raw), &snap); err == nil {
					snap.Cached = true
					responses.WriteSuccess(w, snap)
					return
				}
			}
		}

		inv, err := svc.Get(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap := snapshotFrom(inv)
		if cache != nil && ttl > 0 {
			if encoded, err := json.Marshal(snap); err == nil {
				if err := cache.Set(r.Context(), cache.StockKey(variantID.String()), string(encoded), ttl); err != nil && logg != nil {
					logg.Warn(logg.WithField(r.Context(), "variant_id", variantID.String()), "stock cache write failed")
				}
			}
		}

		responses.WriteSuccess(w, snap)
	}
}

type stockAdjustRequest struct {
	Quantity          int    `json:"quantity" validate:"required,gt=0"`
	LowStockThreshold *int   `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
	Notes             string `json:"notes,omitempty"`
}

type ensureVariantRequest struct {
	ProductID         string `json:"product_id" validate:"required,uuid4"`
	SellerID          string `json:"seller_id" validate:"required,uuid4"`
	LowStockThreshold int    `json:"low_stock_threshold" validate:"gte=0"`
}

// StockEnsureVariant registers a variant's inventory row. The operation is
// idempotent per variant; stock is added through the add endpoint.
func StockEnsureVariant(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := uuid.Parse(chi.URLParam(r, "variantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		var payload ensureVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		sellerID, err := uuid.Parse(payload.SellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}

		inv, err := svc.EnsureVariant(r.Context(), inventory.EnsureVariantInput{
			VariantID:         variantID,
			ProductID:         productID,
			SellerID:          sellerID,
			LowStockThreshold: payload.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, snapshotFrom(inv))
	}
}

// StockAdd tops up a variant's available stock.
func StockAdd(svc inventory.Service, cache StockCache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := uuid.Parse(chi.URLParam(r, "variantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := actorFromRequest(r).ID
		inv, err := svc.AddStock(r.Context(), inventory.MovementInput{
			VariantID: variantID,
			Quantity:  payload.Quantity,
			ActorID:   &actorID,
			Notes:     validators.SanitizeString(payload.Notes, validators.MaxNotesLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invalidateStockCache(r.Context(), cache, logg, variantID)
		responses.WriteSuccess(w, snapshotFrom(inv))
	}
}

// StockRestock moves rejected units back on sale after the seller has
// reconditioned them.
func StockRestock(svc inventory.Service, cache StockCache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := uuid.Parse(chi.URLParam(r, "variantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := actorFromRequest(r).ID
		inv, err := svc.Restock(r.Context(), inventory.MovementInput{
			VariantID: variantID,
			Quantity:  payload.Quantity,
			ActorID:   &actorID,
			Notes:     validators.SanitizeString(payload.Notes, validators.MaxNotesLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invalidateStockCache(r.Context(), cache, logg, variantID)
		responses.WriteSuccess(w, snapshotFrom(inv))
	}
}

// StockMovements lists the recent audit trail for a variant.
func StockMovements(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := uuid.Parse(chi.URLParam(r, "variantId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, err := svc.ListMovements(r.Context(), variantID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stockMovementDTOsFrom(movements))
	}
}
