package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/safetradehq/safetrade-backend/pkg/db/models"
)

// Repository manages persistence for variant stock counters and movements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, variantID uuid.UUID) (*models.VariantInventory, error)
	GetForUpdate(ctx context.Context, variantID uuid.UUID) (*models.VariantInventory, error)
	Create(ctx context.Context, inv *models.VariantInventory) error
	ApplyAdd(ctx context.Context, variantID uuid.UUID, qty int) (int64, error)
	ApplyReserve(ctx context.Context, variantID uuid.UUID, qty int) (int64, error)
	ApplyRelease(ctx context.Context, variantID uuid.UUID, qty int) (int64, error)
	ApplyCommit(ctx context.Context, variantID uuid.UUID, qty int) (int64, error)
	ApplyReject(ctx context.Context, variantID uuid.UUID, qty int) (int64, error)
	ApplyRestock(ctx context.Context, variantID uuid.UUID, qty int) (int64, error)
	RecordMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, variantID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, variantID uuid.UUID) (*models.VariantInventory, error) {
	var inv models.VariantInventory
	if err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetForUpdate(ctx context.Context, variantID uuid.UUID) (*models.VariantInventory, error) {
	query := r.db.WithContext(ctx)
	// sqlite serializes writers on its own and rejects FOR UPDATE.
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var inv models.VariantInventory
	if err := query.Where("variant_id = ?", variantID).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Create(ctx context.Context, inv *models.VariantInventory) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// Counter mutations are single guarded UPDATE statements so the ledger
// invariants hold even when a caller skips the row lock. A zero rows-affected
// result means the guard rejected the movement.

func (r *repository) ApplyAdd(ctx context.Context, variantID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.VariantInventory{}).
		Where("variant_id = ?", variantID).
		Updates(map[string]any{
			"total_inventory":     gorm.Expr("total_inventory + ?", qty),
			"available_inventory": gorm.Expr("available_inventory + ?", qty),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyReserve(ctx context.Context, variantID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.VariantInventory{}).
		Where("variant_id = ? AND available_inventory >= ?", variantID, qty).
		Updates(map[string]any{
			"available_inventory": gorm.Expr("available_inventory - ?", qty),
			"in_escrow_inventory": gorm.Expr("in_escrow_inventory + ?", qty),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyRelease(ctx context.Context, variantID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.VariantInventory{}).
		Where("variant_id = ? AND in_escrow_inventory >= ?", variantID, qty).
		Updates(map[string]any{
			"in_escrow_inventory": gorm.Expr("in_escrow_inventory - ?", qty),
			"available_inventory": gorm.Expr("available_inventory + ?", qty),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyCommit(ctx context.Context, variantID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.VariantInventory{}).
		Where("variant_id = ? AND in_escrow_inventory >= ? AND total_inventory >= ?", variantID, qty, qty).
		Updates(map[string]any{
			"in_escrow_inventory": gorm.Expr("in_escrow_inventory - ?", qty),
			"total_inventory":     gorm.Expr("total_inventory - ?", qty),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyReject(ctx context.Context, variantID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.VariantInventory{}).
		Where("variant_id = ? AND in_escrow_inventory >= ?", variantID, qty).
		Updates(map[string]any{
			"in_escrow_inventory": gorm.Expr("in_escrow_inventory - ?", qty),
			"rejected_inventory":  gorm.Expr("rejected_inventory + ?", qty),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ApplyRestock(ctx context.Context, variantID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.VariantInventory{}).
		Where("variant_id = ? AND rejected_inventory >= ?", variantID, qty).
		Updates(map[string]any{
			"rejected_inventory":  gorm.Expr("rejected_inventory - ?", qty),
			"available_inventory": gorm.Expr("available_inventory + ?", qty),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) RecordMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, variantID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
