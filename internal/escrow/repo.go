package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// Repository manages persistence for escrow transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.EscrowTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*models.EscrowTransaction, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error)
	GetByTrackingIDForUpdate(ctx context.Context, trackingID string) (*models.EscrowTransaction, error)
	Update(ctx context.Context, txn *models.EscrowTransaction) error
	ListDueAutoTransitions(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error)
	RescheduleAutoTransition(ctx context.Context, id uuid.UUID, attempts int, nextAt time.Time) error
	ClearAutoTransition(ctx context.Context, id uuid.UUID, observedType *enums.AutoTransitionType, observedAt *time.Time) error
	FlagForReview(ctx context.Context, id uuid.UUID, reason string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.EscrowTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error) {
	var txn models.EscrowTransaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) GetByTrackingID(ctx context.Context, trackingID string) (*models.EscrowTransaction, error) {
	var txn models.EscrowTransaction
	if err := r.db.WithContext(ctx).Where("tracking_id = ?", trackingID).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error) {
	var txn models.EscrowTransaction
	if err := r.lockingQuery(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) GetByTrackingIDForUpdate(ctx context.Context, trackingID string) (*models.EscrowTransaction, error) {
	var txn models.EscrowTransaction
	if err := r.lockingQuery(ctx).Where("tracking_id = ?", trackingID).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// lockingQuery takes the row lock without queueing. A concurrent holder
// surfaces as a lock-not-available error that callers map to BUSY.
func (r *repository) lockingQuery(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
	}
	return query
}

func (r *repository) Update(ctx context.Context, txn *models.EscrowTransaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *repository) ListDueAutoTransitions(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.EscrowTransaction
	if err := r.db.WithContext(ctx).
		Where("is_auto_transition_scheduled = ? AND next_auto_transition_at <= ? AND flagged_for_review = ?", true, now, false).
		Order("next_auto_transition_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) RescheduleAutoTransition(ctx context.Context, id uuid.UUID, attempts int, nextAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.EscrowTransaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"auto_transition_attempts": attempts,
			"next_auto_transition_at":  nextAt,
		}).Error
}

// ClearAutoTransition drops a schedule only if it still matches what the
// caller observed. A manual transition may have replaced the schedule
// between the sweep's read and this write; the guard keeps the fresh
// schedule intact.
func (r *repository) ClearAutoTransition(ctx context.Context, id uuid.UUID, observedType *enums.AutoTransitionType, observedAt *time.Time) error {
	query := r.db.WithContext(ctx).Model(&models.EscrowTransaction{}).
		Where("id = ?", id)
	if observedType == nil {
		query = query.Where("auto_transition_type IS NULL")
	} else {
		query = query.Where("auto_transition_type = ?", *observedType)
	}
	if observedAt == nil {
		query = query.Where("next_auto_transition_at IS NULL")
	} else {
		query = query.Where("next_auto_transition_at = ?", *observedAt)
	}
	return query.Updates(map[string]any{
		"is_auto_transition_scheduled": false,
		"auto_transition_type":         nil,
		"next_auto_transition_at":      nil,
		"auto_transition_attempts":     0,
	}).Error
}

func (r *repository) FlagForReview(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&models.EscrowTransaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"flagged_for_review":           true,
			"review_reason":                reason,
			"is_auto_transition_scheduled": false,
		}).Error
}
