package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
)

// Service exposes the stock ledger operations. Movements that belong to a
// larger settlement step run against a tx-bound service obtained via WithTx;
// standalone calls open their own transaction.
type Service interface {
	WithTx(tx *gorm.DB) Service
	EnsureVariant(ctx context.Context, input EnsureVariantInput) (*models.VariantInventory, error)
	Get(ctx context.Context, variantID uuid.UUID) (*models.VariantInventory, error)
	AddStock(ctx context.Context, input MovementInput) (*models.VariantInventory, error)
	Reserve(ctx context.Context, input MovementInput) (*models.VariantInventory, error)
	Release(ctx context.Context, input MovementInput) (*models.VariantInventory, error)
	Commit(ctx context.Context, input MovementInput) (*models.VariantInventory, error)
	Reject(ctx context.Context, input MovementInput) (*models.VariantInventory, error)
	Restock(ctx context.Context, input MovementInput) (*models.VariantInventory, error)
	ListMovements(ctx context.Context, variantID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MovementInput identifies a stock movement and its audit trail.
type MovementInput struct {
	VariantID     uuid.UUID
	Quantity      int
	TransactionID *uuid.UUID
	ActorID       *uuid.UUID
	Notes         string
}

// EnsureVariantInput seeds the counters row for a variant.
type EnsureVariantInput struct {
	VariantID         uuid.UUID
	ProductID         uuid.UUID
	SellerID          uuid.UUID
	LowStockThreshold int
}

type service struct {
	repo   Repository
	runner txRunner
	bound  bool
}

// NewService wires the inventory ledger with its repository and tx runner.
func NewService(repo Repository, runner txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("inventory tx runner required")
	}
	return &service{repo: repo, runner: runner}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), runner: s.runner, bound: true}
}

func (s *service) EnsureVariant(ctx context.Context, input EnsureVariantInput) (*models.VariantInventory, error) {
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	existing, err := s.repo.Get(ctx, input.VariantID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	inv := &models.VariantInventory{
		VariantID:         input.VariantID,
		ProductID:         input.ProductID,
		SellerID:          input.SellerID,
		LowStockThreshold: input.LowStockThreshold,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *service) Get(ctx context.Context, variantID uuid.UUID) (*models.VariantInventory, error) {
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	inv, err := s.repo.Get(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant inventory not found")
		}
		return nil, err
	}
	return inv, nil
}

func (s *service) AddStock(ctx context.Context, input MovementInput) (*models.VariantInventory, error) {
	return s.move(ctx, enums.StockMovementAdd, input)
}

func (s *service) Reserve(ctx context.Context, input MovementInput) (*models.VariantInventory, error) {
	return s.move(ctx, enums.StockMovementReserve, input)
}

func (s *service) Release(ctx context.Context, input MovementInput) (*models.VariantInventory, error) {
	return s.move(ctx, enums.StockMovementRelease, input)
}

func (s *service) Commit(ctx context.Context, input MovementInput) (*models.VariantInventory, error) {
	return s.move(ctx, enums.StockMovementCommit, input)
}

func (s *service) Reject(ctx context.Context, input MovementInput) (*models.VariantInventory, error) {
	return s.move(ctx, enums.StockMovementReject, input)
}

func (s *service) Restock(ctx context.Context, input MovementInput) (*models.VariantInventory, error) {
	return s.move(ctx, enums.StockMovementRestock, input)
}

func (s *service) ListMovements(ctx context.Context, variantID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	return s.repo.ListMovements(ctx, variantID, limit)
}

func (s *service) move(ctx context.Context, movementType enums.StockMovementType, input MovementInput) (*models.VariantInventory, error) {
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if s.bound {
		return s.moveLocked(ctx, movementType, input)
	}
	var result *models.VariantInventory
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		bound := s.WithTx(tx).(*service)
		inv, err := bound.moveLocked(ctx, movementType, input)
		if err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// moveLocked takes the row lock, validates the guard, applies the guarded
// counter update, and records the audit movement with before/after snapshots.
func (s *service) moveLocked(ctx context.Context, movementType enums.StockMovementType, input MovementInput) (*models.VariantInventory, error) {
	before, err := s.repo.GetForUpdate(ctx, input.VariantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant inventory not found")
		}
		return nil, err
	}

	if err := guardMovement(movementType, before, input.Quantity); err != nil {
		return nil, err
	}

	affected, err := s.apply(ctx, movementType, input.VariantID, input.Quantity)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// The row lock should make this unreachable; the guard fires only
		// when a caller bypassed the lock.
		return nil, guardFailure(movementType, before, input.Quantity)
	}

	after, err := s.repo.Get(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		VariantID:         input.VariantID,
		Type:              movementType,
		Quantity:          input.Quantity,
		TransactionID:     input.TransactionID,
		ActorID:           input.ActorID,
		PreviousTotal:     before.TotalInventory,
		PreviousAvailable: before.AvailableInventory,
		PreviousInEscrow:  before.InEscrowInventory,
		PreviousPending:   before.PendingInspection,
		PreviousRejected:  before.RejectedInventory,
		NewTotal:          after.TotalInventory,
		NewAvailable:      after.AvailableInventory,
		NewInEscrow:       after.InEscrowInventory,
		NewPending:        after.PendingInspection,
		NewRejected:       after.RejectedInventory,
	}
	if input.Notes != "" {
		notes := input.Notes
		movement.Notes = &notes
	}
	if err := s.repo.RecordMovement(ctx, movement); err != nil {
		return nil, err
	}
	return after, nil
}

func (s *service) apply(ctx context.Context, movementType enums.StockMovementType, variantID uuid.UUID, qty int) (int64, error) {
	switch movementType {
	case enums.StockMovementAdd:
		return s.repo.ApplyAdd(ctx, variantID, qty)
	case enums.StockMovementReserve:
		return s.repo.ApplyReserve(ctx, variantID, qty)
	case enums.StockMovementRelease:
		return s.repo.ApplyRelease(ctx, variantID, qty)
	case enums.StockMovementCommit:
		return s.repo.ApplyCommit(ctx, variantID, qty)
	case enums.StockMovementReject:
		return s.repo.ApplyReject(ctx, variantID, qty)
	case enums.StockMovementRestock:
		return s.repo.ApplyRestock(ctx, variantID, qty)
	}
	return 0, fmt.Errorf("invalid stock movement type %q", movementType)
}

func guardMovement(movementType enums.StockMovementType, inv *models.VariantInventory, qty int) error {
	switch movementType {
	case enums.StockMovementReserve:
		if inv.AvailableInventory < qty {
			return guardFailure(movementType, inv, qty)
		}
	case enums.StockMovementRelease, enums.StockMovementReject:
		if inv.InEscrowInventory < qty {
			return guardFailure(movementType, inv, qty)
		}
	case enums.StockMovementCommit:
		if inv.InEscrowInventory < qty || inv.TotalInventory < qty {
			return guardFailure(movementType, inv, qty)
		}
	case enums.StockMovementRestock:
		if inv.RejectedInventory < qty {
			return guardFailure(movementType, inv, qty)
		}
	}
	return nil
}

func guardFailure(movementType enums.StockMovementType, inv *models.VariantInventory, qty int) error {
	details := map[string]any{
		"variant_id": inv.VariantID.String(),
		"requested":  qty,
		"available":  inv.AvailableInventory,
		"in_escrow":  inv.InEscrowInventory,
		"rejected":   inv.RejectedInventory,
	}
	switch movementType {
	case enums.StockMovementReserve:
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough available stock to reserve").WithDetails(details)
	case enums.StockMovementCommit:
		return pkgerrors.New(pkgerrors.CodeOverCommit, "commit exceeds escrowed stock").WithDetails(details)
	default:
		return pkgerrors.New(pkgerrors.CodeOverRelease, "release exceeds tracked stock").WithDetails(details)
	}
}
