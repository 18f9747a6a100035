package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

// Service records and reads the immutable status-change log.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Record(ctx context.Context, input RecordInput) (*models.TransactionHistory, error)
	List(ctx context.Context, transactionID uuid.UUID) ([]models.TransactionHistory, error)
}

// RecordInput captures one status change. PreviousStatus is nil for the
// creation row; ActorID is nil for scheduler-driven changes.
type RecordInput struct {
	TransactionID  uuid.UUID
	PreviousStatus *enums.TransactionStatus
	NewStatus      enums.TransactionStatus
	ActorID        *uuid.UUID
	ActorRole      enums.ActorRole
	Notes          string
}

type service struct {
	repo Repository
}

// NewService wires a history service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.TransactionHistory, error) {
	if input.TransactionID == uuid.Nil {
		return nil, fmt.Errorf("transaction id is required")
	}
	if !input.NewStatus.IsValid() {
		return nil, fmt.Errorf("invalid status %q", input.NewStatus)
	}
	if input.PreviousStatus != nil && !input.PreviousStatus.IsValid() {
		return nil, fmt.Errorf("invalid previous status %q", *input.PreviousStatus)
	}
	role := input.ActorRole
	if role == "" {
		role = enums.ActorRoleSystem
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid actor role %q", role)
	}

	row := &models.TransactionHistory{
		TransactionID:  input.TransactionID,
		PreviousStatus: input.PreviousStatus,
		NewStatus:      input.NewStatus,
		ActorID:        input.ActorID,
		ActorRole:      role,
	}
	if input.Notes != "" {
		notes := input.Notes
		row.Notes = &notes
	}
	if err := s.repo.Append(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) List(ctx context.Context, transactionID uuid.UUID) ([]models.TransactionHistory, error) {
	if transactionID == uuid.Nil {
		return nil, fmt.Errorf("transaction id is required")
	}
	return s.repo.ListByTransactionID(ctx, transactionID)
}
