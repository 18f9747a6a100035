package disputes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetradehq/safetrade-backend/internal/escrow"
	"github.com/safetradehq/safetrade-backend/pkg/config"
	dbpkg "github.com/safetradehq/safetrade-backend/pkg/db"
	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
	"github.com/safetradehq/safetrade-backend/pkg/logger"
	"github.com/safetradehq/safetrade-backend/pkg/outbox"
	"github.com/safetradehq/safetrade-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// OpenInput files a dispute against a transaction. Only the buyer or the
// seller of the transaction may file.
type OpenInput struct {
	TrackingID  string
	Actor       escrow.Actor
	Reason      enums.DisputeReason
	Description string
}

// ResolveInput records an arbiter ruling. Disposition defaults to restock
// when the ruling favors the buyer.
type ResolveInput struct {
	DisputeID   uuid.UUID
	Actor       escrow.Actor
	Outcome     enums.DisputeStatus
	Disposition enums.StockDisposition
	Note        string
}

// ResolveResult pairs the updated dispute with the transition it drove.
type ResolveResult struct {
	Dispute    *models.Dispute
	Transition *escrow.TransitionResult
}

// Service is the dispute gate in front of the disputed status.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Dispute, error)
	Resolve(ctx context.Context, input ResolveInput) (*ResolveResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*models.Dispute, error)
}

type service struct {
	repo       Repository
	escrowRepo escrow.Repository
	escrowSvc  escrow.Service
	outbox     *outbox.Service
	tx         txRunner
	cfg        config.EscrowConfig
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the dispute gate with its collaborators.
func NewService(
	repo Repository,
	escrowRepo escrow.Repository,
	escrowSvc escrow.Service,
	ob *outbox.Service,
	tx txRunner,
	cfg config.EscrowConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispute repository required")
	}
	if escrowRepo == nil {
		return nil, fmt.Errorf("escrow repository required")
	}
	if escrowSvc == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:       repo,
		escrowRepo: escrowRepo,
		escrowSvc:  escrowSvc,
		outbox:     ob,
		tx:         tx,
		cfg:        cfg,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// disputableStatuses are the only statuses a dispute may interrupt.
var disputableStatuses = []enums.TransactionStatus{
	enums.TransactionStatusInspection,
	enums.TransactionStatusCompleted,
	enums.TransactionStatusFundsReleased,
}

func isDisputable(status enums.TransactionStatus) bool {
	for _, candidate := range disputableStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func (s *service) Open(ctx context.Context, input OpenInput) (*models.Dispute, error) {
	if strings.TrimSpace(input.TrackingID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid dispute reason %q", input.Reason))
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}

	var created *models.Dispute
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txn, err := s.escrowRepo.WithTx(tx).GetByTrackingIDForUpdate(ctx, input.TrackingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			if pkgerrors.IsLockNotAvailable(err) {
				return pkgerrors.Wrap(pkgerrors.CodeBusy, err, "transaction row is locked")
			}
			return err
		}

		var role enums.ActorRole
		switch input.Actor.ID {
		case txn.BuyerID:
			role = enums.ActorRoleBuyer
		case txn.SellerID:
			role = enums.ActorRoleSeller
		default:
			return pkgerrors.New(pkgerrors.CodeNotAParty, "only the buyer or seller may open a dispute")
		}

		if _, err := s.repo.WithTx(tx).GetByTransactionID(ctx, txn.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeAlreadyDisputed, "transaction already has a dispute")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if !isDisputable(txn.Status) {
			return pkgerrors.New(pkgerrors.CodeNotDisputable,
				fmt.Sprintf("transactions in status %s cannot be disputed", txn.Status)).
				WithDetails(map[string]any{
					"current_status":      txn.Status,
					"disputable_statuses": disputableStatuses,
				})
		}
		if deadline := s.disputeDeadline(txn); deadline != nil && s.now().After(*deadline) {
			return pkgerrors.New(pkgerrors.CodeNotDisputable, "dispute window has closed").
				WithDetails(map[string]any{"window_closed_at": deadline})
		}

		prior := txn.Status
		if _, err := s.escrowSvc.TransitionInTx(ctx, tx, escrow.TransitionInput{
			TransactionID: txn.ID,
			Target:        enums.TransactionStatusDisputed,
			Actor:         escrow.Actor{ID: input.Actor.ID, Role: role},
			Notes:         "dispute opened: " + input.Reason.String(),
		}); err != nil {
			return err
		}

		dispute := &models.Dispute{
			TransactionID: txn.ID,
			OpenedBy:      input.Actor.ID,
			OpenedByRole:  role,
			Reason:        input.Reason,
			Description:   input.Description,
			Status:        enums.DisputeStatusOpened,
			PriorStatus:   prior,
		}
		if err := s.repo.WithTx(tx).Create(ctx, dispute); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_disputes_transaction_id") {
				return pkgerrors.New(pkgerrors.CodeAlreadyDisputed, "transaction already has a dispute")
			}
			return err
		}

		created = dispute
		return s.emitOpened(ctx, tx, dispute, txn)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"dispute_id":  created.ID.String(),
			"tracking_id": input.TrackingID,
			"reason":      created.Reason,
		})
		s.logg.Info(logCtx, "dispute opened")
	}
	return created, nil
}

func (s *service) Resolve(ctx context.Context, input ResolveInput) (*ResolveResult, error) {
	if input.DisputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id is required")
	}
	if input.Outcome != enums.DisputeStatusResolvedBuyer && input.Outcome != enums.DisputeStatusResolvedSeller {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("outcome must be %s or %s", enums.DisputeStatusResolvedBuyer, enums.DisputeStatusResolvedSeller))
	}
	if input.Actor.Role != enums.ActorRoleArbiter {
		return nil, pkgerrors.New(pkgerrors.CodeNotPermitted, "only an arbiter may resolve disputes")
	}
	disposition := input.Disposition
	if disposition == "" {
		disposition = enums.StockDispositionRestock
	}
	if !disposition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid stock disposition %q", input.Disposition))
	}

	var result *ResolveResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dispute, err := repo.GetByIDForUpdate(ctx, input.DisputeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
			}
			return err
		}
		if dispute.Status.IsResolved() {
			return pkgerrors.New(pkgerrors.CodeConflict, "dispute is already resolved")
		}

		target := enums.TransactionStatusRefunded
		transitionInput := escrow.TransitionInput{
			TransactionID: dispute.TransactionID,
			Target:        target,
			Actor:         input.Actor,
			Notes:         input.Note,
		}
		if input.Outcome == enums.DisputeStatusResolvedSeller {
			target = enums.TransactionStatusFundsReleased
			transitionInput.Target = target
		} else {
			transitionInput.StockDisposition = disposition
		}

		transition, err := s.escrowSvc.TransitionInTx(ctx, tx, transitionInput)
		if err != nil {
			return err
		}

		now := s.now()
		arbiterID := input.Actor.ID
		dispute.Status = input.Outcome
		dispute.ResolvedBy = &arbiterID
		dispute.ResolvedAt = &now
		if input.Note != "" {
			note := input.Note
			dispute.ResolutionNote = &note
		}
		if err := repo.Update(ctx, dispute); err != nil {
			return err
		}

		if err := s.emitResolved(ctx, tx, dispute, transition.Transaction); err != nil {
			return err
		}
		result = &ResolveResult{Dispute: dispute, Transition: transition}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"dispute_id": result.Dispute.ID.String(),
			"outcome":    result.Dispute.Status,
		})
		s.logg.Info(logCtx, "dispute resolved")
	}
	// The transition ran inside our transaction, so its post-commit hooks
	// (cache invalidation, metrics) fire here once the commit is durable.
	s.escrowSvc.RunPostCommitHooks(ctx, *result.Transition)
	return result, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id is required")
	}
	dispute, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, err
	}
	return dispute, nil
}

func (s *service) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*models.Dispute, error) {
	if transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	dispute, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, err
	}
	return dispute, nil
}

// disputeDeadline returns when the dispute window closes, or nil when the
// transaction is still mid-flow and disputable indefinitely.
func (s *service) disputeDeadline(txn *models.EscrowTransaction) *time.Time {
	var anchor *time.Time
	switch txn.Status {
	case enums.TransactionStatusCompleted:
		anchor = txn.CompletedAt
	case enums.TransactionStatusFundsReleased:
		anchor = txn.FundsReleasedAt
	default:
		return nil
	}
	if anchor == nil {
		return nil
	}
	deadline := anchor.Add(s.cfg.DisputeGracePeriod())
	return &deadline
}

func (s *service) emitOpened(ctx context.Context, tx *gorm.DB, dispute *models.Dispute, txn *models.EscrowTransaction) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDisputeOpened,
		AggregateType: enums.AggregateDispute,
		AggregateID:   dispute.ID,
		Actor:         &outbox.ActorRef{UserID: dispute.OpenedBy, Role: dispute.OpenedByRole.String()},
		Version:       1,
		Data: payloads.DisputeOpenedEvent{
			DisputeID:     dispute.ID,
			TransactionID: txn.ID,
			TrackingID:    txn.TrackingID,
			OpenedBy:      dispute.OpenedBy,
			Reason:        dispute.Reason,
		},
	})
}

func (s *service) emitResolved(ctx context.Context, tx *gorm.DB, dispute *models.Dispute, txn *models.EscrowTransaction) error {
	var resolvedBy uuid.UUID
	if dispute.ResolvedBy != nil {
		resolvedBy = *dispute.ResolvedBy
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDisputeResolved,
		AggregateType: enums.AggregateDispute,
		AggregateID:   dispute.ID,
		Actor:         &outbox.ActorRef{UserID: resolvedBy, Role: enums.ActorRoleArbiter.String()},
		Version:       1,
		Data: payloads.DisputeResolvedEvent{
			DisputeID:     dispute.ID,
			TransactionID: dispute.TransactionID,
			TrackingID:    txn.TrackingID,
			Status:        dispute.Status,
			ResolvedBy:    resolvedBy,
		},
	})
}
