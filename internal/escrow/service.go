package escrow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/safetradehq/safetrade-backend/internal/history"
	"github.com/safetradehq/safetrade-backend/internal/inventory"
	"github.com/safetradehq/safetrade-backend/pkg/config"
	dbpkg "github.com/safetradehq/safetrade-backend/pkg/db"
	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
	"github.com/safetradehq/safetrade-backend/pkg/logger"
	"github.com/safetradehq/safetrade-backend/pkg/outbox"
	"github.com/safetradehq/safetrade-backend/pkg/outbox/payloads"
)

// Actor is the identity driving an operation. Buyer and seller roles are
// derived from the transaction itself; arbiter and system are trusted from
// the caller's context.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// SystemActor is the scheduler's identity.
func SystemActor() Actor {
	return Actor{Role: enums.ActorRoleSystem}
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput opens a new escrow transaction and reserves stock for it.
type CreateInput struct {
	BuyerID              uuid.UUID
	VariantID            uuid.UUID
	Quantity             int
	Price                decimal.Decimal
	Currency             enums.Currency
	InspectionPeriodDays int
	ShippingAddress      string
	NegotiationID        *uuid.UUID
	Notes                string
}

// TransitionInput requests one move through the transition graph. Exactly
// one of TrackingID or TransactionID identifies the transaction.
type TransitionInput struct {
	TrackingID      string
	TransactionID   uuid.UUID
	Target          enums.TransactionStatus
	Actor           Actor
	TrackingNumber  string
	ShippingCarrier string
	Notes           string

	// StockDisposition directs where escrowed units go on a refund edge:
	// back to available (default) or into rejected inventory.
	StockDisposition enums.StockDisposition
}

// TransitionResult reports an accepted transition and its ledger effects.
// Create reports through the same shape with an empty PreviousStatus.
type TransitionResult struct {
	Transaction    *models.EscrowTransaction
	PreviousStatus enums.TransactionStatus
	ActorRole      enums.ActorRole
	StockReserved  bool
	StockReleased  bool
	StockRejected  bool
	StockCommitted bool
}

// PostCommitHook runs after a transition's transaction commits. Hooks must
// not fail the transition; they log their own errors.
type PostCommitHook func(ctx context.Context, result TransitionResult)

// Service is the escrow state machine.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.EscrowTransaction, error)
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	// TransitionInTx runs one transition inside a caller-owned transaction.
	// Post-commit hooks do not fire; the caller owns the commit.
	TransitionInTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*TransitionResult, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*models.EscrowTransaction, error)
	ActionsFor(txn *models.EscrowTransaction, actor Actor) []Action
	RegisterPostCommitHook(hook PostCommitHook)
	// RunPostCommitHooks fires the registered hooks for a result produced
	// through TransitionInTx, once the caller's transaction has committed.
	RunPostCommitHooks(ctx context.Context, result TransitionResult)
}

type service struct {
	repo      Repository
	inventory inventory.Service
	history   history.Service
	outbox    *outbox.Service
	tx        txRunner
	cfg       config.EscrowConfig
	logg      *logger.Logger
	now       func() time.Time
	hooks     []PostCommitHook
}

// NewService wires the state machine with its collaborators.
func NewService(
	repo Repository,
	inv inventory.Service,
	hist history.Service,
	ob *outbox.Service,
	tx txRunner,
	cfg config.EscrowConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("escrow repository required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if hist == nil {
		return nil, fmt.Errorf("history service required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:      repo,
		inventory: inv,
		history:   hist,
		outbox:    ob,
		tx:        tx,
		cfg:       cfg,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) RegisterPostCommitHook(hook PostCommitHook) {
	if hook != nil {
		s.hooks = append(s.hooks, hook)
	}
}

func (s *service) RunPostCommitHooks(ctx context.Context, result TransitionResult) {
	for _, hook := range s.hooks {
		hook(ctx, result)
	}
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.EscrowTransaction, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}
	inspectionDays := input.InspectionPeriodDays
	if inspectionDays <= 0 {
		inspectionDays = s.cfg.DefaultInspectionPeriodDays
	}

	var created *models.EscrowTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inv := s.inventory.WithTx(tx)

		counters, err := inv.Get(ctx, input.VariantID)
		if err != nil {
			return err
		}
		if counters.SellerID == input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeSelfTrade, "buyer cannot purchase their own listing")
		}

		now := s.now()
		txn := &models.EscrowTransaction{
			ProductID:            counters.ProductID,
			VariantID:            input.VariantID,
			BuyerID:              input.BuyerID,
			SellerID:             counters.SellerID,
			Quantity:             input.Quantity,
			Price:                input.Price,
			TotalAmount:          input.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
			Currency:             currency,
			Status:               enums.TransactionStatusInitiated,
			StatusChangedAt:      now,
			InspectionPeriodDays: inspectionDays,
			NegotiationID:        input.NegotiationID,
		}
		if input.ShippingAddress != "" {
			addr := input.ShippingAddress
			txn.ShippingAddress = &addr
		}
		if input.Notes != "" {
			notes := input.Notes
			txn.Notes = &notes
		}

		txn.TrackingID = GenerateTrackingID(input.VariantID, input.BuyerID, counters.SellerID, now)
		if err := repo.Create(ctx, txn); err != nil {
			if !dbpkg.IsUniqueViolation(err, "ux_escrow_transactions_tracking_id") {
				return err
			}
			txn.TrackingID = GenerateTrackingID(input.VariantID, input.BuyerID, counters.SellerID, now)
			if err := repo.Create(ctx, txn); err != nil {
				return err
			}
		}

		after, err := inv.Reserve(ctx, inventory.MovementInput{
			VariantID:     input.VariantID,
			Quantity:      input.Quantity,
			TransactionID: &txn.ID,
			ActorID:       &input.BuyerID,
			Notes:         "reserved for " + txn.TrackingID,
		})
		if err != nil {
			return err
		}

		actorID := input.BuyerID
		if _, err := s.history.WithTx(tx).Record(ctx, history.RecordInput{
			TransactionID: txn.ID,
			NewStatus:     enums.TransactionStatusInitiated,
			ActorID:       &actorID,
			ActorRole:     enums.ActorRoleBuyer,
			Notes:         fmt.Sprintf("escrow opened for %d unit(s)", input.Quantity),
		}); err != nil {
			return err
		}

		actorRef := &outbox.ActorRef{UserID: input.BuyerID, Role: enums.ActorRoleBuyer.String()}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionCreated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         actorRef,
			Version:       1,
			Data: payloads.TransactionCreatedEvent{
				TransactionID: txn.ID,
				TrackingID:    txn.TrackingID,
				VariantID:     txn.VariantID,
				BuyerID:       txn.BuyerID,
				SellerID:      txn.SellerID,
				Quantity:      txn.Quantity,
				TotalAmount:   txn.TotalAmount,
				Currency:      txn.Currency,
			},
		}); err != nil {
			return err
		}
		if err := s.emitStockEvents(ctx, tx, actorRef, enums.StockMovementReserve, txn, after); err != nil {
			return err
		}

		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithTrackingID(ctx, created.TrackingID)
		s.logg.Info(logCtx, "escrow transaction created")
	}
	s.RunPostCommitHooks(ctx, TransitionResult{
		Transaction:   created,
		ActorRole:     enums.ActorRoleBuyer,
		StockReserved: true,
	})
	return created, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := s.TransitionInTx(ctx, tx, input)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"tracking_id": result.Transaction.TrackingID,
			"from":        result.PreviousStatus,
			"to":          result.Transaction.Status,
			"actor_role":  result.ActorRole,
		})
		s.logg.Info(logCtx, "transaction transitioned")
	}
	s.RunPostCommitHooks(ctx, *result)
	return result, nil
}

func (s *service) TransitionInTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*TransitionResult, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target status %q", input.Target))
	}
	if input.TrackingID == "" && input.TransactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction identifier is required")
	}
	repo := s.repo.WithTx(tx)

	txn, err := s.lockTransaction(ctx, repo, input)
	if err != nil {
		return nil, err
	}

	role, err := s.effectiveRole(txn, input.Actor)
	if err != nil {
		return nil, err
	}

	e := findEdge(txn.Status, input.Target)
	if e == nil {
		return nil, pkgerrors.New(pkgerrors.CodeIllegalTransition,
			fmt.Sprintf("cannot move from %s to %s", txn.Status, input.Target)).
			WithDetails(map[string]any{
				"current_status":   txn.Status,
				"requested_status": input.Target,
				"valid_targets":    validTargets(txn.Status, ""),
				"valid_actions":    AvailableActions(txn.Status, role),
			})
	}
	if !e.allowsRole(role) {
		return nil, pkgerrors.New(pkgerrors.CodeNotPermitted,
			fmt.Sprintf("role %s may not move %s to %s", role, txn.Status, input.Target)).
			WithDetails(map[string]any{
				"current_status": txn.Status,
				"actor_role":     role,
				"allowed_roles":  e.roles,
			})
	}
	if input.Target == enums.TransactionStatusShipped {
		if strings.TrimSpace(input.TrackingNumber) == "" || strings.TrimSpace(input.ShippingCarrier) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number and shipping carrier are required to ship").
				WithDetails(map[string]any{"fields": []string{"tracking_number", "shipping_carrier"}})
		}
	}

	now := s.now()
	previous := txn.Status
	txn.Status = input.Target
	txn.StatusChangedAt = now
	clearSchedule(txn)

	if input.TrackingNumber != "" {
		tn := input.TrackingNumber
		txn.TrackingNumber = &tn
	}
	if input.ShippingCarrier != "" {
		carrier := input.ShippingCarrier
		txn.ShippingCarrier = &carrier
	}

	res := TransitionResult{PreviousStatus: previous, ActorRole: role}
	if err := s.applyEntryEffects(ctx, tx, txn, &res, input, now); err != nil {
		return nil, err
	}

	if err := repo.Update(ctx, txn); err != nil {
		return nil, err
	}

	var actorID *uuid.UUID
	if role == enums.ActorRoleBuyer || role == enums.ActorRoleSeller || role == enums.ActorRoleArbiter {
		id := input.Actor.ID
		actorID = &id
	}
	if _, err := s.history.WithTx(tx).Record(ctx, history.RecordInput{
		TransactionID:  txn.ID,
		PreviousStatus: &previous,
		NewStatus:      txn.Status,
		ActorID:        actorID,
		ActorRole:      role,
		Notes:          input.Notes,
	}); err != nil {
		return nil, err
	}

	actorRef := actorRefFor(input.Actor, role)
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventTransactionStateChanged,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   txn.ID,
		Actor:         actorRef,
		Version:       1,
		Data: payloads.TransactionStateChangedEvent{
			TransactionID:  txn.ID,
			TrackingID:     txn.TrackingID,
			PreviousStatus: previous,
			NewStatus:      txn.Status,
			ActorRole:      role,
			ChangedAt:      now,
		},
	}); err != nil {
		return nil, err
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   txn.ID,
		Actor:         actorRef,
		Version:       1,
		Data: payloads.NotificationRequestedEvent{
			TransactionID: txn.ID,
			TrackingID:    txn.TrackingID,
			BuyerID:       txn.BuyerID,
			SellerID:      txn.SellerID,
			Type:          "status_" + txn.Status.String(),
		},
	}); err != nil {
		return nil, err
	}
	if err := s.emitSettlementEvents(ctx, tx, actorRef, txn); err != nil {
		return nil, err
	}

	res.Transaction = txn
	return &res, nil
}

func (s *service) GetByTrackingID(ctx context.Context, trackingID string) (*models.EscrowTransaction, error) {
	if strings.TrimSpace(trackingID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required")
	}
	txn, err := s.repo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, err
	}
	return txn, nil
}

func (s *service) ActionsFor(txn *models.EscrowTransaction, actor Actor) []Action {
	if txn == nil {
		return nil
	}
	role, err := s.effectiveRole(txn, actor)
	if err != nil {
		return nil
	}
	return AvailableActions(txn.Status, role)
}

func (s *service) lockTransaction(ctx context.Context, repo Repository, input TransitionInput) (*models.EscrowTransaction, error) {
	var (
		txn *models.EscrowTransaction
		err error
	)
	if input.TransactionID != uuid.Nil {
		txn, err = repo.GetByIDForUpdate(ctx, input.TransactionID)
	} else {
		txn, err = repo.GetByTrackingIDForUpdate(ctx, input.TrackingID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		if pkgerrors.IsLockNotAvailable(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeBusy, err, "transaction row is locked")
		}
		return nil, err
	}
	return txn, nil
}

func (s *service) effectiveRole(txn *models.EscrowTransaction, actor Actor) (enums.ActorRole, error) {
	switch actor.Role {
	case enums.ActorRoleSystem:
		return enums.ActorRoleSystem, nil
	case enums.ActorRoleArbiter:
		return enums.ActorRoleArbiter, nil
	}
	switch actor.ID {
	case txn.BuyerID:
		return enums.ActorRoleBuyer, nil
	case txn.SellerID:
		return enums.ActorRoleSeller, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeNotAParty, "actor is neither buyer nor seller")
}

// applyEntryEffects runs the per-status side effects: lifecycle timestamps,
// auto-transition scheduling, and the ledger moves tied to settlement edges.
func (s *service) applyEntryEffects(ctx context.Context, tx *gorm.DB, txn *models.EscrowTransaction, res *TransitionResult, input TransitionInput, now time.Time) error {
	switch txn.Status {
	case enums.TransactionStatusDelivered:
		schedule(txn, enums.AutoTransitionInspectionStart, now.Add(s.cfg.DeliveryGracePeriod()))

	case enums.TransactionStatusInspection:
		end := now.Add(time.Duration(txn.InspectionPeriodDays) * 24 * time.Hour)
		txn.InspectionEndDate = &end
		schedule(txn, enums.AutoTransitionInspectionComplete, end)

	case enums.TransactionStatusCompleted:
		txn.CompletedAt = &now
		if err := s.commitStock(ctx, tx, txn, res, input.Actor, now); err != nil {
			return err
		}
		if delay := s.cfg.PayoutDelay(); delay > 0 {
			schedule(txn, enums.AutoTransitionFundsRelease, now.Add(delay))
		}

	case enums.TransactionStatusFundsReleased:
		// A dispute resolved for the seller can re-enter funds_released.
		// The first release timestamp is the payout anchor and must hold.
		if txn.FundsReleasedAt == nil {
			txn.FundsReleasedAt = &now
		}
		if err := s.commitStock(ctx, tx, txn, res, input.Actor, now); err != nil {
			return err
		}

	case enums.TransactionStatusCancelled:
		txn.CancelledAt = &now
		if err := s.releaseStock(ctx, tx, txn, res, input.Actor); err != nil {
			return err
		}

	case enums.TransactionStatusRefunded:
		if input.StockDisposition == enums.StockDispositionReject {
			if err := s.rejectStock(ctx, tx, txn, res, input.Actor); err != nil {
				return err
			}
			return nil
		}
		if err := s.releaseStock(ctx, tx, txn, res, input.Actor); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) commitStock(ctx context.Context, tx *gorm.DB, txn *models.EscrowTransaction, res *TransitionResult, actor Actor, now time.Time) error {
	if txn.StockCommittedAt != nil {
		return nil
	}
	after, err := s.inventory.WithTx(tx).Commit(ctx, inventory.MovementInput{
		VariantID:     txn.VariantID,
		Quantity:      txn.Quantity,
		TransactionID: &txn.ID,
		ActorID:       actorIDPtr(actor),
		Notes:         "settled " + txn.TrackingID,
	})
	if err != nil {
		return err
	}
	txn.StockCommittedAt = &now
	res.StockCommitted = true
	actorRef := actorRefFor(actor, res.ActorRole)
	return s.emitStockEvents(ctx, tx, actorRef, enums.StockMovementCommit, txn, after)
}

func (s *service) releaseStock(ctx context.Context, tx *gorm.DB, txn *models.EscrowTransaction, res *TransitionResult, actor Actor) error {
	// Stock already committed means there is nothing held in escrow to
	// give back; the refund is money-side only.
	if txn.StockCommittedAt != nil {
		return nil
	}
	after, err := s.inventory.WithTx(tx).Release(ctx, inventory.MovementInput{
		VariantID:     txn.VariantID,
		Quantity:      txn.Quantity,
		TransactionID: &txn.ID,
		ActorID:       actorIDPtr(actor),
		Notes:         "released from " + txn.TrackingID,
	})
	if err != nil {
		return err
	}
	res.StockReleased = true
	actorRef := actorRefFor(actor, res.ActorRole)
	return s.emitStockEvents(ctx, tx, actorRef, enums.StockMovementRelease, txn, after)
}

// rejectStock parks escrowed units in rejected inventory instead of putting
// them back on sale, for refunds where the goods came back unsellable.
func (s *service) rejectStock(ctx context.Context, tx *gorm.DB, txn *models.EscrowTransaction, res *TransitionResult, actor Actor) error {
	if txn.StockCommittedAt != nil {
		return nil
	}
	after, err := s.inventory.WithTx(tx).Reject(ctx, inventory.MovementInput{
		VariantID:     txn.VariantID,
		Quantity:      txn.Quantity,
		TransactionID: &txn.ID,
		ActorID:       actorIDPtr(actor),
		Notes:         "rejected from " + txn.TrackingID,
	})
	if err != nil {
		return err
	}
	res.StockRejected = true
	actorRef := actorRefFor(actor, res.ActorRole)
	return s.emitStockEvents(ctx, tx, actorRef, enums.StockMovementReject, txn, after)
}

// emitSettlementEvents queues the payout or refund request tied to the edge
// just taken.
func (s *service) emitSettlementEvents(ctx context.Context, tx *gorm.DB, actorRef *outbox.ActorRef, txn *models.EscrowTransaction) error {
	switch txn.Status {
	case enums.TransactionStatusFundsReleased:
		// Deduped on the transaction aggregate: re-entering funds_released
		// after a dispute must never request a second payout.
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutRequested,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         actorRef,
			Version:       1,
			Data: payloads.PayoutRequestedEvent{
				TransactionID: txn.ID,
				TrackingID:    txn.TrackingID,
				SellerID:      txn.SellerID,
				Amount:        txn.TotalAmount,
				Currency:      txn.Currency,
			},
		})
	case enums.TransactionStatusRefunded:
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundRequested,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Actor:         actorRef,
			Version:       1,
			Data: payloads.RefundRequestedEvent{
				TransactionID: txn.ID,
				TrackingID:    txn.TrackingID,
				BuyerID:       txn.BuyerID,
				Amount:        txn.TotalAmount,
				Currency:      txn.Currency,
			},
		})
	}
	return nil
}

func (s *service) emitStockEvents(ctx context.Context, tx *gorm.DB, actorRef *outbox.ActorRef, movementType enums.StockMovementType, txn *models.EscrowTransaction, after *models.VariantInventory) error {
	eventType := stockEventType(movementType)
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateInventory,
		AggregateID:   txn.VariantID,
		Actor:         actorRef,
		Version:       1,
		Data: payloads.StockMovementEvent{
			VariantID:     txn.VariantID,
			TransactionID: &txn.ID,
			Type:          movementType,
			Quantity:      txn.Quantity,
			Available:     after.AvailableInventory,
			InEscrow:      after.InEscrowInventory,
			Rejected:      after.RejectedInventory,
			Total:         after.TotalInventory,
		},
	}); err != nil {
		return err
	}
	if after.IsLowStock() {
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLowStock,
			AggregateType: enums.AggregateInventory,
			AggregateID:   txn.VariantID,
			Actor:         actorRef,
			Version:       1,
			Data: payloads.LowStockEvent{
				VariantID: after.VariantID,
				SellerID:  after.SellerID,
				Available: after.AvailableInventory,
				Threshold: after.LowStockThreshold,
			},
		})
	}
	return nil
}

func stockEventType(movementType enums.StockMovementType) enums.OutboxEventType {
	switch movementType {
	case enums.StockMovementReserve:
		return enums.EventStockReserved
	case enums.StockMovementRelease:
		return enums.EventStockReleased
	case enums.StockMovementCommit:
		return enums.EventStockCommitted
	case enums.StockMovementReject:
		return enums.EventStockRejected
	default:
		return enums.EventStockRestocked
	}
}

func schedule(txn *models.EscrowTransaction, transitionType enums.AutoTransitionType, at time.Time) {
	txn.IsAutoTransitionScheduled = true
	txn.AutoTransitionType = &transitionType
	txn.NextAutoTransitionAt = &at
	txn.AutoTransitionAttempts = 0
}

func clearSchedule(txn *models.EscrowTransaction) {
	txn.IsAutoTransitionScheduled = false
	txn.AutoTransitionType = nil
	txn.NextAutoTransitionAt = nil
	txn.AutoTransitionAttempts = 0
}

func actorIDPtr(actor Actor) *uuid.UUID {
	if actor.ID == uuid.Nil {
		return nil
	}
	id := actor.ID
	return &id
}

func actorRefFor(actor Actor, role enums.ActorRole) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: actor.ID, Role: role.String()}
}
