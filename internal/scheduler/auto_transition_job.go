package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/safetradehq/safetrade-backend/internal/escrow"
	"github.com/safetradehq/safetrade-backend/pkg/config"
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

type transitionDriver interface {
	Transition(ctx context.Context, input escrow.TransitionInput) (*escrow.TransitionResult, error)
}

type dueTransitionRepo interface {
	ListDueAutoTransitions(ctx context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error)
	RescheduleAutoTransition(ctx context.Context, id uuid.UUID, attempts int, nextAt time.Time) error
	ClearAutoTransition(ctx context.Context, id uuid.UUID, observedType *enums.AutoTransitionType, observedAt *time.Time) error
	FlagForReview(ctx context.Context, id uuid.UUID, reason string) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// AutoTransitionJobParams configure the due-transition sweep.
type AutoTransitionJobParams struct {
	Logger *logger.Logger
	Escrow transitionDriver
	Repo   dueTransitionRepo
	Outbox outboxEmitter
	DB     txRunner
	Config config.SchedulerConfig
}

// NewAutoTransitionJob builds the job that fires due time-triggered
// transitions such as inspection windows opening or expiring.
func NewAutoTransitionJob(params AutoTransitionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Escrow == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("escrow repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	batchSize := params.Config.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	backoffBase := params.Config.BackoffBase
	if backoffBase <= 0 {
		backoffBase = time.Minute
	}
	return &autoTransitionJob{
		logg:        params.Logger,
		escrow:      params.Escrow,
		repo:        params.Repo,
		outbox:      params.Outbox,
		db:          params.DB,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		now:         time.Now,
	}, nil
}

type autoTransitionJob struct {
	logg        *logger.Logger
	escrow      transitionDriver
	repo        dueTransitionRepo
	outbox      outboxEmitter
	db          txRunner
	batchSize   int
	maxAttempts int
	backoffBase time.Duration
	now         func() time.Time
}

func (j *autoTransitionJob) Name() string { return "auto-transitions" }

func (j *autoTransitionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	due, err := j.repo.ListDueAutoTransitions(ctx, now, j.batchSize)
	if err != nil {
		return fmt.Errorf("list due transitions: %w", err)
	}

	var errs []error
	advanced := 0
	for _, txn := range due {
		if err := j.process(ctx, txn, now); err != nil {
			errs = append(errs, err)
			continue
		}
		advanced++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"due":      len(due),
		"advanced": advanced,
	})
	j.logg.Info(logCtx, "auto transition sweep complete")
	return multierr.Combine(errs...)
}

func (j *autoTransitionJob) process(ctx context.Context, txn models.EscrowTransaction, now time.Time) error {
	if txn.AutoTransitionType == nil {
		return j.repo.ClearAutoTransition(ctx, txn.ID, txn.AutoTransitionType, txn.NextAutoTransitionAt)
	}
	target, err := txn.AutoTransitionType.TargetStatus()
	if err != nil {
		return j.flag(ctx, txn, fmt.Sprintf("unknown auto transition type %q", *txn.AutoTransitionType))
	}

	_, err = j.escrow.Transition(ctx, escrow.TransitionInput{
		TransactionID: txn.ID,
		Target:        target,
		Actor:         escrow.SystemActor(),
		Notes:         "automatic transition: " + txn.AutoTransitionType.String(),
	})
	switch {
	case err == nil:
		return nil

	case pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition),
		pkgerrors.HasCode(err, pkgerrors.CodeNotPermitted),
		pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
		// A manual move beat the schedule; drop it without noise. The clear
		// is guarded on the schedule we read so a newer schedule written by
		// that manual move survives.
		logCtx := j.logg.WithTrackingID(ctx, txn.TrackingID)
		j.logg.Info(logCtx, "stale auto transition dropped")
		return j.repo.ClearAutoTransition(ctx, txn.ID, txn.AutoTransitionType, txn.NextAutoTransitionAt)

	default:
		attempts := txn.AutoTransitionAttempts + 1
		if attempts >= j.maxAttempts {
			return j.flag(ctx, txn, fmt.Sprintf("auto transition to %s failed %d times: %v", target, attempts, err))
		}
		nextAt := now.Add(j.backoff(attempts))
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"tracking_id": txn.TrackingID,
			"attempts":    attempts,
			"next_at":     nextAt,
		})
		j.logg.Warn(logCtx, "auto transition failed; backing off")
		if rescheduleErr := j.repo.RescheduleAutoTransition(ctx, txn.ID, attempts, nextAt); rescheduleErr != nil {
			return multierr.Append(
				fmt.Errorf("auto transition for %s: %w", txn.TrackingID, err),
				fmt.Errorf("reschedule %s: %w", txn.TrackingID, rescheduleErr),
			)
		}
		return fmt.Errorf("auto transition for %s: %w", txn.TrackingID, err)
	}
}

func (j *autoTransitionJob) backoff(attempts int) time.Duration {
	shift := attempts - 1
	if shift > 8 {
		shift = 8
	}
	return j.backoffBase * time.Duration(1<<shift)
}

func (j *autoTransitionJob) flag(ctx context.Context, txn models.EscrowTransaction, reason string) error {
	if err := j.repo.FlagForReview(ctx, txn.ID, reason); err != nil {
		return fmt.Errorf("flag transaction %s: %w", txn.TrackingID, err)
	}
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionFlagged,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   txn.ID,
			Version:       1,
			Data: payloads.TransactionFlaggedEvent{
				TransactionID: txn.ID,
				TrackingID:    txn.TrackingID,
				Reason:        reason,
			},
		})
	})
	if err != nil {
		return fmt.Errorf("emit flagged event for %s: %w", txn.TrackingID, err)
	}
	logCtx := j.logg.WithTrackingID(ctx, txn.TrackingID)
	j.logg.Warn(logCtx, "transaction flagged for review")
	return nil
}
