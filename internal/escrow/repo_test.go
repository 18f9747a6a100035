package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

func (e *testEnv) reloadTransaction(t *testing.T, id uuid.UUID) models.EscrowTransaction {
	t.Helper()
	var txn models.EscrowTransaction
	if err := e.conn.First(&txn, "id = ?", id).Error; err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	return txn
}

func TestClearAutoTransitionSkipsReplacedSchedule(t *testing.T) {
	env := newTestEnv(t)
	txn, _ := env.createTransaction(t, 5, 1)
	repo := NewRepository(env.conn)
	ctx := context.Background()

	staleType := enums.AutoTransitionInspectionStart
	staleAt := env.now.Add(-time.Hour)
	if err := env.conn.Model(&models.EscrowTransaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]any{
			"is_auto_transition_scheduled": true,
			"auto_transition_type":         staleType,
			"next_auto_transition_at":      staleAt,
			"auto_transition_attempts":     2,
		}).Error; err != nil {
		t.Fatalf("seed stale schedule: %v", err)
	}

	// Another writer replaces the schedule before the clear lands.
	freshType := enums.AutoTransitionInspectionComplete
	freshAt := env.now.Add(72 * time.Hour)
	if err := env.conn.Model(&models.EscrowTransaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]any{
			"auto_transition_type":     freshType,
			"next_auto_transition_at":  freshAt,
			"auto_transition_attempts": 0,
		}).Error; err != nil {
		t.Fatalf("replace schedule: %v", err)
	}

	if err := repo.ClearAutoTransition(ctx, txn.ID, &staleType, &staleAt); err != nil {
		t.Fatalf("clear with stale observation: %v", err)
	}

	got := env.reloadTransaction(t, txn.ID)
	if !got.IsAutoTransitionScheduled {
		t.Fatal("replacement schedule must survive a stale clear")
	}
	if got.AutoTransitionType == nil || *got.AutoTransitionType != freshType {
		t.Fatalf("expected %s to remain scheduled, got %v", freshType, got.AutoTransitionType)
	}
	if got.NextAutoTransitionAt == nil || !got.NextAutoTransitionAt.Equal(freshAt) {
		t.Fatalf("expected due time %s, got %v", freshAt, got.NextAutoTransitionAt)
	}
}

func TestClearAutoTransitionDropsMatchingSchedule(t *testing.T) {
	env := newTestEnv(t)
	txn, _ := env.createTransaction(t, 5, 1)
	repo := NewRepository(env.conn)

	scheduledType := enums.AutoTransitionFundsRelease
	scheduledAt := env.now.Add(-time.Minute)
	if err := env.conn.Model(&models.EscrowTransaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]any{
			"is_auto_transition_scheduled": true,
			"auto_transition_type":         scheduledType,
			"next_auto_transition_at":      scheduledAt,
			"auto_transition_attempts":     1,
		}).Error; err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	if err := repo.ClearAutoTransition(context.Background(), txn.ID, &scheduledType, &scheduledAt); err != nil {
		t.Fatalf("clear: %v", err)
	}

	got := env.reloadTransaction(t, txn.ID)
	if got.IsAutoTransitionScheduled {
		t.Fatal("matching schedule must be cleared")
	}
	if got.AutoTransitionType != nil {
		t.Fatalf("expected type cleared, got %s", *got.AutoTransitionType)
	}
	if got.AutoTransitionAttempts != 0 {
		t.Fatalf("expected attempts reset, got %d", got.AutoTransitionAttempts)
	}
}
