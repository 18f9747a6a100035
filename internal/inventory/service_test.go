package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/safetradehq/safetrade-backend/pkg/db"
	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.VariantInventory{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), dbpkg.NewWithConn(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedVariant(t *testing.T, conn *gorm.DB, available, total int) uuid.UUID {
	t.Helper()
	variantID := uuid.New()
	inv := models.VariantInventory{
		VariantID:          variantID,
		ProductID:          uuid.New(),
		SellerID:           uuid.New(),
		TotalInventory:     total,
		AvailableInventory: available,
	}
	if err := conn.Create(&inv).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variantID
}

func TestReserveMovesAvailableIntoEscrow(t *testing.T) {
	svc, conn := newTestService(t)
	variantID := seedVariant(t, conn, 5, 5)

	inv, err := svc.Reserve(context.Background(), MovementInput{VariantID: variantID, Quantity: 3})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if inv.AvailableInventory != 2 || inv.InEscrowInventory != 3 {
		t.Fatalf("unexpected counters after reserve: %+v", inv)
	}

	var movements []models.StockMovement
	if err := conn.Where("variant_id = ?", variantID).Find(&movements).Error; err != nil {
		t.Fatalf("load movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	m := movements[0]
	if m.Type != enums.StockMovementReserve || m.PreviousAvailable != 5 || m.NewAvailable != 2 || m.NewInEscrow != 3 {
		t.Fatalf("unexpected movement snapshot: %+v", m)
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	svc, conn := newTestService(t)
	variantID := seedVariant(t, conn, 2, 2)

	_, err := svc.Reserve(context.Background(), MovementInput{VariantID: variantID, Quantity: 3})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}

	inv, err := svc.Get(context.Background(), variantID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if inv.AvailableInventory != 2 || inv.InEscrowInventory != 0 {
		t.Fatalf("failed reserve must not change counters: %+v", inv)
	}
	var count int64
	if err := conn.Model(&models.StockMovement{}).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed reserve must not record a movement")
	}
}

func TestReleaseRestoresAvailable(t *testing.T) {
	svc, conn := newTestService(t)
	variantID := seedVariant(t, conn, 5, 5)
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, MovementInput{VariantID: variantID, Quantity: 4}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	inv, err := svc.Release(ctx, MovementInput{VariantID: variantID, Quantity: 4})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if inv.AvailableInventory != 5 || inv.InEscrowInventory != 0 || inv.TotalInventory != 5 {
		t.Fatalf("unexpected counters after release: %+v", inv)
	}
}

func TestOverReleaseRejected(t *testing.T) {
	svc, conn := newTestService(t)
	variantID := seedVariant(t, conn, 5, 5)
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, MovementInput{VariantID: variantID, Quantity: 1}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	_, err := svc.Release(ctx, MovementInput{VariantID: variantID, Quantity: 2})
	if !pkgerrors.HasCode(err, pkgerrors.CodeOverRelease) {
		t.Fatalf("expected OVER_RELEASE, got %v", err)
	}
}

func TestCommitRemovesFromCatalog(t *testing.T) {
	svc, conn := newTestService(t)
	variantID := seedVariant(t, conn, 5, 5)
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, MovementInput{VariantID: variantID, Quantity: 2}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	inv, err := svc.Commit(ctx, MovementInput{VariantID: variantID, Quantity: 2})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if inv.TotalInventory != 3 || inv.InEscrowInventory != 0 || inv.AvailableInventory != 3 {
		t.Fatalf("unexpected counters after commit: %+v", inv)
	}

	_, err = svc.Commit(ctx, MovementInput{VariantID: variantID, Quantity: 1})
	if !pkgerrors.HasCode(err, pkgerrors.CodeOverCommit) {
		t.Fatalf("expected OVER_COMMIT on empty escrow, got %v", err)
	}
}

func TestRejectThenRestock(t *testing.T) {
	svc, conn := newTestService(t)
	variantID := seedVariant(t, conn, 5, 5)
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, MovementInput{VariantID: variantID, Quantity: 2}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	inv, err := svc.Reject(ctx, MovementInput{VariantID: variantID, Quantity: 2})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if inv.RejectedInventory != 2 || inv.InEscrowInventory != 0 || inv.TotalInventory != 5 {
		t.Fatalf("unexpected counters after reject: %+v", inv)
	}

	inv, err = svc.Restock(ctx, MovementInput{VariantID: variantID, Quantity: 2})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if inv.RejectedInventory != 0 || inv.AvailableInventory != 5 {
		t.Fatalf("unexpected counters after restock: %+v", inv)
	}
}

func TestAddStockGrowsTotals(t *testing.T) {
	svc, conn := newTestService(t)
	variantID := seedVariant(t, conn, 1, 1)

	inv, err := svc.AddStock(context.Background(), MovementInput{VariantID: variantID, Quantity: 9})
	if err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if inv.TotalInventory != 10 || inv.AvailableInventory != 10 {
		t.Fatalf("unexpected counters after add: %+v", inv)
	}
}

func TestMovementValidation(t *testing.T) {
	svc, conn := newTestService(t)
	variantID := seedVariant(t, conn, 1, 1)
	ctx := context.Background()

	if _, err := svc.Reserve(ctx, MovementInput{VariantID: variantID, Quantity: 0}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for zero quantity, got %v", err)
	}
	if _, err := svc.Reserve(ctx, MovementInput{VariantID: uuid.Nil, Quantity: 1}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for nil variant, got %v", err)
	}
	if _, err := svc.Reserve(ctx, MovementInput{VariantID: uuid.New(), Quantity: 1}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for unknown variant, got %v", err)
	}
}

func TestEnsureVariantIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	input := EnsureVariantInput{VariantID: uuid.New(), ProductID: uuid.New(), SellerID: uuid.New(), LowStockThreshold: 2}

	first, err := svc.EnsureVariant(ctx, input)
	if err != nil {
		t.Fatalf("ensure variant: %v", err)
	}
	second, err := svc.EnsureVariant(ctx, input)
	if err != nil {
		t.Fatalf("ensure variant twice: %v", err)
	}
	if first.VariantID != second.VariantID {
		t.Fatalf("expected same counters row")
	}
	if second.LowStockThreshold != 2 {
		t.Fatalf("expected threshold preserved, got %d", second.LowStockThreshold)
	}
}
