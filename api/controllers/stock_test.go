package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safetradehq/safetrade-backend/internal/inventory"
	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

type fakeInventoryService struct {
	inv          *models.VariantInventory
	getErr       error
	getCalls     int
	addInput     *inventory.MovementInput
	restockInput *inventory.MovementInput
	ensured      *inventory.EnsureVariantInput
	movements    []models.StockMovement
	listLimit    int
}

func (f *fakeInventoryService) WithTx(*gorm.DB) inventory.Service { return f }

func (f *fakeInventoryService) EnsureVariant(_ context.Context, input inventory.EnsureVariantInput) (*models.VariantInventory, error) {
	f.ensured = &input
	return f.inv, nil
}

func (f *fakeInventoryService) Get(context.Context, uuid.UUID) (*models.VariantInventory, error) {
	f.getCalls++
	return f.inv, f.getErr
}

func (f *fakeInventoryService) AddStock(_ context.Context, input inventory.MovementInput) (*models.VariantInventory, error) {
	f.addInput = &input
	return f.inv, nil
}

func (f *fakeInventoryService) Reserve(context.Context, inventory.MovementInput) (*models.VariantInventory, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeInventoryService) Release(context.Context, inventory.MovementInput) (*models.VariantInventory, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeInventoryService) Commit(context.Context, inventory.MovementInput) (*models.VariantInventory, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeInventoryService) Reject(context.Context, inventory.MovementInput) (*models.VariantInventory, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeInventoryService) Restock(_ context.Context, input inventory.MovementInput) (*models.VariantInventory, error) {
	f.restockInput = &input
	return f.inv, nil
}

func (f *fakeInventoryService) ListMovements(_ context.Context, _ uuid.UUID, limit int) ([]models.StockMovement, error) {
	f.listLimit = limit
	return f.movements, nil
}

type fakeStockCache struct {
	values  map[string]string
	sets    int
	deleted []string
	getErr  error
}

func (f *fakeStockCache) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return value, nil
}

func (f *fakeStockCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = fmt.Sprint(value)
	f.sets++
	return nil
}

func (f *fakeStockCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeStockCache) StockKey(variantID string) string {
	return "st:stock:" + variantID
}

func sampleInventory(variantID uuid.UUID) *models.VariantInventory {
	return &models.VariantInventory{
		VariantID:          variantID,
		ProductID:          uuid.New(),
		SellerID:           uuid.New(),
		TotalInventory:     10,
		AvailableInventory: 6,
		InEscrowInventory:  4,
		LowStockThreshold:  2,
	}
}

func TestStockGetPopulatesCacheOnMiss(t *testing.T) {
	variantID := uuid.New()
	svc := &fakeInventoryService{inv: sampleInventory(variantID)}
	cache := &fakeStockCache{}

	req := httptest.NewRequest(http.MethodGet, "/v1/variants/"+variantID.String()+"/stock", nil)
	req = withURLParam(req, "variantId", variantID.String())

	rec := httptest.NewRecorder()
	StockGet(svc, cache, 5*time.Minute, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.getCalls != 1 {
		t.Fatalf("expected one database read, got %d", svc.getCalls)
	}
	if cache.sets != 1 {
		t.Fatalf("expected snapshot cached, got %d sets", cache.sets)
	}

	var envelope struct {
		Data stockSnapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Available != 6 || envelope.Data.Cached {
		t.Fatalf("unexpected snapshot %+v", envelope.Data)
	}
}

func TestStockGetServesCachedSnapshot(t *testing.T) {
	variantID := uuid.New()
	svc := &fakeInventoryService{inv: sampleInventory(variantID)}
	cached, _ := json.Marshal(snapshotFrom(svc.inv))
	cache := &fakeStockCache{values: map[string]string{"st:stock:" + variantID.String(): string(cached)}}

	req := httptest.NewRequest(http.MethodGet, "/v1/variants/"+variantID.String()+"/stock", nil)
	req = withURLParam(req, "variantId", variantID.String())

	rec := httptest.NewRecorder()
	StockGet(svc, cache, 5*time.Minute, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.getCalls != 0 {
		t.Fatalf("expected cache hit to skip the database, got %d reads", svc.getCalls)
	}

	var envelope struct {
		Data stockSnapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Cached {
		t.Fatal("expected cached flag on cache hits")
	}
}

func TestStockGetFallsThroughOnCacheFailure(t *testing.T) {
	variantID := uuid.New()
	svc := &fakeInventoryService{inv: sampleInventory(variantID)}
	cache := &fakeStockCache{getErr: errors.New("redis down")}

	req := httptest.NewRequest(http.MethodGet, "/v1/variants/"+variantID.String()+"/stock", nil)
	req = withURLParam(req, "variantId", variantID.String())

	rec := httptest.NewRecorder()
	StockGet(svc, cache, 5*time.Minute, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite cache failure, got %d", rec.Code)
	}
	if svc.getCalls != 1 {
		t.Fatalf("expected database fallback, got %d reads", svc.getCalls)
	}
}

func TestStockAddRecordsActor(t *testing.T) {
	variantID := uuid.New()
	sellerID := uuid.New()
	svc := &fakeInventoryService{inv: sampleInventory(variantID)}

	req := httptest.NewRequest(http.MethodPost, "/v1/variants/"+variantID.String()+"/stock/add",
		bytes.NewBufferString(`{"quantity":5,"notes":"restock shipment"}`))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, sellerID, enums.ActorRoleSeller)
	req = withURLParam(req, "variantId", variantID.String())

	rec := httptest.NewRecorder()
	StockAdd(svc, nil, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.addInput.Quantity != 5 {
		t.Fatalf("unexpected quantity %d", svc.addInput.Quantity)
	}
	if svc.addInput.ActorID == nil || *svc.addInput.ActorID != sellerID {
		t.Fatal("expected actor id threaded from context")
	}
}

func TestStockAddInvalidatesCachedSnapshot(t *testing.T) {
	variantID := uuid.New()
	svc := &fakeInventoryService{inv: sampleInventory(variantID)}
	key := "st:stock:" + variantID.String()
	cache := &fakeStockCache{values: map[string]string{key: `{"available":1}`}}

	req := httptest.NewRequest(http.MethodPost, "/v1/variants/"+variantID.String()+"/stock/add",
		bytes.NewBufferString(`{"quantity":5}`))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, uuid.New(), enums.ActorRoleSeller)
	req = withURLParam(req, "variantId", variantID.String())

	rec := httptest.NewRecorder()
	StockAdd(svc, cache, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != key {
		t.Fatalf("expected stale snapshot dropped, got %v", cache.deleted)
	}
}

func TestStockRestockMovesRejectedUnitsAndInvalidates(t *testing.T) {
	variantID := uuid.New()
	sellerID := uuid.New()
	svc := &fakeInventoryService{inv: sampleInventory(variantID)}
	key := "st:stock:" + variantID.String()
	cache := &fakeStockCache{values: map[string]string{key: `{"rejected":3}`}}

	req := httptest.NewRequest(http.MethodPost, "/v1/variants/"+variantID.String()+"/stock/restock",
		bytes.NewBufferString(`{"quantity":3,"notes":"repackaged"}`))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, sellerID, enums.ActorRoleSeller)
	req = withURLParam(req, "variantId", variantID.String())

	rec := httptest.NewRecorder()
	StockRestock(svc, cache, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.restockInput == nil || svc.restockInput.Quantity != 3 {
		t.Fatalf("unexpected restock input %+v", svc.restockInput)
	}
	if svc.restockInput.ActorID == nil || *svc.restockInput.ActorID != sellerID {
		t.Fatal("expected actor id threaded from context")
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != key {
		t.Fatalf("expected stale snapshot dropped, got %v", cache.deleted)
	}
}

func TestStockEnsureVariantRegistersRow(t *testing.T) {
	variantID := uuid.New()
	svc := &fakeInventoryService{inv: sampleInventory(variantID)}
	productID := uuid.New()
	sellerID := uuid.New()

	body := fmt.Sprintf(`{"product_id":%q,"seller_id":%q,"low_stock_threshold":3}`, productID, sellerID)
	req := httptest.NewRequest(http.MethodPut, "/v1/variants/"+variantID.String()+"/stock",
		bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, sellerID, enums.ActorRoleSeller)
	req = withURLParam(req, "variantId", variantID.String())

	rec := httptest.NewRecorder()
	StockEnsureVariant(svc, nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.ensured.SellerID != sellerID || svc.ensured.LowStockThreshold != 3 {
		t.Fatalf("unexpected ensure input %+v", svc.ensured)
	}
}

func TestStockMovementsClampsLimit(t *testing.T) {
	variantID := uuid.New()
	svc := &fakeInventoryService{}

	req := httptest.NewRequest(http.MethodGet, "/v1/variants/"+variantID.String()+"/stock/movements?limit=25", nil)
	req = withURLParam(req, "variantId", variantID.String())

	rec := httptest.NewRecorder()
	StockMovements(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.listLimit != 25 {
		t.Fatalf("expected limit 25, got %d", svc.listLimit)
	}
}
