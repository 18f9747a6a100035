package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/safetradehq/safetrade-backend/api/middleware"
	"github.com/safetradehq/safetrade-backend/internal/escrow"
	"github.com/safetradehq/safetrade-backend/internal/history"
	"github.com/safetradehq/safetrade-backend/pkg/db/models"
	"github.com/safetradehq/safetrade-backend/pkg/enums"
	pkgerrors "github.com/safetradehq/safetrade-backend/pkg/errors"
)

type fakeEscrowService struct {
	createInput     *escrow.CreateInput
	createResult    *models.EscrowTransaction
	createErr       error
	transitionInput *escrow.TransitionInput
	transitionRes   *escrow.TransitionResult
	transitionErr   error
	getResult       *models.EscrowTransaction
	getErr          error
	actions         []escrow.Action
}

func (f *fakeEscrowService) Create(_ context.Context, input escrow.CreateInput) (*models.EscrowTransaction, error) {
	f.createInput = &input
	return f.createResult, f.createErr
}

func (f *fakeEscrowService) Transition(_ context.Context, input escrow.TransitionInput) (*escrow.TransitionResult, error) {
	f.transitionInput = &input
	return f.transitionRes, f.transitionErr
}

func (f *fakeEscrowService) TransitionInTx(_ context.Context, _ *gorm.DB, input escrow.TransitionInput) (*escrow.TransitionResult, error) {
	f.transitionInput = &input
	return f.transitionRes, f.transitionErr
}

func (f *fakeEscrowService) GetByTrackingID(context.Context, string) (*models.EscrowTransaction, error) {
	return f.getResult, f.getErr
}

func (f *fakeEscrowService) ActionsFor(*models.EscrowTransaction, escrow.Actor) []escrow.Action {
	return f.actions
}

func (f *fakeEscrowService) RegisterPostCommitHook(escrow.PostCommitHook) {}

func (f *fakeEscrowService) RunPostCommitHooks(context.Context, escrow.TransitionResult) {}

type fakeHistoryService struct {
	entries []models.TransactionHistory
}

func (f *fakeHistoryService) WithTx(*gorm.DB) history.Service { return f }

func (f *fakeHistoryService) Record(context.Context, history.RecordInput) (*models.TransactionHistory, error) {
	return nil, nil
}

func (f *fakeHistoryService) List(context.Context, uuid.UUID) ([]models.TransactionHistory, error) {
	return f.entries, nil
}

func requestWithActor(r *http.Request, actorID uuid.UUID, role enums.ActorRole) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), actorID, role))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleTransaction(buyerID, sellerID uuid.UUID, status enums.TransactionStatus) *models.EscrowTransaction {
	return &models.EscrowTransaction{
		ID:          uuid.New(),
		TrackingID:  "ST-20260831-AB12CD34",
		VariantID:   uuid.New(),
		BuyerID:     buyerID,
		SellerID:    sellerID,
		Quantity:    2,
		Price:       decimal.NewFromInt(40),
		TotalAmount: decimal.NewFromInt(80),
		Currency:    enums.CurrencyUSD,
		Status:      status,
	}
}

func TestTransactionCreateReturnsCreated(t *testing.T) {
	buyerID := uuid.New()
	txn := sampleTransaction(buyerID, uuid.New(), enums.TransactionStatusInitiated)
	svc := &fakeEscrowService{createResult: txn, actions: []escrow.Action{escrow.ActionPay, escrow.ActionCancel}}

	body := fmt.Sprintf(`{"variant_id":%q,"quantity":2,"price":"40.00","currency":"usd"}`, txn.VariantID)
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, buyerID, enums.ActorRoleBuyer)

	rec := httptest.NewRecorder()
	TransactionCreate(svc, nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createInput == nil {
		t.Fatal("expected service call")
	}
	if svc.createInput.BuyerID != buyerID {
		t.Fatalf("expected buyer from context, got %s", svc.createInput.BuyerID)
	}
	if svc.createInput.Currency != enums.CurrencyUSD {
		t.Fatalf("expected currency uppercased, got %s", svc.createInput.Currency)
	}
	if !svc.createInput.Price.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("unexpected price %s", svc.createInput.Price)
	}

	var envelope struct {
		Data transactionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.AvailableActions) != 2 {
		t.Fatalf("expected 2 actions, got %v", envelope.Data.AvailableActions)
	}
	if envelope.Data.Transaction.TrackingID != txn.TrackingID {
		t.Fatalf("unexpected tracking id %s", envelope.Data.Transaction.TrackingID)
	}
}

func TestTransactionResponsesKeepRowIDPrivate(t *testing.T) {
	buyerID := uuid.New()
	txn := sampleTransaction(buyerID, uuid.New(), enums.TransactionStatusInspection)
	svc := &fakeEscrowService{getResult: txn}
	hist := &fakeHistoryService{entries: []models.TransactionHistory{
		{
			ID:            uuid.New(),
			TransactionID: txn.ID,
			NewStatus:     enums.TransactionStatusInitiated,
			ActorID:       &buyerID,
			ActorRole:     enums.ActorRoleBuyer,
		},
	}}

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions/"+txn.TrackingID, nil)
	req = requestWithActor(req, buyerID, enums.ActorRoleBuyer)
	req = withURLParam(req, "trackingId", txn.TrackingID)

	rec := httptest.NewRecorder()
	TransactionGet(svc, hist, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if strings.Contains(body, txn.ID.String()) {
		t.Fatal("response must not expose the transaction row id")
	}
	if !strings.Contains(body, txn.TrackingID) {
		t.Fatal("response must address the transaction by tracking id")
	}
	if !strings.Contains(body, `"new_status"`) {
		t.Fatal("history must serialize with wire field names")
	}
}

func TestTransactionCreateRejectsBadPrice(t *testing.T) {
	svc := &fakeEscrowService{}
	body := fmt.Sprintf(`{"variant_id":%q,"quantity":1,"price":"forty"}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, uuid.New(), enums.ActorRoleBuyer)

	rec := httptest.NewRecorder()
	TransactionCreate(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.createInput != nil {
		t.Fatal("service must not be called on invalid input")
	}
}

func TestTransactionAdvanceMapsActionToTarget(t *testing.T) {
	buyerID := uuid.New()
	txn := sampleTransaction(buyerID, uuid.New(), enums.TransactionStatusPaymentReceived)
	svc := &fakeEscrowService{
		transitionRes: &escrow.TransitionResult{
			Transaction:    txn,
			PreviousStatus: enums.TransactionStatusInitiated,
			ActorRole:      enums.ActorRoleBuyer,
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/"+txn.TrackingID+"/advance",
		bytes.NewBufferString(`{"action":"pay"}`))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, buyerID, enums.ActorRoleBuyer)
	req = withURLParam(req, "trackingId", txn.TrackingID)

	rec := httptest.NewRecorder()
	TransactionAdvance(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.transitionInput.Target != enums.TransactionStatusPaymentReceived {
		t.Fatalf("expected payment_received target, got %s", svc.transitionInput.Target)
	}
	if svc.transitionInput.TrackingID != txn.TrackingID {
		t.Fatalf("unexpected tracking id %s", svc.transitionInput.TrackingID)
	}
}

func TestTransactionAdvanceRejectsUnknownAction(t *testing.T) {
	svc := &fakeEscrowService{}
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/ST-X/advance",
		bytes.NewBufferString(`{"action":"teleport"}`))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, uuid.New(), enums.ActorRoleBuyer)
	req = withURLParam(req, "trackingId", "ST-X")

	rec := httptest.NewRecorder()
	TransactionAdvance(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.transitionInput != nil {
		t.Fatal("service must not be called for unknown actions")
	}
}

func TestTransactionAdvanceSurfacesIllegalTransition(t *testing.T) {
	svc := &fakeEscrowService{
		transitionErr: pkgerrors.New(pkgerrors.CodeIllegalTransition, "no transition from completed to shipped"),
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/ST-X/advance",
		bytes.NewBufferString(`{"action":"ship"}`))
	req.Header.Set("Content-Type", "application/json")
	req = requestWithActor(req, uuid.New(), enums.ActorRoleSeller)
	req = withURLParam(req, "trackingId", "ST-X")

	rec := httptest.NewRecorder()
	TransactionAdvance(svc, nil)(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestTransactionGetHidesFromStrangers(t *testing.T) {
	txn := sampleTransaction(uuid.New(), uuid.New(), enums.TransactionStatusInspection)
	svc := &fakeEscrowService{getResult: txn}

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions/"+txn.TrackingID, nil)
	req = requestWithActor(req, uuid.New(), enums.ActorRoleBuyer)
	req = withURLParam(req, "trackingId", txn.TrackingID)

	rec := httptest.NewRecorder()
	TransactionGet(svc, nil, nil)(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a stranger, got %d", rec.Code)
	}
}

func TestTransactionGetAllowsArbiter(t *testing.T) {
	txn := sampleTransaction(uuid.New(), uuid.New(), enums.TransactionStatusDisputed)
	svc := &fakeEscrowService{getResult: txn}

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions/"+txn.TrackingID, nil)
	req = requestWithActor(req, uuid.New(), enums.ActorRoleArbiter)
	req = withURLParam(req, "trackingId", txn.TrackingID)

	rec := httptest.NewRecorder()
	TransactionGet(svc, nil, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for arbiter, got %d", rec.Code)
	}
}
