package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

func TestBuildRowWrapsDataInVersionedEnvelope(t *testing.T) {
	aggregateID := uuid.New()
	occurred := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	actor := &ActorRef{UserID: uuid.New(), Role: "buyer"}

	row, eventID, err := buildRow(DomainEvent{
		EventType:     enums.EventTransactionStateChanged,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   aggregateID,
		Actor:         actor,
		Data:          map[string]string{"status": "shipped"},
		Version:       2,
		OccurredAt:    occurred,
	})
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}
	if eventID == "" {
		t.Fatal("expected a generated event id")
	}
	if row.AggregateID != aggregateID {
		t.Fatalf("aggregate id %s, want %s", row.AggregateID, aggregateID)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 2 {
		t.Fatalf("envelope version %d, want 2", envelope.Version)
	}
	if envelope.EventID != eventID {
		t.Fatalf("envelope event id %s, want %s", envelope.EventID, eventID)
	}
	if !envelope.OccurredAt.Equal(occurred) {
		t.Fatalf("occurred at %s, want %s", envelope.OccurredAt, occurred)
	}
	if envelope.Actor == nil || envelope.Actor.Role != "buyer" {
		t.Fatalf("unexpected actor %+v", envelope.Actor)
	}
}

func TestBuildRowDefaultsVersionAndTimestamp(t *testing.T) {
	before := time.Now()
	row, _, err := buildRow(DomainEvent{
		EventType:     enums.EventStockReserved,
		AggregateType: enums.AggregateInventory,
		AggregateID:   uuid.New(),
		Data:          struct{}{},
	})
	if err != nil {
		t.Fatalf("buildRow: %v", err)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 1 {
		t.Fatalf("envelope version %d, want default 1", envelope.Version)
	}
	if envelope.OccurredAt.Before(before) {
		t.Fatalf("occurred at %s predates the call", envelope.OccurredAt)
	}
}

func TestValidateEventRejectsIncompleteEvents(t *testing.T) {
	cases := []struct {
		name  string
		event DomainEvent
	}{
		{"missing event type", DomainEvent{AggregateType: enums.AggregateTransaction, AggregateID: uuid.New()}},
		{"missing aggregate type", DomainEvent{EventType: enums.EventTransactionCreated, AggregateID: uuid.New()}},
		{"missing aggregate id", DomainEvent{EventType: enums.EventTransactionCreated, AggregateType: enums.AggregateTransaction}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateEvent(tc.event); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}
