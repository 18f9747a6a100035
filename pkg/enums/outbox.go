package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateTransaction OutboxAggregateType = "transaction"
	AggregateDispute     OutboxAggregateType = "dispute"
	AggregateInventory   OutboxAggregateType = "inventory"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateTransaction,
	AggregateDispute,
	AggregateInventory,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventTransactionCreated      OutboxEventType = "transaction_created"
	EventTransactionStateChanged OutboxEventType = "transaction_state_changed"
	EventTransactionFlagged      OutboxEventType = "transaction_flagged_for_review"
	EventPayoutRequested         OutboxEventType = "payout_requested"
	EventRefundRequested         OutboxEventType = "refund_requested"
	EventDisputeOpened           OutboxEventType = "dispute_opened"
	EventDisputeResolved         OutboxEventType = "dispute_resolved"
	EventStockReserved           OutboxEventType = "stock_reserved"
	EventStockReleased           OutboxEventType = "stock_released"
	EventStockCommitted          OutboxEventType = "stock_committed"
	EventStockRejected           OutboxEventType = "stock_rejected"
	EventStockRestocked          OutboxEventType = "stock_restocked"
	EventLowStock                OutboxEventType = "low_stock"
	EventNotificationRequested   OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTransactionCreated,
	EventTransactionStateChanged,
	EventTransactionFlagged,
	EventPayoutRequested,
	EventRefundRequested,
	EventDisputeOpened,
	EventDisputeResolved,
	EventStockReserved,
	EventStockReleased,
	EventStockCommitted,
	EventStockRejected,
	EventStockRestocked,
	EventLowStock,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
