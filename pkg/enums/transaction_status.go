package enums

import "fmt"

// TransactionStatus tracks the lifecycle of an escrow transaction.
type TransactionStatus string

const (
	TransactionStatusInitiated       TransactionStatus = "initiated"
	TransactionStatusPaymentReceived TransactionStatus = "payment_received"
	TransactionStatusShipped         TransactionStatus = "shipped"
	TransactionStatusDelivered       TransactionStatus = "delivered"
	TransactionStatusInspection      TransactionStatus = "inspection"
	TransactionStatusDisputed        TransactionStatus = "disputed"
	TransactionStatusCompleted       TransactionStatus = "completed"
	TransactionStatusRefunded        TransactionStatus = "refunded"
	TransactionStatusCancelled       TransactionStatus = "cancelled"
	TransactionStatusFundsReleased   TransactionStatus = "funds_released"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusInitiated,
	TransactionStatusPaymentReceived,
	TransactionStatusShipped,
	TransactionStatusDelivered,
	TransactionStatusInspection,
	TransactionStatusDisputed,
	TransactionStatusCompleted,
	TransactionStatusRefunded,
	TransactionStatusCancelled,
	TransactionStatusFundsReleased,
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave this status.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusRefunded, TransactionStatusCancelled:
		return true
	}
	return false
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
