package enums

import "fmt"

// StockMovementType maps to the stock_movement_type enum in Postgres.
type StockMovementType string

const (
	StockMovementAdd     StockMovementType = "add"
	StockMovementReserve StockMovementType = "reserve"
	StockMovementRelease StockMovementType = "release"
	StockMovementCommit  StockMovementType = "commit"
	StockMovementReject  StockMovementType = "reject"
	StockMovementRestock StockMovementType = "restock"
)

var validStockMovementTypes = []StockMovementType{
	StockMovementAdd,
	StockMovementReserve,
	StockMovementRelease,
	StockMovementCommit,
	StockMovementReject,
	StockMovementRestock,
}

// IsValid reports whether the value matches the canonical stock movement enum.
func (t StockMovementType) IsValid() bool {
	for _, candidate := range validStockMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockMovementType converts raw input into StockMovementType.
func ParseStockMovementType(value string) (StockMovementType, error) {
	for _, candidate := range validStockMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement type %q", value)
}
