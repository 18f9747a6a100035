package enums

import "fmt"

// DisputeReason categorizes why a buyer or seller opened a dispute.
type DisputeReason string

const (
	DisputeReasonNotAsDescribed DisputeReason = "not_as_described"
	DisputeReasonNotReceived    DisputeReason = "not_received"
	DisputeReasonDamaged        DisputeReason = "damaged"
	DisputeReasonWrongItem      DisputeReason = "wrong_item"
	DisputeReasonOther          DisputeReason = "other"
)

var validDisputeReasons = []DisputeReason{
	DisputeReasonNotAsDescribed,
	DisputeReasonNotReceived,
	DisputeReasonDamaged,
	DisputeReasonWrongItem,
	DisputeReasonOther,
}

// String implements fmt.Stringer.
func (r DisputeReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known DisputeReason.
func (r DisputeReason) IsValid() bool {
	for _, candidate := range validDisputeReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseDisputeReason converts raw input into a DisputeReason.
func ParseDisputeReason(value string) (DisputeReason, error) {
	for _, candidate := range validDisputeReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute reason %q", value)
}

// DisputeStatus tracks a dispute from filing to close.
type DisputeStatus string

const (
	DisputeStatusOpened         DisputeStatus = "opened"
	DisputeStatusInReview       DisputeStatus = "in_review"
	DisputeStatusResolvedBuyer  DisputeStatus = "resolved_buyer"
	DisputeStatusResolvedSeller DisputeStatus = "resolved_seller"
	DisputeStatusClosed         DisputeStatus = "closed"
)

var validDisputeStatuses = []DisputeStatus{
	DisputeStatusOpened,
	DisputeStatusInReview,
	DisputeStatusResolvedBuyer,
	DisputeStatusResolvedSeller,
	DisputeStatusClosed,
}

// String implements fmt.Stringer.
func (s DisputeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DisputeStatus.
func (s DisputeStatus) IsValid() bool {
	for _, candidate := range validDisputeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsResolved reports whether the dispute reached a final ruling.
func (s DisputeStatus) IsResolved() bool {
	switch s {
	case DisputeStatusResolvedBuyer, DisputeStatusResolvedSeller, DisputeStatusClosed:
		return true
	}
	return false
}

// ParseDisputeStatus converts raw input into a DisputeStatus.
func ParseDisputeStatus(value string) (DisputeStatus, error) {
	for _, candidate := range validDisputeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute status %q", value)
}

// StockDisposition directs where escrowed units go when a dispute resolves
// in the buyer's favor.
type StockDisposition string

const (
	StockDispositionRestock StockDisposition = "restock"
	StockDispositionReject  StockDisposition = "reject"
)

var validStockDispositions = []StockDisposition{
	StockDispositionRestock,
	StockDispositionReject,
}

// IsValid reports whether the value is a known StockDisposition.
func (d StockDisposition) IsValid() bool {
	for _, candidate := range validStockDispositions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseStockDisposition converts raw input into a StockDisposition.
func ParseStockDisposition(value string) (StockDisposition, error) {
	for _, candidate := range validStockDispositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock disposition %q", value)
}
