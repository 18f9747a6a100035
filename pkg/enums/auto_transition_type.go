package enums

import "fmt"

// AutoTransitionType names a scheduled, time-triggered transition.
type AutoTransitionType string

const (
	AutoTransitionInspectionStart    AutoTransitionType = "inspection_start"
	AutoTransitionInspectionComplete AutoTransitionType = "inspection_complete"
	AutoTransitionFundsRelease       AutoTransitionType = "funds_release"
)

var validAutoTransitionTypes = []AutoTransitionType{
	AutoTransitionInspectionStart,
	AutoTransitionInspectionComplete,
	AutoTransitionFundsRelease,
}

// String implements fmt.Stringer.
func (t AutoTransitionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known AutoTransitionType.
func (t AutoTransitionType) IsValid() bool {
	for _, candidate := range validAutoTransitionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// TargetStatus returns the status a scheduled transition drives toward.
func (t AutoTransitionType) TargetStatus() (TransactionStatus, error) {
	switch t {
	case AutoTransitionInspectionStart:
		return TransactionStatusInspection, nil
	case AutoTransitionInspectionComplete:
		return TransactionStatusCompleted, nil
	case AutoTransitionFundsRelease:
		return TransactionStatusFundsReleased, nil
	}
	return "", fmt.Errorf("invalid auto transition type %q", t)
}

// ParseAutoTransitionType converts raw input into an AutoTransitionType.
func ParseAutoTransitionType(value string) (AutoTransitionType, error) {
	for _, candidate := range validAutoTransitionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auto transition type %q", value)
}
