package enums

import "fmt"

// CaseStatus tracks the lifecycle of a posted legal case.
type CaseStatus string

const (
	CaseStatusOpen      CaseStatus = "open"
	CaseStatusEngaged   CaseStatus = "engaged"
	CaseStatusClosed    CaseStatus = "closed"
	CaseStatusCancelled CaseStatus = "cancelled"
)

var validCaseStatuses = []CaseStatus{
	CaseStatusOpen,
	CaseStatusEngaged,
	CaseStatusClosed,
	CaseStatusCancelled,
}

// String implements fmt.Stringer.
func (c CaseStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CaseStatus.
func (c CaseStatus) IsValid() bool {
	for _, candidate := range validCaseStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further case transitions are possible.
func (c CaseStatus) IsTerminal() bool {
	return c == CaseStatusClosed || c == CaseStatusCancelled
}

// ParseCaseStatus converts raw input into a CaseStatus.
func ParseCaseStatus(value string) (CaseStatus, error) {
	for _, candidate := range validCaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid case status %q", value)
}
