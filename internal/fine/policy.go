// Package fine computes overdue fines. It is pure and stateless so the same
// policy can price a fine at return time and preview one for reporting.
package fine

import "time"

// Severity classifies how overdue a return is
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Policy holds the deployment-configured fine parameters
type Policy struct {
	RatePerDay float64
	MaxAmount  float64
}

// NewPolicy creates a fine policy
func NewPolicy(ratePerDay, maxAmount float64) Policy {
	return Policy{RatePerDay: ratePerDay, MaxAmount: maxAmount}
}

// Compute returns the fine amount and whole days overdue for a return.
// Returns (0, 0) when the book came back on or before the due date.
// The amount is capped at MaxAmount no matter how late the return is.
func (p Policy) Compute(dueDate, returnDate time.Time) (amount float64, daysOverdue int) {
	daysOverdue = DaysOverdue(dueDate, returnDate)
	if daysOverdue <= 0 {
		return 0, 0
	}

	amount = float64(daysOverdue) * p.RatePerDay
	if amount > p.MaxAmount {
		amount = p.MaxAmount
	}
	return amount, daysOverdue
}

// DaysOverdue returns the number of whole days returnDate is past dueDate,
// comparing calendar dates, not clock times. Zero or negative means on time.
func DaysOverdue(dueDate, returnDate time.Time) int {
	due := truncateToDay(dueDate)
	ret := truncateToDay(returnDate)
	return int(ret.Sub(due).Hours() / 24)
}

// Classify maps days overdue to a severity bucket
func Classify(daysOverdue int) Severity {
	switch {
	case daysOverdue <= 0:
		return SeverityNone
	case daysOverdue <= 7:
		return SeverityMinor
	case daysOverdue <= 30:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
