package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStatus is the lifecycle state of an accounting period.
type PeriodStatus string

const (
	PeriodOpen    PeriodStatus = "OPEN"
	PeriodClosing PeriodStatus = "CLOSING" // Transient, only visible inside the closing transaction
	PeriodClosed  PeriodStatus = "CLOSED"
)

// CanTransitionTo reports whether s -> next is a permitted lifecycle step.
func (s PeriodStatus) CanTransitionTo(next PeriodStatus) bool {
	switch s {
	case PeriodOpen:
		return next == PeriodClosing
	case PeriodClosing:
		return next == PeriodClosed || next == PeriodOpen
	}
	return false
}

// AccountingPeriod is a bounded, non-overlapping date range that gates which
// entries may post.
type AccountingPeriod struct {
	PeriodID       string       `json:"periodID"`
	Name           string       `json:"name"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"` // Inclusive
	Status         PeriodStatus `json:"status"`
	ClosingEntryID *string      `json:"closingEntryID,omitempty"`
	OpeningEntryID *string      `json:"openingEntryID,omitempty"`
	NextPeriodID   *string      `json:"nextPeriodID,omitempty"`
	ClosedAt       *time.Time   `json:"closedAt,omitempty"`
	ClosedBy       *string      `json:"closedBy,omitempty"`
	AuditFields
}

// Contains reports whether the calendar day of d falls inside the period.
func (p AccountingPeriod) Contains(d time.Time) bool {
	day := DateOnly(d)
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}

// Overlaps reports whether the two periods share at least one day.
func (p AccountingPeriod) Overlaps(o AccountingPeriod) bool {
	return !p.EndDate.Before(o.StartDate) && !o.EndDate.Before(p.StartDate)
}

// NextSpan returns the bounds of the period that follows p. Periods made of
// whole calendar months are followed by the same number of months; any other
// period is followed by one of the same length in days.
func (p AccountingPeriod) NextSpan() (time.Time, time.Time) {
	start := p.EndDate.AddDate(0, 0, 1)
	if p.StartDate.Day() == 1 && start.Day() == 1 {
		months := (p.EndDate.Year()-p.StartDate.Year())*12 + int(p.EndDate.Month()-p.StartDate.Month()) + 1
		return start, start.AddDate(0, months, -1)
	}
	days := int(p.EndDate.Sub(p.StartDate).Hours() / 24)
	return start, start.AddDate(0, 0, days)
}

// ClosingResult is returned by a successful period closure. Entry ids are
// empty when the period had nothing to close or carry forward.
type ClosingResult struct {
	PeriodID       string                     `json:"periodID"`
	ClosingEntryID string                     `json:"closingEntryID"`
	OpeningEntryID string                     `json:"openingEntryID"`
	NextPeriodID   string                     `json:"nextPeriodID"`
	NetIncome      map[string]decimal.Decimal `json:"netIncome"` // Keyed by currency
}
