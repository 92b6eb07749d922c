package models

import "time"

// AccountingPeriod is a row of the accounting_periods table. Nullable
// columns scan into pointers.
type AccountingPeriod struct {
	PeriodID       string     `db:"period_id"`
	Name           string     `db:"name"`
	StartDate      time.Time  `db:"start_date"`
	EndDate        time.Time  `db:"end_date"`
	Status         string     `db:"status"`
	ClosingEntryID *string    `db:"closing_entry_id"`
	OpeningEntryID *string    `db:"opening_entry_id"`
	NextPeriodID   *string    `db:"next_period_id"`
	ClosedAt       *time.Time `db:"closed_at"`
	ClosedBy       *string    `db:"closed_by"`
	AuditFields
}
