package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	EntryID     string    `db:"entry_id"`
	EntryDate   time.Time `db:"entry_date"`
	Description string    `db:"description"`
	Reference   string    `db:"reference"`
	Kind        string    `db:"kind"`
	PeriodID    string    `db:"period_id"`
	CreatedAt   time.Time `db:"created_at"`
	CreatedBy   string    `db:"created_by"`
}

// JournalEntryLine is a row of the journal_entry_lines table.
type JournalEntryLine struct {
	LineID       string          `db:"line_id"`
	EntryID      string          `db:"entry_id"`
	LineNo       int             `db:"line_no"`
	AccountID    string          `db:"account_id"`
	CurrencyCode string          `db:"currency_code"`
	Debit        decimal.Decimal `db:"debit"`
	Credit       decimal.Decimal `db:"credit"`
	Memo         string          `db:"memo"`
	// Joined from the entry header when replaying
	EntryDate time.Time `db:"entry_date"`
	Kind      string    `db:"kind"`
}
