package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/shopspring/decimal"
)

// EntryKind tags journal entries produced by the system.
type EntryKind string

const (
	EntryStandard EntryKind = "STANDARD"
	EntryClosing  EntryKind = "CLOSING" // Zeroes revenue and expense into retained earnings
	EntryOpening  EntryKind = "OPENING" // Carries permanent balances into the next period
)

// IsSystem reports whether entries of this kind may only be created by the closing engine.
func (k EntryKind) IsSystem() bool {
	return k == EntryClosing || k == EntryOpening
}

// JournalEntryLine is one debit or credit against a single account and currency.
type JournalEntryLine struct {
	LineID       string          `json:"lineID"`
	EntryID      string          `json:"entryID"`
	LineNo       int             `json:"lineNo"`
	AccountID    string          `json:"accountID"`
	CurrencyCode string          `json:"currencyCode"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Memo         string          `json:"memo"`
}

// Side returns which side of the line carries the amount.
func (l JournalEntryLine) Side() EntrySide {
	if l.Debit.IsPositive() {
		return Debit
	}
	return Credit
}

// Amount returns the non-zero side of the line.
func (l JournalEntryLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

// JournalEntry is an atomic, balanced set of lines. Once posted it is never
// updated; corrections are new entries.
type JournalEntry struct {
	EntryID     string             `json:"entryID"`
	EntryDate   time.Time          `json:"entryDate"`
	Description string             `json:"description"`
	Reference   string             `json:"reference"` // Unique per source transaction
	Kind        EntryKind          `json:"kind"`
	PeriodID    string             `json:"periodID"`
	Lines       []JournalEntryLine `json:"lines"`
	CreatedAt   time.Time          `json:"createdAt"`
	CreatedBy   string             `json:"createdBy"`
}

// PostedLine is a committed line together with the header fields replay needs.
type PostedLine struct {
	JournalEntryLine
	EntryDate time.Time `json:"entryDate"`
	Kind      EntryKind `json:"kind"`
}

// DraftLine is an unposted journal line.
type DraftLine struct {
	AccountID    string          `json:"accountID"`
	CurrencyCode string          `json:"currencyCode"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Memo         string          `json:"memo"`
}

// JournalEntryDraft is the input of the posting service.
type JournalEntryDraft struct {
	EntryDate   time.Time
	Description string
	Reference   string
	Kind        EntryKind
	// FundingAccountID names a cash or bank account whose current balance must
	// cover what this entry takes out of it. Empty disables the check.
	FundingAccountID string
	Lines            []DraftLine
	CreatedBy        string
}

// SideTotals accumulates debits and credits.
type SideTotals struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// Validate checks the shape of the draft: at least two lines, exactly one
// positive side per line and the mandatory header fields.
func (d JournalEntryDraft) Validate() error {
	if len(d.Lines) < 2 {
		return fmt.Errorf("%w: journal entry must have at least two lines", apperrors.ErrValidation)
	}
	if strings.TrimSpace(d.Description) == "" {
		return fmt.Errorf("%w: journal entry description is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(d.Reference) == "" {
		return fmt.Errorf("%w: journal entry reference is required", apperrors.ErrValidation)
	}
	if d.EntryDate.IsZero() {
		return fmt.Errorf("%w: journal entry date is required", apperrors.ErrValidation)
	}
	for i, l := range d.Lines {
		if l.AccountID == "" {
			return fmt.Errorf("%w: line %d has no account", apperrors.ErrInvalidAccount, i+1)
		}
		if l.CurrencyCode == "" {
			return fmt.Errorf("%w: line %d has no currency", apperrors.ErrInvalidCurrency, i+1)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrValidation, i+1)
		}
		if l.Debit.IsPositive() == l.Credit.IsPositive() {
			return fmt.Errorf("%w: line %d must have exactly one of debit or credit", apperrors.ErrValidation, i+1)
		}
	}
	return nil
}

// CurrencyTotals sums debits and credits per currency.
func (d JournalEntryDraft) CurrencyTotals() map[string]SideTotals {
	totals := make(map[string]SideTotals)
	for _, l := range d.Lines {
		t := totals[l.CurrencyCode]
		t.Debit = t.Debit.Add(l.Debit)
		t.Credit = t.Credit.Add(l.Credit)
		totals[l.CurrencyCode] = t
	}
	return totals
}

// CheckBalanced returns ErrUnbalanced naming the first currency (in code
// order) whose debits and credits differ. Comparison is exact.
func (d JournalEntryDraft) CheckBalanced() error {
	totals := d.CurrencyTotals()
	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		t := totals[code]
		if !t.Debit.Equal(t.Credit) {
			return fmt.Errorf("%w: %s debits sum is %s and credits sum is %s",
				apperrors.ErrUnbalanced, code, t.Debit.String(), t.Credit.String())
		}
	}
	return nil
}

// JournalEntryFilter narrows a journal listing. Zero fields match everything.
type JournalEntryFilter struct {
	From      *time.Time
	To        *time.Time
	PeriodID  string
	AccountID string
	Kind      EntryKind
}

// PostingPolicy relaxes posting rules for entries generated by the closing
// engine: system entry kinds are accepted and a CLOSING period is writable.
type PostingPolicy struct {
	System bool
}
