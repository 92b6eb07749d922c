package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// JournalLineRequest is one line of a posting request. Exactly one of Debit
// or Credit must be positive.
type JournalLineRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Memo         string          `json:"memo" binding:"max=500"`
}

// CreateJournalEntryRequest defines the payload for posting a journal entry.
type CreateJournalEntryRequest struct {
	EntryDate        string               `json:"entryDate" binding:"required"` // YYYY-MM-DD
	Description      string               `json:"description" binding:"required,max=500"`
	Reference        string               `json:"reference" binding:"required,max=200"`
	FundingAccountID string               `json:"fundingAccountID,omitempty"`
	Lines            []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ToDraft converts the request into a posting draft on behalf of userID.
func (r CreateJournalEntryRequest) ToDraft(userID string) (domain.JournalEntryDraft, error) {
	entryDate, err := ParseDate(r.EntryDate)
	if err != nil {
		return domain.JournalEntryDraft{}, err
	}
	lines := make([]domain.DraftLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.DraftLine{
			AccountID:    l.AccountID,
			CurrencyCode: l.CurrencyCode,
			Debit:        l.Debit,
			Credit:       l.Credit,
			Memo:         l.Memo,
		}
	}
	return domain.JournalEntryDraft{
		EntryDate:        entryDate,
		Description:      r.Description,
		Reference:        r.Reference,
		Kind:             domain.EntryStandard,
		FundingAccountID: r.FundingAccountID,
		Lines:            lines,
		CreatedBy:        userID,
	}, nil
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID       string          `json:"lineID"`
	LineNo       int             `json:"lineNo"`
	AccountID    string          `json:"accountID"`
	CurrencyCode string          `json:"currencyCode"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Memo         string          `json:"memo,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID     string                `json:"entryID"`
	EntryDate   string                `json:"entryDate"`
	Description string                `json:"description"`
	Reference   string                `json:"reference"`
	Kind        string                `json:"kind"`
	PeriodID    string                `json:"periodID"`
	Lines       []JournalLineResponse `json:"lines"`
	CreatedAt   time.Time             `json:"createdAt"`
	CreatedBy   string                `json:"createdBy"`
}

// ListJournalEntriesParams are the query parameters of the journal listing.
type ListJournalEntriesParams struct {
	From      string `form:"from"`
	To        string `form:"to"`
	PeriodID  string `form:"periodID"`
	AccountID string `form:"accountID"`
	Kind      string `form:"kind" binding:"omitempty,oneof=STANDARD CLOSING OPENING"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// ToFilter converts the query parameters into a journal filter.
func (p ListJournalEntriesParams) ToFilter() (domain.JournalEntryFilter, error) {
	f := domain.JournalEntryFilter{
		PeriodID:  p.PeriodID,
		AccountID: p.AccountID,
		Kind:      domain.EntryKind(p.Kind),
	}
	if p.From != "" {
		from, err := ParseDate(p.From)
		if err != nil {
			return f, err
		}
		f.From = &from
	}
	if p.To != "" {
		to, err := ParseDate(p.To)
		if err != nil {
			return f, err
		}
		f.To = &to
	}
	return f, nil
}

// ListJournalEntriesResponse is one page of the journal listing.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to its response DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			LineID:       l.LineID,
			LineNo:       l.LineNo,
			AccountID:    l.AccountID,
			CurrencyCode: l.CurrencyCode,
			Debit:        l.Debit,
			Credit:       l.Credit,
			Memo:         l.Memo,
		}
	}
	return JournalEntryResponse{
		EntryID:     e.EntryID,
		EntryDate:   FormatDate(e.EntryDate),
		Description: e.Description,
		Reference:   e.Reference,
		Kind:        string(e.Kind),
		PeriodID:    e.PeriodID,
		Lines:       lines,
		CreatedAt:   e.CreatedAt,
		CreatedBy:   e.CreatedBy,
	}
}

// ToJournalEntryResponses converts a slice of entries.
func ToJournalEntryResponses(entries []domain.JournalEntry) []JournalEntryResponse {
	out := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToJournalEntryResponse(&entries[i])
	}
	return out
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", apperrors.ErrValidation, s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}
