package mapping

import (
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/SscSPs/schoolbooks/internal/models"
)

// ToModelJournalEntry converts the header of a domain entry; lines are mapped separately.
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:     d.EntryID,
		EntryDate:   d.EntryDate,
		Description: d.Description,
		Reference:   d.Reference,
		Kind:        string(d.Kind),
		PeriodID:    d.PeriodID,
		CreatedAt:   d.CreatedAt,
		CreatedBy:   d.CreatedBy,
	}
}

// ToDomainJournalEntry converts a header row and its line rows.
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalEntryLine) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:     m.EntryID,
		EntryDate:   domain.DateOnly(m.EntryDate),
		Description: m.Description,
		Reference:   m.Reference,
		Kind:        domain.EntryKind(m.Kind),
		PeriodID:    m.PeriodID,
		Lines:       ToDomainJournalEntryLineSlice(lines),
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

func ToModelJournalEntryLine(d domain.JournalEntryLine) models.JournalEntryLine {
	return models.JournalEntryLine{
		LineID:       d.LineID,
		EntryID:      d.EntryID,
		LineNo:       d.LineNo,
		AccountID:    d.AccountID,
		CurrencyCode: d.CurrencyCode,
		Debit:        d.Debit,
		Credit:       d.Credit,
		Memo:         d.Memo,
	}
}

func ToDomainJournalEntryLine(m models.JournalEntryLine) domain.JournalEntryLine {
	return domain.JournalEntryLine{
		LineID:       m.LineID,
		EntryID:      m.EntryID,
		LineNo:       m.LineNo,
		AccountID:    m.AccountID,
		CurrencyCode: m.CurrencyCode,
		Debit:        m.Debit,
		Credit:       m.Credit,
		Memo:         m.Memo,
	}
}

func ToDomainJournalEntryLineSlice(ms []models.JournalEntryLine) []domain.JournalEntryLine {
	ds := make([]domain.JournalEntryLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalEntryLine(m)
	}
	return ds
}

// ToDomainPostedLine converts a line row joined with its entry header.
func ToDomainPostedLine(m models.JournalEntryLine) domain.PostedLine {
	return domain.PostedLine{
		JournalEntryLine: ToDomainJournalEntryLine(m),
		EntryDate:        domain.DateOnly(m.EntryDate),
		Kind:             domain.EntryKind(m.Kind),
	}
}
