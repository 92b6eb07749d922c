package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/SscSPs/schoolbooks/internal/utils/pagination"
)

type journalRepo struct{ access }

func copyEntry(e domain.JournalEntry) domain.JournalEntry {
	lines := make([]domain.JournalEntryLine, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}

func (r *journalRepo) SaveJournalEntry(_ context.Context, entry domain.JournalEntry) error {
	return r.with(func(s *state) error {
		if _, ok := s.references[entry.Reference]; ok {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateReference, entry.Reference)
		}
		if _, ok := s.entries[entry.EntryID]; ok {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, entry.EntryID)
		}
		s.entries[entry.EntryID] = copyEntry(entry)
		s.references[entry.Reference] = entry.EntryID
		return nil
	})
}

func (r *journalRepo) ReferenceExists(_ context.Context, reference string) (bool, error) {
	var exists bool
	err := r.with(func(s *state) error {
		_, exists = s.references[reference]
		return nil
	})
	return exists, err
}

func (r *journalRepo) FindJournalEntryByID(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	var out *domain.JournalEntry
	err := r.with(func(s *state) error {
		e, ok := s.entries[entryID]
		if !ok {
			return apperrors.ErrNotFound
		}
		c := copyEntry(e)
		out = &c
		return nil
	})
	return out, err
}

func matchesFilter(e domain.JournalEntry, f domain.JournalEntryFilter) bool {
	if f.From != nil && e.EntryDate.Before(*f.From) {
		return false
	}
	if f.To != nil && e.EntryDate.After(*f.To) {
		return false
	}
	if f.PeriodID != "" && e.PeriodID != f.PeriodID {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.AccountID != "" {
		for _, l := range e.Lines {
			if l.AccountID == f.AccountID {
				return true
			}
		}
		return false
	}
	return true
}

func (r *journalRepo) ListJournalEntries(_ context.Context, filter domain.JournalEntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	var matched []domain.JournalEntry
	err := r.with(func(s *state) error {
		for _, e := range s.entries {
			if !matchesFilter(e, filter) {
				continue
			}
			if cursor != nil && !cursor.Precedes(e.EntryDate, e.CreatedAt, e.EntryID) {
				continue
			}
			matched = append(matched, copyEntry(e))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.EntryID > b.EntryID
	})

	if len(matched) <= limit {
		return matched, nil, nil
	}
	page := matched[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.Cursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, EntryID: last.EntryID})
	return page, &token, nil
}

func (r *journalRepo) FindLinesUpTo(_ context.Context, asOf time.Time) ([]domain.PostedLine, error) {
	var out []domain.PostedLine
	err := r.with(func(s *state) error {
		for _, e := range s.entries {
			if e.EntryDate.After(asOf) {
				continue
			}
			for _, l := range e.Lines {
				out = append(out, domain.PostedLine{JournalEntryLine: l, EntryDate: e.EntryDate, Kind: e.Kind})
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		if out[i].EntryID != out[j].EntryID {
			return out[i].EntryID < out[j].EntryID
		}
		return out[i].LineNo < out[j].LineNo
	})
	return out, err
}
