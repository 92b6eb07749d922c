package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindJournalEntryByID retrieves an entry with its lines.
	FindJournalEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ReferenceExists reports whether an entry with this reference was already posted.
	ReferenceExists(ctx context.Context, reference string) (bool, error)

	// ListJournalEntries retrieves a page of entries, newest first, using token-based pagination.
	// It returns the entries, a token for the next page, and an error.
	ListJournalEntries(ctx context.Context, filter domain.JournalEntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// LineReader exposes committed lines for balance replay.
type LineReader interface {
	// FindLinesUpTo returns every line whose entry date is on or before asOf,
	// ordered by entry date.
	FindLinesUpTo(ctx context.Context, asOf time.Time) ([]domain.PostedLine, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// SaveJournalEntry persists an entry and its lines. A reused reference
	// yields apperrors.ErrDuplicateReference.
	SaveJournalEntry(ctx context.Context, entry domain.JournalEntry) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
// This is a facade for clients that need access to all operations
type JournalRepositoryFacade interface {
	JournalReader
	LineReader
	JournalWriter
}
