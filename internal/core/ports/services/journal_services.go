package services

import (
	"context"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetJournalEntry retrieves a posted entry with its lines.
	GetJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListJournalEntries retrieves a page of entries, newest first, and the token of the next page.
	ListJournalEntries(ctx context.Context, filter domain.JournalEntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// JournalWriterSvc defines write operations for journal data
type JournalWriterSvc interface {
	// Post validates the draft and commits it with its balance updates in one transaction.
	Post(ctx context.Context, draft domain.JournalEntryDraft) (*domain.JournalEntry, error)

	// PostInTx posts within a transaction owned by the caller.
	PostInTx(ctx context.Context, repos portsrepo.RepositoryProvider, draft domain.JournalEntryDraft, policy domain.PostingPolicy) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
// This is a facade for clients that need access to all operations
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
