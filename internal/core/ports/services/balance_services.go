package services

import (
	"context"
	"time"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// BalanceReaderSvc answers balance queries from the materialized store.
type BalanceReaderSvc interface {
	// BalanceAsOf returns the signed balance of an account in a currency as of
	// the end of asOf, positive on the account's normal side.
	BalanceAsOf(ctx context.Context, accountID, currencyCode string, asOf time.Time) (decimal.Decimal, error)

	// BalanceAsOfTx is BalanceAsOf inside the caller's transaction.
	BalanceAsOfTx(ctx context.Context, repos portsrepo.RepositoryProvider, accountID, currencyCode string, asOf time.Time) (decimal.Decimal, error)
}

// BalanceWriterSvc keeps the materialized store in step with the journal.
type BalanceWriterSvc interface {
	// Apply adds the entry's lines to their date partitions.
	Apply(ctx context.Context, repos portsrepo.RepositoryProvider, entry domain.JournalEntry) error

	// Rebuild discards every partition and replays the journal.
	Rebuild(ctx context.Context, userID string) error
}

// BalanceVerifierSvc compares materialized balances against a journal replay.
type BalanceVerifierSvc interface {
	Verify(ctx context.Context, asOf time.Time) ([]domain.BalanceDrift, error)
}

// BalanceSvcFacade combines all balance-related service interfaces
type BalanceSvcFacade interface {
	BalanceReaderSvc
	BalanceWriterSvc
	BalanceVerifierSvc
}
