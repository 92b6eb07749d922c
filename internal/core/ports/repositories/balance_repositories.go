package repositories

import (
	"context"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// BalanceReader aggregates the date-partitioned balance store.
type BalanceReader interface {
	// SumTurnoverAsOf sums debit and credit turnover of every partition dated
	// on or before q.AsOf, grouped by account and currency.
	SumTurnoverAsOf(ctx context.Context, q domain.BalanceQuery) ([]domain.BalanceTurnover, error)
}

// BalanceWriter mutates the balance store. Deltas are added atomically to
// their partition, creating it when missing.
type BalanceWriter interface {
	ApplyDeltas(ctx context.Context, deltas []domain.AccountBalance) error

	// DeleteAll drops every partition ahead of a rebuild.
	DeleteAll(ctx context.Context) error

	// LockForRebuild blocks until in-flight balance writers commit and keeps
	// new ones out until the transaction ends.
	LockForRebuild(ctx context.Context) error
}

// BalanceRepositoryFacade combines all balance-related repository interfaces
type BalanceRepositoryFacade interface {
	BalanceReader
	BalanceWriter
}
