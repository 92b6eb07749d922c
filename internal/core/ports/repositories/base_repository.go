package repositories

import (
	"context"
)

// IsolationLevel selects how a unit of work sees concurrent commits.
type IsolationLevel int

const (
	// ReadCommitted gives every statement a fresh snapshot.
	ReadCommitted IsolationLevel = iota
	// RepeatableRead pins one snapshot for the whole unit of work.
	RepeatableRead
)

func (l IsolationLevel) String() string {
	if l == RepeatableRead {
		return "repeatable read"
	}
	return "read committed"
}

// TransactionManager runs a unit of work atomically. The repositories handed
// to fn are bound to the transaction; fn returning an error rolls back.
type TransactionManager interface {
	// WithinTx runs fn at ReadCommitted.
	WithinTx(ctx context.Context, fn func(repos RepositoryProvider) error) error

	// WithinTxIsolation runs fn at the given isolation level.
	WithinTxIsolation(ctx context.Context, level IsolationLevel, fn func(repos RepositoryProvider) error) error
}

// Store is a ledger backend: transactional units of work plus repositories
// for reads that need no transaction.
type Store interface {
	TransactionManager
	Repositories() RepositoryProvider
}
