package pgsql

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
)

// Store is the PostgreSQL ledger backend.
type Store struct {
	Pool *pgxpool.Pool
}

var _ portsrepo.Store = (*Store)(nil)

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func newRepositoryProvider(db DBTX) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:  newPgxAccountRepository(db),
		CurrencyRepo: newPgxCurrencyRepository(db),
		JournalRepo:  newPgxJournalRepository(db),
		BalanceRepo:  newPgxBalanceRepository(db),
		PeriodRepo:   newPgxPeriodRepository(db),
	}
}

// Repositories returns repositories bound to the pool, one statement per
// implicit transaction.
func (s *Store) Repositories() portsrepo.RepositoryProvider {
	return newRepositoryProvider(s.Pool)
}

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken by the
// repositories (accounts FOR UPDATE, periods FOR SHARE, the period advisory
// lock) provide the serialization the ledger relies on.
func (s *Store) WithinTx(ctx context.Context, fn func(repos portsrepo.RepositoryProvider) error) error {
	return s.WithinTxIsolation(ctx, portsrepo.ReadCommitted, fn)
}

// WithinTxIsolation runs fn in a transaction at the given isolation level.
func (s *Store) WithinTxIsolation(ctx context.Context, level portsrepo.IsolationLevel, fn func(repos portsrepo.RepositoryProvider) error) error {
	tx, err := s.BeginTx(ctx, level)
	if err != nil {
		return err
	}
	// Ignored once the transaction is committed
	defer s.Rollback(ctx, tx)

	if err := fn(newRepositoryProvider(tx)); err != nil {
		return err
	}
	return s.Commit(ctx, tx)
}

// BeginTx starts a new database transaction at the given isolation level
func (s *Store) BeginTx(ctx context.Context, level portsrepo.IsolationLevel) (pgx.Tx, error) {
	iso := pgx.ReadCommitted
	if level == portsrepo.RepeatableRead {
		iso = pgx.RepeatableRead
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (s *Store) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (s *Store) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to rollback transaction", err)
	}
	return nil
}
