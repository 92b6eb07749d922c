// Package memory is an in-process ledger store used by tests and by the
// "memory" storage driver. A single mutex serializes transactions; writes go
// to a copy of the state that replaces the live one on commit.
package memory

import (
	"context"
	"sync"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
)

type balanceKey struct {
	accountID    string
	currencyCode string
	date         string
}

type state struct {
	accounts   map[string]domain.Account
	currencies map[string]domain.Currency
	entries    map[string]domain.JournalEntry
	references map[string]string
	balances   map[balanceKey]domain.AccountBalance
	periods    map[string]domain.AccountingPeriod
}

func newState() *state {
	return &state{
		accounts:   make(map[string]domain.Account),
		currencies: make(map[string]domain.Currency),
		entries:    make(map[string]domain.JournalEntry),
		references: make(map[string]string),
		balances:   make(map[balanceKey]domain.AccountBalance),
		periods:    make(map[string]domain.AccountingPeriod),
	}
}

// clone copies every map. Stored values are never mutated in place, so a
// shallow copy of each map isolates the transaction.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.currencies {
		c.currencies[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.references {
		c.references[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.periods {
		c.periods[k] = v
	}
	return c
}

// Store implements portsrepo.Store in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

var _ portsrepo.Store = (*Store)(nil)

// access runs fn against the transaction state when bound to one, or against
// the live state under the store lock otherwise.
type access struct {
	store *Store
	tx    *state
}

func (a access) with(fn func(s *state) error) error {
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return fn(a.store.st)
}

func providerFor(a access) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:  &accountRepo{a},
		CurrencyRepo: &currencyRepo{a},
		JournalRepo:  &journalRepo{a},
		BalanceRepo:  &balanceRepo{a},
		PeriodRepo:   &periodRepo{a},
	}
}

// Repositories returns repositories that each lock the store per call.
func (s *Store) Repositories() portsrepo.RepositoryProvider {
	return providerFor(access{store: s})
}

// WithinTx holds the store lock for the duration of fn. Calling the store's
// non-transactional repositories from inside fn deadlocks.
func (s *Store) WithinTx(ctx context.Context, fn func(repos portsrepo.RepositoryProvider) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.st.clone()
	if err := fn(providerFor(access{store: s, tx: tx})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = tx
	return nil
}

// WithinTxIsolation ignores level: units of work already run one at a time.
func (s *Store) WithinTxIsolation(ctx context.Context, _ portsrepo.IsolationLevel, fn func(repos portsrepo.RepositoryProvider) error) error {
	return s.WithinTx(ctx, fn)
}
