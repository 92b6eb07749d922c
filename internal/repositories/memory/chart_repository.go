package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

type accountRepo struct{ access }

func (r *accountRepo) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	var out *domain.Account
	err := r.with(func(s *state) error {
		acc, ok := s.accounts[accountID]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &acc
		return nil
	})
	return out, err
}

func (r *accountRepo) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	err := r.with(func(s *state) error {
		for _, id := range accountIDs {
			if acc, ok := s.accounts[id]; ok {
				out[id] = acc
			}
		}
		return nil
	})
	return out, err
}

func (r *accountRepo) ListAccounts(_ context.Context) ([]domain.Account, error) {
	var out []domain.Account
	err := r.with(func(s *state) error {
		out = make([]domain.Account, 0, len(s.accounts))
		for _, acc := range s.accounts {
			out = append(out, acc)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

func (r *accountRepo) SaveAccount(_ context.Context, account domain.Account) error {
	return r.with(func(s *state) error {
		for id, existing := range s.accounts {
			if existing.Code == account.Code && id != account.AccountID {
				return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, account.Code)
			}
		}
		if existing, ok := s.accounts[account.AccountID]; ok {
			account.CreatedAt = existing.CreatedAt
			account.CreatedBy = existing.CreatedBy
		}
		s.accounts[account.AccountID] = account
		return nil
	})
}

// LockAccountsForUpdate only checks existence: the store lock already
// serializes transactions.
func (r *accountRepo) LockAccountsForUpdate(_ context.Context, accountIDs []string) error {
	return r.with(func(s *state) error {
		for _, id := range accountIDs {
			if _, ok := s.accounts[id]; !ok {
				return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
			}
		}
		return nil
	})
}

type currencyRepo struct{ access }

func (r *currencyRepo) FindCurrencyByCode(_ context.Context, currencyCode string) (*domain.Currency, error) {
	var out *domain.Currency
	err := r.with(func(s *state) error {
		cur, ok := s.currencies[currencyCode]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &cur
		return nil
	})
	return out, err
}

func (r *currencyRepo) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	var out []domain.Currency
	err := r.with(func(s *state) error {
		out = make([]domain.Currency, 0, len(s.currencies))
		for _, cur := range s.currencies {
			out = append(out, cur)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyCode < out[j].CurrencyCode })
	return out, err
}

func (r *currencyRepo) SaveCurrency(_ context.Context, currency domain.Currency) error {
	return r.with(func(s *state) error {
		if existing, ok := s.currencies[currency.CurrencyCode]; ok {
			currency.CreatedAt = existing.CreatedAt
			currency.CreatedBy = existing.CreatedBy
		}
		s.currencies[currency.CurrencyCode] = currency
		return nil
	})
}
