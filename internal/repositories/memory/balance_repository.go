package memory

import (
	"context"
	"sort"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

type balanceRepo struct{ access }

func (r *balanceRepo) ApplyDeltas(_ context.Context, deltas []domain.AccountBalance) error {
	return r.with(func(s *state) error {
		for _, d := range deltas {
			day := domain.DateOnly(d.BalanceDate)
			key := balanceKey{accountID: d.AccountID, currencyCode: d.CurrencyCode, date: day.Format("2006-01-02")}
			cur, ok := s.balances[key]
			if !ok {
				cur = domain.AccountBalance{AccountID: d.AccountID, CurrencyCode: d.CurrencyCode, BalanceDate: day}
			}
			cur.Debit = cur.Debit.Add(d.Debit)
			cur.Credit = cur.Credit.Add(d.Credit)
			s.balances[key] = cur
		}
		return nil
	})
}

func (r *balanceRepo) SumTurnoverAsOf(_ context.Context, q domain.BalanceQuery) ([]domain.BalanceTurnover, error) {
	type groupKey struct{ accountID, currencyCode string }
	sums := make(map[groupKey]domain.BalanceTurnover)
	err := r.with(func(s *state) error {
		for _, b := range s.balances {
			if b.BalanceDate.After(q.AsOf) {
				continue
			}
			if q.AccountID != "" && b.AccountID != q.AccountID {
				continue
			}
			if q.CurrencyCode != "" && b.CurrencyCode != q.CurrencyCode {
				continue
			}
			k := groupKey{b.AccountID, b.CurrencyCode}
			t, ok := sums[k]
			if !ok {
				t = domain.BalanceTurnover{AccountID: b.AccountID, CurrencyCode: b.CurrencyCode}
			}
			t.Debit = t.Debit.Add(b.Debit)
			t.Credit = t.Credit.Add(b.Credit)
			sums[k] = t
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.BalanceTurnover, 0, len(sums))
	for _, t := range sums {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].CurrencyCode < out[j].CurrencyCode
	})
	return out, nil
}

// LockForRebuild is a no-op: WithinTx already holds the store lock.
func (r *balanceRepo) LockForRebuild(_ context.Context) error {
	return nil
}

func (r *balanceRepo) DeleteAll(_ context.Context) error {
	return r.with(func(s *state) error {
		s.balances = make(map[balanceKey]domain.AccountBalance)
		return nil
	})
}
