package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/schoolbooks/internal/audit"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/platform/metrics"
	"github.com/SscSPs/schoolbooks/internal/utils/accounting"
)

// endOfTime bounds "everything ever posted" queries.
var endOfTime = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// balanceService materializes per-day debit/credit turnover so that balances
// as of any date are a sum over partitions instead of a journal scan.
type balanceService struct {
	BaseService
	store portsrepo.Store
	chart portssvc.ChartSvc
}

// NewBalanceService creates the balance materializer.
func NewBalanceService(store portsrepo.Store, chart portssvc.ChartSvc, options ...ServiceOption) portssvc.BalanceSvcFacade {
	return &balanceService{
		BaseService: applyOptions(options),
		store:       store,
		chart:       chart,
	}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

type turnoverKey struct {
	accountID    string
	currencyCode string
}

// deltasFor groups the entry's lines into one partition delta per account and currency.
func deltasFor(entry domain.JournalEntry) []domain.AccountBalance {
	index := make(map[turnoverKey]int)
	var deltas []domain.AccountBalance
	for _, l := range entry.Lines {
		k := turnoverKey{l.AccountID, l.CurrencyCode}
		i, ok := index[k]
		if !ok {
			i = len(deltas)
			index[k] = i
			deltas = append(deltas, domain.AccountBalance{
				AccountID:    l.AccountID,
				CurrencyCode: l.CurrencyCode,
				BalanceDate:  domain.DateOnly(entry.EntryDate),
			})
		}
		deltas[i].Debit = deltas[i].Debit.Add(l.Debit)
		deltas[i].Credit = deltas[i].Credit.Add(l.Credit)
	}
	return deltas
}

// Apply adds the entry to its date partitions. Opening entries restate
// balances the partitions already hold, so they are recorded in the journal
// only.
func (s *balanceService) Apply(ctx context.Context, repos portsrepo.RepositoryProvider, entry domain.JournalEntry) error {
	if entry.Kind == domain.EntryOpening {
		return nil
	}
	if err := repos.BalanceRepo.ApplyDeltas(ctx, deltasFor(entry)); err != nil {
		return fmt.Errorf("failed to apply balance deltas for entry %s: %w", entry.EntryID, err)
	}
	return nil
}

func (s *balanceService) BalanceAsOf(ctx context.Context, accountID, currencyCode string, asOf time.Time) (decimal.Decimal, error) {
	return s.BalanceAsOfTx(ctx, s.store.Repositories(), accountID, currencyCode, asOf)
}

func (s *balanceService) BalanceAsOfTx(ctx context.Context, repos portsrepo.RepositoryProvider, accountID, currencyCode string, asOf time.Time) (decimal.Decimal, error) {
	account, err := s.chart.AccountByID(accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := s.chart.Currency(currencyCode); err != nil {
		return decimal.Zero, err
	}

	sums, err := repos.BalanceRepo.SumTurnoverAsOf(ctx, domain.BalanceQuery{
		AsOf:         domain.DateOnly(asOf),
		AccountID:    accountID,
		CurrencyCode: currencyCode,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to sum balance partitions", slog.String("account_id", accountID))
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}

	balance := decimal.Zero
	for _, t := range sums {
		balance = balance.Add(accounting.NormalBalance(t.Debit, t.Credit, account.AccountType))
	}
	return balance, nil
}

// Rebuild replays every non-opening line into fresh partitions.
func (s *balanceService) Rebuild(ctx context.Context, userID string) error {
	var replayed int
	err := s.store.WithinTx(ctx, func(repos portsrepo.RepositoryProvider) error {
		if err := repos.BalanceRepo.LockForRebuild(ctx); err != nil {
			return fmt.Errorf("failed to lock balances: %w", err)
		}
		lines, err := repos.JournalRepo.FindLinesUpTo(ctx, endOfTime)
		if err != nil {
			return fmt.Errorf("failed to read journal lines: %w", err)
		}
		if err := repos.BalanceRepo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to clear balances: %w", err)
		}

		deltas := make([]domain.AccountBalance, 0, len(lines))
		for _, l := range lines {
			if l.Kind == domain.EntryOpening {
				continue
			}
			deltas = append(deltas, domain.AccountBalance{
				AccountID:    l.AccountID,
				CurrencyCode: l.CurrencyCode,
				BalanceDate:  domain.DateOnly(l.EntryDate),
				Debit:        l.Debit,
				Credit:       l.Credit,
			})
		}
		replayed = len(deltas)
		return repos.BalanceRepo.ApplyDeltas(ctx, deltas)
	})
	if err != nil {
		s.LogError(ctx, err, "Balance rebuild failed")
		return err
	}

	s.LogInfo(ctx, "Balances rebuilt from journal", slog.Int("lines", replayed))
	s.RecordAudit(ctx, audit.EventBalancesRebuilt, userID, map[string]any{"lines": replayed})
	return nil
}

// Verify recomputes every balance from journal lines, starting at the latest
// opening entry on or before asOf, and reports where the materialized
// partitions disagree.
func (s *balanceService) Verify(ctx context.Context, asOf time.Time) ([]domain.BalanceDrift, error) {
	asOf = domain.DateOnly(asOf)
	var drifts []domain.BalanceDrift

	// Lines and balances must come from one snapshot.
	err := s.store.WithinTxIsolation(ctx, portsrepo.RepeatableRead, func(repos portsrepo.RepositoryProvider) error {
		lines, err := repos.JournalRepo.FindLinesUpTo(ctx, asOf)
		if err != nil {
			return fmt.Errorf("failed to read journal lines: %w", err)
		}
		sums, err := repos.BalanceRepo.SumTurnoverAsOf(ctx, domain.BalanceQuery{AsOf: asOf})
		if err != nil {
			return fmt.Errorf("failed to read balances: %w", err)
		}

		replayed, err := s.replay(lines)
		if err != nil {
			return err
		}
		materialized := make(map[turnoverKey]decimal.Decimal, len(sums))
		for _, t := range sums {
			account, err := s.chart.AccountByID(t.AccountID)
			if err != nil {
				return err
			}
			materialized[turnoverKey{t.AccountID, t.CurrencyCode}] = accounting.NormalBalance(t.Debit, t.Credit, account.AccountType)
		}

		keys := make(map[turnoverKey]struct{}, len(materialized)+len(replayed))
		for k := range materialized {
			keys[k] = struct{}{}
		}
		for k := range replayed {
			keys[k] = struct{}{}
		}
		for k := range keys {
			m, r := materialized[k], replayed[k]
			if !m.Equal(r) {
				drifts = append(drifts, domain.BalanceDrift{
					AccountID:    k.accountID,
					CurrencyCode: k.currencyCode,
					Materialized: m,
					Replayed:     r,
				})
			}
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Balance verification failed")
		return nil, err
	}

	sort.Slice(drifts, func(i, j int) bool {
		if drifts[i].AccountID != drifts[j].AccountID {
			return drifts[i].AccountID < drifts[j].AccountID
		}
		return drifts[i].CurrencyCode < drifts[j].CurrencyCode
	})
	if len(drifts) > 0 {
		metrics.IntegrityFaultsTotal.WithLabelValues(metrics.FaultBalanceDrift).Add(float64(len(drifts)))
		s.LogError(ctx, fmt.Errorf("%d balances drifted", len(drifts)), "Materialized balances disagree with journal",
			slog.String("as_of", asOf.Format(time.DateOnly)))
	}
	return drifts, nil
}

// replay folds lines into normal-side balances. The latest opening entry is a
// checkpoint: its lines are the full state of the permanent accounts as of the
// previous close, when temporary accounts were zero, so only lines dated on or
// after it are added.
func (s *balanceService) replay(lines []domain.PostedLine) (map[turnoverKey]decimal.Decimal, error) {
	var checkpoint string
	var checkpointDate time.Time
	for _, l := range lines {
		if l.Kind == domain.EntryOpening && !l.EntryDate.Before(checkpointDate) {
			checkpoint = l.EntryID
			checkpointDate = l.EntryDate
		}
	}

	out := make(map[turnoverKey]decimal.Decimal)
	for _, l := range lines {
		if l.Kind == domain.EntryOpening {
			if l.EntryID != checkpoint {
				continue
			}
		} else if checkpoint != "" && l.EntryDate.Before(checkpointDate) {
			continue
		}
		account, err := s.chart.AccountByID(l.AccountID)
		if err != nil {
			return nil, err
		}
		delta, err := accounting.LineDelta(l.JournalEntryLine, account.AccountType)
		if err != nil {
			return nil, err
		}
		k := turnoverKey{l.AccountID, l.CurrencyCode}
		out[k] = out[k].Add(delta)
	}
	return out, nil
}
