package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/platform/metrics"
	"github.com/SscSPs/schoolbooks/internal/utils/accounting"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	store portsrepo.Store
	chart portssvc.ChartSvc
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(store portsrepo.Store, chart portssvc.ChartSvc, options ...ServiceOption) portssvc.ReportingService {
	return &reportingService{
		BaseService: applyOptions(options),
		store:       store,
		chart:       chart,
	}
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// TrialBalance generates a trial balance report as of a specific date
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error) {
	return s.TrialBalanceTx(ctx, s.store.Repositories(), asOf)
}

// TrialBalanceTx builds the report from materialized balances only. Rows are
// gross turnover per account and currency; totals are kept per currency since
// amounts in different currencies never net against each other.
func (s *reportingService) TrialBalanceTx(ctx context.Context, repos portsrepo.RepositoryProvider, asOf time.Time) (*domain.TrialBalance, error) {
	asOf = domain.DateOnly(asOf)

	sums, err := repos.BalanceRepo.SumTurnoverAsOf(ctx, domain.BalanceQuery{AsOf: asOf})
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve trial balance data", slog.String("asOf", asOf.Format(time.DateOnly)))
		return nil, fmt.Errorf("failed to retrieve trial balance data: %w", err)
	}

	report := &domain.TrialBalance{AsOf: asOf, Rows: []domain.TrialBalanceRow{}, Totals: []domain.TrialBalanceTotals{}}
	totals := make(map[string]*domain.TrialBalanceTotals)
	for _, t := range sums {
		if t.Debit.IsZero() && t.Credit.IsZero() {
			continue
		}
		account, err := s.chart.AccountByID(t.AccountID)
		if err != nil {
			return nil, fmt.Errorf("balance references account outside the chart: %w", err)
		}
		report.Rows = append(report.Rows, domain.TrialBalanceRow{
			AccountID:    account.AccountID,
			AccountCode:  account.Code,
			AccountName:  account.Name,
			AccountType:  account.AccountType,
			CurrencyCode: t.CurrencyCode,
			TotalDebit:   t.Debit,
			TotalCredit:  t.Credit,
			Balance:      accounting.NormalBalance(t.Debit, t.Credit, account.AccountType),
		})

		tot, ok := totals[t.CurrencyCode]
		if !ok {
			tot = &domain.TrialBalanceTotals{CurrencyCode: t.CurrencyCode}
			totals[t.CurrencyCode] = tot
		}
		tot.TotalDebit = tot.TotalDebit.Add(t.Debit)
		tot.TotalCredit = tot.TotalCredit.Add(t.Credit)
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].AccountCode != report.Rows[j].AccountCode {
			return report.Rows[i].AccountCode < report.Rows[j].AccountCode
		}
		return report.Rows[i].CurrencyCode < report.Rows[j].CurrencyCode
	})

	report.Status = domain.TrialBalanceEmpty
	if len(report.Rows) > 0 {
		report.Status = domain.TrialBalanceBalanced
	}
	for _, tot := range totals {
		tot.Difference = tot.TotalDebit.Sub(tot.TotalCredit)
		if !tot.Difference.Equal(decimal.Zero) {
			report.Status = domain.TrialBalanceOutOfBalance
		}
		report.Totals = append(report.Totals, *tot)
	}
	sort.Slice(report.Totals, func(i, j int) bool { return report.Totals[i].CurrencyCode < report.Totals[j].CurrencyCode })

	if report.Status == domain.TrialBalanceOutOfBalance {
		metrics.IntegrityFaultsTotal.WithLabelValues(metrics.FaultTrialBalance).Inc()
		for _, tot := range report.Totals {
			if !tot.Difference.IsZero() {
				s.LogError(ctx, fmt.Errorf("trial balance difference %s", tot.Difference), "Trial balance is out of balance",
					slog.String("asOf", asOf.Format(time.DateOnly)),
					slog.String("currency", tot.CurrencyCode),
					slog.String("total_debit", tot.TotalDebit.String()),
					slog.String("total_credit", tot.TotalCredit.String()))
			}
		}
	}

	s.LogDebug(ctx, "Trial balance generated",
		slog.String("asOf", asOf.Format(time.DateOnly)),
		slog.Int("row_count", len(report.Rows)),
		slog.String("status", string(report.Status)))
	return report, nil
}
