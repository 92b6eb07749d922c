package handlers_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) GetJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ListJournalEntries(ctx context.Context, filter domain.JournalEntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, filter, limit, nextToken)
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.JournalEntry), next, args.Error(2)
}

func (m *MockJournalService) Post(ctx context.Context, draft domain.JournalEntryDraft) (*domain.JournalEntry, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) PostInTx(ctx context.Context, repos portsrepo.RepositoryProvider, draft domain.JournalEntryDraft, policy domain.PostingPolicy) (*domain.JournalEntry, error) {
	args := m.Called(ctx, repos, draft, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) BalanceAsOf(ctx context.Context, accountID, currencyCode string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, currencyCode, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBalanceService) BalanceAsOfTx(ctx context.Context, repos portsrepo.RepositoryProvider, accountID, currencyCode string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, repos, accountID, currencyCode, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBalanceService) Apply(ctx context.Context, repos portsrepo.RepositoryProvider, entry domain.JournalEntry) error {
	return m.Called(ctx, repos, entry).Error(0)
}

func (m *MockBalanceService) Rebuild(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockBalanceService) Verify(ctx context.Context, asOf time.Time) ([]domain.BalanceDrift, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BalanceDrift), args.Error(1)
}

var _ portssvc.BalanceSvcFacade = (*MockBalanceService)(nil)

// --- Mock ReportingService ---
type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

func (m *MockReportingService) TrialBalanceTx(ctx context.Context, repos portsrepo.RepositoryProvider, asOf time.Time) (*domain.TrialBalance, error) {
	args := m.Called(ctx, repos, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

var _ portssvc.ReportingService = (*MockReportingService)(nil)

// --- Mock PeriodService ---
type MockPeriodService struct {
	mock.Mock
}

func (m *MockPeriodService) GetPeriod(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodService) GetPeriodStatus(ctx context.Context, periodID string) (domain.PeriodStatus, error) {
	args := m.Called(ctx, periodID)
	return args.Get(0).(domain.PeriodStatus), args.Error(1)
}

func (m *MockPeriodService) ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodService) CreatePeriod(ctx context.Context, name string, start, end time.Time, userID string) (*domain.AccountingPeriod, error) {
	args := m.Called(ctx, name, start, end, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodService) ClosePeriod(ctx context.Context, periodID string, userID string) (*domain.ClosingResult, error) {
	args := m.Called(ctx, periodID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClosingResult), args.Error(1)
}

var _ portssvc.PeriodSvcFacade = (*MockPeriodService)(nil)
