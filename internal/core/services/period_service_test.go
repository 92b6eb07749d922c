package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/audit"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	"github.com/SscSPs/schoolbooks/internal/core/services"
	"github.com/SscSPs/schoolbooks/internal/repositories/memory"
)

// --- Mock PeriodLocker ---
type MockPeriodLocker struct {
	mock.Mock
}

var _ portsrepo.PeriodLocker = (*MockPeriodLocker)(nil)

func (m *MockPeriodLocker) TryLockPeriod(ctx context.Context, periodID string) (bool, error) {
	args := m.Called(ctx, periodID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPeriodLocker) LockCalendar(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// lockedPeriodRepo routes TryLockPeriod to a mock and everything else to the real repository.
type lockedPeriodRepo struct {
	portsrepo.PeriodRepositoryFacade
	locker *MockPeriodLocker
}

func (r lockedPeriodRepo) TryLockPeriod(ctx context.Context, periodID string) (bool, error) {
	return r.locker.TryLockPeriod(ctx, periodID)
}

type contendedStore struct {
	*memory.Store
	locker *MockPeriodLocker
}

func (s contendedStore) WithinTx(ctx context.Context, fn func(repos portsrepo.RepositoryProvider) error) error {
	return s.Store.WithinTx(ctx, func(repos portsrepo.RepositoryProvider) error {
		repos.PeriodRepo = lockedPeriodRepo{PeriodRepositoryFacade: repos.PeriodRepo, locker: s.locker}
		return fn(repos)
	})
}

type PeriodServiceTestSuite struct {
	ledgerSuite
}

func TestPeriodServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PeriodServiceTestSuite))
}

func (s *PeriodServiceTestSuite) TestClosePeriod_EndToEnd() {
	entryA := s.draft(date(2025, 1, 10), cashID, tuitionID, "1000", "USD")
	entryA.Reference = "R1"
	_, err := s.svc.Journal.Post(s.ctx, entryA)
	s.Require().NoError(err)

	tb, err := s.svc.Reporting.TrialBalance(s.ctx, date(2025, 1, 31))
	s.Require().NoError(err)
	s.Equal(domain.TrialBalanceBalanced, tb.Status)
	cash, ok := tb.RowFor(cashID, "USD")
	s.Require().True(ok)
	s.Equal("1000", cash.Balance.String())
	revenue, ok := tb.RowFor(tuitionID, "USD")
	s.Require().True(ok)
	s.Equal("1000", revenue.Balance.String())
	s.True(tb.TotalsFor("USD").Difference.IsZero())

	result, err := s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.Require().NoError(err)
	s.NotEmpty(result.ClosingEntryID)
	s.NotEmpty(result.OpeningEntryID)
	s.NotEmpty(result.NextPeriodID)
	s.Equal("1000", result.NetIncome["USD"].String())

	s.assertBalance(tuitionID, date(2025, 1, 31), "0")
	s.assertBalance(retainedID, date(2025, 1, 31), "1000")
	s.assertBalance(cashID, date(2025, 2, 1), "1000")

	closing, err := s.svc.Journal.GetJournalEntry(s.ctx, result.ClosingEntryID)
	s.Require().NoError(err)
	s.Equal(domain.EntryClosing, closing.Kind)
	s.Equal(date(2025, 1, 31), closing.EntryDate)
	s.Equal("period-close:"+s.january.PeriodID, closing.Reference)

	opening, err := s.svc.Journal.GetJournalEntry(s.ctx, result.OpeningEntryID)
	s.Require().NoError(err)
	s.Equal(domain.EntryOpening, opening.Kind)
	s.Equal(date(2025, 2, 1), opening.EntryDate)
	s.Equal(result.NextPeriodID, opening.PeriodID)
	carried := map[string]string{}
	for _, l := range opening.Lines {
		carried[l.AccountID] = l.Amount().String()
	}
	s.Equal(map[string]string{cashID: "1000", retainedID: "1000"}, carried)

	closed, err := s.svc.Period.GetPeriod(s.ctx, s.january.PeriodID)
	s.Require().NoError(err)
	s.Equal(domain.PeriodClosed, closed.Status)
	s.Require().NotNil(closed.ClosingEntryID)
	s.Equal(result.ClosingEntryID, *closed.ClosingEntryID)
	s.Require().NotNil(closed.OpeningEntryID)
	s.Equal(result.OpeningEntryID, *closed.OpeningEntryID)
	s.Require().NotNil(closed.ClosedBy)
	s.Equal(testUserID, *closed.ClosedBy)

	next, err := s.svc.Period.GetPeriod(s.ctx, result.NextPeriodID)
	s.Require().NoError(err)
	s.Equal(domain.PeriodOpen, next.Status)
	s.Equal(date(2025, 2, 1), next.StartDate)
	s.Equal(date(2025, 2, 28), next.EndDate)
	s.Equal("February 2025", next.Name)

	again := s.draft(date(2025, 2, 3), cashID, tuitionID, "5", "USD")
	again.Reference = "R1"
	_, err = s.svc.Journal.Post(s.ctx, again)
	s.ErrorIs(err, apperrors.ErrDuplicateReference)

	drifts, err := s.svc.Balance.Verify(s.ctx, date(2025, 2, 28))
	s.Require().NoError(err)
	s.Empty(drifts)

	s.Len(s.sink.Named(audit.EventPeriodClosed), 1)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_SecondCloseWritesNothing() {
	s.post(date(2025, 1, 10), cashID, tuitionID, "300")
	_, err := s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.Require().NoError(err)
	before := s.entryCount()

	_, err = s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.ErrorIs(err, apperrors.ErrPeriodAlreadyClosed)
	s.Equal(before, s.entryCount())

	periods, err := s.svc.Period.ListPeriods(s.ctx)
	s.Require().NoError(err)
	s.Len(periods, 2)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_NetLossDebitsRetainedEarnings() {
	s.post(date(2025, 1, 5), cashID, tuitionID, "400")
	s.post(date(2025, 1, 20), salaryID, cashID, "650.50")
	s.post(date(2025, 1, 21), salaryID, payableID, "100")

	result, err := s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.Require().NoError(err)
	s.Equal("-350.5", result.NetIncome["USD"].String())

	s.assertBalance(retainedID, date(2025, 1, 31), "-350.5")
	s.assertBalance(salaryID, date(2025, 1, 31), "0")
	s.assertBalance(cashID, date(2025, 2, 1), "-250.5")
	s.assertBalance(payableID, date(2025, 2, 1), "100")

	tb, err := s.svc.Reporting.TrialBalance(s.ctx, date(2025, 2, 1))
	s.Require().NoError(err)
	s.Equal(domain.TrialBalanceBalanced, tb.Status)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_MultiCurrency() {
	s.post(date(2025, 1, 5), cashID, tuitionID, "100")
	_, err := s.svc.Journal.Post(s.ctx, s.draft(date(2025, 1, 6), bankID, tuitionID, "70", "EUR"))
	s.Require().NoError(err)

	result, err := s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.Require().NoError(err)
	s.Equal("100", result.NetIncome["USD"].String())
	s.Equal("70", result.NetIncome["EUR"].String())

	eur, err := s.svc.Balance.BalanceAsOf(s.ctx, retainedID, "EUR", date(2025, 1, 31))
	s.Require().NoError(err)
	s.Equal("70", eur.String())
}

func (s *PeriodServiceTestSuite) TestClosePeriod_UnbalancedLedgerRollsBack() {
	s.post(date(2025, 1, 10), cashID, tuitionID, "100")
	err := s.store.Repositories().BalanceRepo.ApplyDeltas(s.ctx, []domain.AccountBalance{
		{AccountID: cashID, CurrencyCode: "USD", BalanceDate: date(2025, 1, 11), Debit: amt("0.01")},
	})
	s.Require().NoError(err)
	before := s.entryCount()

	_, err = s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.ErrorIs(err, apperrors.ErrNotBalanced)

	status, err := s.svc.Period.GetPeriodStatus(s.ctx, s.january.PeriodID)
	s.Require().NoError(err)
	s.Equal(domain.PeriodOpen, status)
	s.Equal(before, s.entryCount())
	s.Len(s.sink.Named(audit.EventIntegrityFault), 1)

	periods, err := s.svc.Period.ListPeriods(s.ctx)
	s.Require().NoError(err)
	s.Len(periods, 1, "next period must not be created")
}

func (s *PeriodServiceTestSuite) TestClosePeriod_RequiresEarlierPeriodsClosed() {
	feb, err := s.svc.Period.CreatePeriod(s.ctx, "February 2025", date(2025, 2, 1), date(2025, 2, 28), testUserID)
	s.Require().NoError(err)

	_, err = s.svc.Period.ClosePeriod(s.ctx, feb.PeriodID, testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	status, err := s.svc.Period.GetPeriodStatus(s.ctx, feb.PeriodID)
	s.Require().NoError(err)
	s.Equal(domain.PeriodOpen, status)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_ReusesExistingNextPeriod() {
	feb, err := s.svc.Period.CreatePeriod(s.ctx, "Feb", date(2025, 2, 1), date(2025, 2, 28), testUserID)
	s.Require().NoError(err)
	s.post(date(2025, 1, 10), cashID, tuitionID, "10")
	s.post(date(2025, 2, 1), cashID, tuitionID, "5")

	result, err := s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.Require().NoError(err)
	s.Equal(feb.PeriodID, result.NextPeriodID)

	s.assertBalance(cashID, date(2025, 2, 1), "15")
	drifts, err := s.svc.Balance.Verify(s.ctx, date(2025, 2, 28))
	s.Require().NoError(err)
	s.Empty(drifts)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_ZeroActivitySkipsEntries() {
	result, err := s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.Require().NoError(err)
	s.Empty(result.ClosingEntryID)
	s.Empty(result.OpeningEntryID)
	s.NotEmpty(result.NextPeriodID)
	s.Equal(0, s.entryCount())

	status, err := s.svc.Period.GetPeriodStatus(s.ctx, s.january.PeriodID)
	s.Require().NoError(err)
	s.Equal(domain.PeriodClosed, status)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_QuietPeriodStillCarriesBalances() {
	s.post(date(2025, 1, 10), cashID, tuitionID, "80")
	first, err := s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.Require().NoError(err)

	second, err := s.svc.Period.ClosePeriod(s.ctx, first.NextPeriodID, testUserID)
	s.Require().NoError(err)
	s.Empty(second.ClosingEntryID, "no revenue or expense to close")
	s.NotEmpty(second.OpeningEntryID)
	s.assertBalance(cashID, date(2025, 3, 1), "80")
	s.assertBalance(retainedID, date(2025, 3, 1), "80")

	drifts, err := s.svc.Balance.Verify(s.ctx, date(2025, 3, 31))
	s.Require().NoError(err)
	s.Empty(drifts)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_NotFound() {
	_, err := s.svc.Period.ClosePeriod(s.ctx, "missing", testUserID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.Period.GetPeriodStatus(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *PeriodServiceTestSuite) TestClosePeriod_LockHeldFailsFast() {
	locker := new(MockPeriodLocker)
	locker.On("TryLockPeriod", mock.Anything, s.january.PeriodID).Return(false, nil).Once()
	store := contendedStore{Store: s.store, locker: locker}
	svc := services.NewServiceContainer(store, s.chart, services.WithAuditSink(s.sink))

	_, err := svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.ErrorIs(err, apperrors.ErrAlreadyClosing)
	locker.AssertExpectations(s.T())

	status, err := s.svc.Period.GetPeriodStatus(s.ctx, s.january.PeriodID)
	s.Require().NoError(err)
	s.Equal(domain.PeriodOpen, status)
}

func (s *PeriodServiceTestSuite) TestCreatePeriod_Validation() {
	_, err := s.svc.Period.CreatePeriod(s.ctx, "Overlap", date(2025, 1, 15), date(2025, 2, 15), testUserID)
	s.ErrorIs(err, apperrors.ErrConflict)

	_, err = s.svc.Period.CreatePeriod(s.ctx, "Backwards", date(2025, 3, 10), date(2025, 3, 1), testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Period.CreatePeriod(s.ctx, "", date(2025, 3, 1), date(2025, 3, 31), testUserID)
	s.ErrorIs(err, apperrors.ErrValidation)

	s.Len(s.sink.Named(audit.EventPeriodCreated), 1, "only the fixture period was created")
}

func (s *PeriodServiceTestSuite) TestCreatePeriod_RejectsRangeBeforeClosedPeriod() {
	s.post(date(2025, 1, 10), cashID, tuitionID, "200")
	_, err := s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.Require().NoError(err)

	_, err = s.svc.Period.CreatePeriod(s.ctx, "December 2024", date(2024, 12, 1), date(2024, 12, 31), testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	_, err = s.svc.Journal.Post(s.ctx, s.draft(date(2024, 12, 15), cashID, tuitionID, "500", "USD"))
	s.ErrorIs(err, apperrors.ErrPeriodNotFound)

	drifts, err := s.svc.Balance.Verify(s.ctx, date(2025, 2, 28))
	s.Require().NoError(err)
	s.Empty(drifts)
	s.Len(s.sink.Named(audit.EventPeriodCreated), 1, "December must not be recorded")
}

func (s *PeriodServiceTestSuite) TestCreatePeriod_EarlierPeriodBlocksLaterClose() {
	_, err := s.svc.Period.CreatePeriod(s.ctx, "December 2024", date(2024, 12, 1), date(2024, 12, 31), testUserID)
	s.Require().NoError(err)

	_, err = s.svc.Period.ClosePeriod(s.ctx, s.january.PeriodID, testUserID)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	status, err := s.svc.Period.GetPeriodStatus(s.ctx, s.january.PeriodID)
	s.Require().NoError(err)
	s.Equal(domain.PeriodOpen, status)
}
