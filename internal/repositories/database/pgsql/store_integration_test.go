package pgsql_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/core/services"
	"github.com/SscSPs/schoolbooks/internal/repositories/database/pgsql"
	"github.com/SscSPs/schoolbooks/pkg/database"
)

const migrationsPath = "file://../../../../migrations"

// PgStoreTestSuite runs the ledger services against a real PostgreSQL
// database named by SCHOOLBOOKS_TEST_DATABASE_URL. The schema is dropped and
// recreated for every test.
type PgStoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	url   string
	pool  *pgxpool.Pool
	store *pgsql.Store
	svc   *portssvc.ServiceContainer
	jan   *domain.AccountingPeriod
}

func TestPgStoreTestSuite(t *testing.T) {
	url := os.Getenv("SCHOOLBOOKS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SCHOOLBOOKS_TEST_DATABASE_URL not set")
	}
	suite.Run(t, &PgStoreTestSuite{url: url})
}

func (s *PgStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := database.RunMigrations(s.url, migrationsPath, database.MigrateDown, logger)
	s.Require().NoError(err)
	_, err = database.RunMigrations(s.url, migrationsPath, database.MigrateUp, logger)
	s.Require().NoError(err)

	s.pool, err = database.NewPgxPool(s.ctx, s.url, true)
	s.Require().NoError(err)
	s.store = pgsql.NewStore(s.pool)

	accounts := []domain.Account{
		{AccountID: "cash", Code: "1000", Name: "Cash", AccountType: domain.Asset},
		{AccountID: "retained", Code: "3000", Name: "Retained Earnings", AccountType: domain.Equity, IsRetainedEarnings: true},
		{AccountID: "tuition", Code: "4000", Name: "Tuition", AccountType: domain.Revenue},
	}
	currencies := []domain.Currency{{CurrencyCode: "USD", Name: "US Dollar", Precision: 2, IsBase: true}}
	chart, err := services.ProvisionChart(s.ctx, s.store, accounts, currencies, "tester")
	s.Require().NoError(err)
	s.svc = services.NewServiceContainer(s.store, chart)

	s.jan, err = s.svc.Period.CreatePeriod(s.ctx, "January 2025",
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), "tester")
	s.Require().NoError(err)
}

func (s *PgStoreTestSuite) TearDownTest() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PgStoreTestSuite) draft(ref, amount string) domain.JournalEntryDraft {
	return domain.JournalEntryDraft{
		EntryDate:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Description: "fees",
		Reference:   ref,
		CreatedBy:   "tester",
		Lines: []domain.DraftLine{
			{AccountID: "cash", CurrencyCode: "USD", Debit: decimal.RequireFromString(amount)},
			{AccountID: "tuition", CurrencyCode: "USD", Credit: decimal.RequireFromString(amount)},
		},
	}
}

func (s *PgStoreTestSuite) TestPostAndRead() {
	entry, err := s.svc.Journal.Post(s.ctx, s.draft("INV-1", "125.50"))
	s.Require().NoError(err)

	got, err := s.svc.Journal.GetJournalEntry(s.ctx, entry.EntryID)
	s.Require().NoError(err)
	s.Len(got.Lines, 2)
	s.Equal(s.jan.PeriodID, got.PeriodID)
	s.True(decimal.RequireFromString("125.50").Equal(got.Lines[0].Debit))

	_, err = s.svc.Journal.Post(s.ctx, s.draft("INV-1", "1"))
	s.ErrorIs(err, apperrors.ErrDuplicateReference)

	bal, err := s.svc.Balance.BalanceAsOf(s.ctx, "cash", "USD", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal("125.5", bal.String())
}

func (s *PgStoreTestSuite) TestConcurrentPostsSerialize() {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, amount := range []string{"100", "50"} {
		wg.Add(1)
		go func(i int, amount string) {
			defer wg.Done()
			_, errs[i] = s.svc.Journal.Post(s.ctx, s.draft("CONC-"+amount, amount))
		}(i, amount)
	}
	wg.Wait()
	s.NoError(errors.Join(errs...))

	bal, err := s.svc.Balance.BalanceAsOf(s.ctx, "cash", "USD", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal("150", bal.String())
}

func (s *PgStoreTestSuite) TestOverlappingPeriodRejected() {
	_, err := s.svc.Period.CreatePeriod(s.ctx, "overlap",
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), "tester")
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *PgStoreTestSuite) TestClosePeriodAndVerify() {
	_, err := s.svc.Journal.Post(s.ctx, s.draft("INV-9", "300"))
	s.Require().NoError(err)

	result, err := s.svc.Period.ClosePeriod(s.ctx, s.jan.PeriodID, "tester")
	s.Require().NoError(err)
	s.NotEmpty(result.ClosingEntryID)
	s.NotEmpty(result.OpeningEntryID)

	_, err = s.svc.Period.ClosePeriod(s.ctx, s.jan.PeriodID, "tester")
	s.ErrorIs(err, apperrors.ErrPeriodAlreadyClosed)

	_, err = s.svc.Journal.Post(s.ctx, s.draft("LATE", "1"))
	s.ErrorIs(err, apperrors.ErrPeriodClosed)

	drifts, err := s.svc.Balance.Verify(s.ctx, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Empty(drifts)
}

func (s *PgStoreTestSuite) TestRebuildDuringPostsLeavesNoDrift() {
	var wg sync.WaitGroup
	errs := make([]error, 9)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Journal.Post(s.ctx, s.draft(fmt.Sprintf("RB-%d", i), "10"))
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[8] = s.svc.Balance.Rebuild(s.ctx, "tester")
	}()
	wg.Wait()
	s.Require().NoError(errors.Join(errs...))

	drifts, err := s.svc.Balance.Verify(s.ctx, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Empty(drifts)

	bal, err := s.svc.Balance.BalanceAsOf(s.ctx, "cash", "USD", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal("80", bal.String())
}

func (s *PgStoreTestSuite) TestCreatePeriodBeforeClosedPeriodRejected() {
	_, err := s.svc.Period.ClosePeriod(s.ctx, s.jan.PeriodID, "tester")
	s.Require().NoError(err)

	_, err = s.svc.Period.CreatePeriod(s.ctx, "December 2024",
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), "tester")
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *PgStoreTestSuite) TestConcurrentCreateAndCloseNeverStrandEarlierPeriod() {
	var wg sync.WaitGroup
	var createErr, closeErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, createErr = s.svc.Period.CreatePeriod(s.ctx, "December 2024",
			time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), "tester")
	}()
	go func() {
		defer wg.Done()
		_, closeErr = s.svc.Period.ClosePeriod(s.ctx, s.jan.PeriodID, "tester")
	}()
	wg.Wait()

	s.True((createErr == nil) != (closeErr == nil), "exactly one of create %v and close %v succeeds", createErr, closeErr)
	if createErr != nil {
		s.ErrorIs(createErr, apperrors.ErrInvalidTransition)
	} else {
		s.ErrorIs(closeErr, apperrors.ErrInvalidTransition)
	}
}

func (s *PgStoreTestSuite) TestJournalRowsAreImmutable() {
	entry, err := s.svc.Journal.Post(s.ctx, s.draft("INV-2", "10"))
	s.Require().NoError(err)

	_, err = s.pool.Exec(s.ctx, `UPDATE journal_entries SET description = 'edited' WHERE entry_id = $1`, entry.EntryID)
	var pgErr *pgconn.PgError
	s.Require().ErrorAs(err, &pgErr)
	s.Contains(pgErr.Message, "immutable")
}
