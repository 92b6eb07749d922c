package services_test

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/schoolbooks/internal/audit"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/core/services"
	"github.com/SscSPs/schoolbooks/internal/repositories/memory"
)

const (
	cashID     = "acc-cash"
	bankID     = "acc-bank"
	payableID  = "acc-payable"
	retainedID = "acc-retained"
	tuitionID  = "acc-tuition"
	salaryID   = "acc-salary"
	testUserID = "bursar-1"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testAccounts() []domain.Account {
	return []domain.Account{
		{AccountID: cashID, Code: "1000", Name: "Cash", AccountType: domain.Asset},
		{AccountID: bankID, Code: "1100", Name: "Bank", AccountType: domain.Asset},
		{AccountID: payableID, Code: "2000", Name: "Accounts Payable", AccountType: domain.Liability},
		{AccountID: retainedID, Code: "3000", Name: "Retained Earnings", AccountType: domain.Equity, IsRetainedEarnings: true},
		{AccountID: tuitionID, Code: "4000", Name: "Tuition Revenue", AccountType: domain.Revenue},
		{AccountID: salaryID, Code: "5000", Name: "Salaries Expense", AccountType: domain.Expense},
	}
}

func testCurrencies() []domain.Currency {
	return []domain.Currency{
		{CurrencyCode: "USD", Name: "US Dollar", Symbol: "$", Precision: 2, IsBase: true},
		{CurrencyCode: "EUR", Name: "Euro", Symbol: "€", Precision: 2},
	}
}

// ledgerSuite wires every service over a fresh in-memory store with a
// provisioned chart and an open January 2025 period.
type ledgerSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	sink      *audit.MemorySink
	chart     portssvc.ChartSvc
	svc       *portssvc.ServiceContainer
	january   *domain.AccountingPeriod
	refSerial int
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.sink = audit.NewMemorySink()

	chart, err := services.ProvisionChart(s.ctx, s.store, testAccounts(), testCurrencies(), testUserID, services.WithAuditSink(s.sink))
	s.Require().NoError(err)
	s.chart = chart
	s.svc = services.NewServiceContainer(s.store, chart, services.WithAuditSink(s.sink))

	s.january, err = s.svc.Period.CreatePeriod(s.ctx, "January 2025", date(2025, 1, 1), date(2025, 1, 31), testUserID)
	s.Require().NoError(err)
}

func (s *ledgerSuite) nextRef() string {
	s.refSerial++
	return fmt.Sprintf("ref-%d", s.refSerial)
}

// draft builds a two-line entry debiting one account and crediting another.
func (s *ledgerSuite) draft(on time.Time, debitID, creditID, amount, currency string) domain.JournalEntryDraft {
	return domain.JournalEntryDraft{
		EntryDate:   on,
		Description: "test entry",
		Reference:   s.nextRef(),
		CreatedBy:   testUserID,
		Lines: []domain.DraftLine{
			{AccountID: debitID, CurrencyCode: currency, Debit: amt(amount)},
			{AccountID: creditID, CurrencyCode: currency, Credit: amt(amount)},
		},
	}
}

func (s *ledgerSuite) post(on time.Time, debitID, creditID, amount string) *domain.JournalEntry {
	entry, err := s.svc.Journal.Post(s.ctx, s.draft(on, debitID, creditID, amount, "USD"))
	s.Require().NoError(err)
	return entry
}

func (s *ledgerSuite) balance(accountID string, asOf time.Time) decimal.Decimal {
	b, err := s.svc.Balance.BalanceAsOf(s.ctx, accountID, "USD", asOf)
	s.Require().NoError(err)
	return b
}

func (s *ledgerSuite) assertBalance(accountID string, asOf time.Time, want string) {
	got := s.balance(accountID, asOf)
	s.True(amt(want).Equal(got), "balance of %s as of %s: want %s, got %s", accountID, asOf.Format(time.DateOnly), want, got)
}

func (s *ledgerSuite) entryCount() int {
	entries, _, err := s.svc.Journal.ListJournalEntries(s.ctx, domain.JournalEntryFilter{}, 100, nil)
	s.Require().NoError(err)
	return len(entries)
}
