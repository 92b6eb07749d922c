package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/core/services"
	"github.com/SscSPs/schoolbooks/internal/dto"
	"github.com/SscSPs/schoolbooks/internal/handlers"
	"github.com/SscSPs/schoolbooks/internal/platform/config"
)

const (
	testUserID = "bursar-1"
	cashID     = "acc-cash"
	tuitionID  = "acc-tuition"
)

type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	jwtSecret string
	token     string

	journal   *MockJournalService
	balance   *MockBalanceService
	reporting *MockReportingService
	period    *MockPeriodService
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

// generateTestToken creates a valid JWT for testing
func generateTestToken(userID string, secret string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.jwtSecret = "test-secret-key-that-is-long-enough"

	token, err := generateTestToken(testUserID, s.jwtSecret)
	s.Require().NoError(err)
	s.token = token

	chart, err := services.NewChartService(
		[]domain.Account{
			{AccountID: cashID, Code: "1000", Name: "Cash", AccountType: domain.Asset},
			{AccountID: "acc-retained", Code: "3000", Name: "Retained Earnings", AccountType: domain.Equity, IsRetainedEarnings: true},
			{AccountID: tuitionID, Code: "4000", Name: "Tuition Revenue", AccountType: domain.Revenue},
		},
		[]domain.Currency{
			{CurrencyCode: "USD", Name: "US Dollar", Symbol: "$", Precision: 2, IsBase: true},
			{CurrencyCode: "JPY", Name: "Yen", Symbol: "¥", Precision: 0},
		},
	)
	s.Require().NoError(err)

	s.journal = new(MockJournalService)
	s.balance = new(MockBalanceService)
	s.reporting = new(MockReportingService)
	s.period = new(MockPeriodService)

	cfg := &config.Config{JWTSecret: s.jwtSecret, RateLimit: "1000-M"}
	err = handlers.RegisterRoutes(s.router, cfg, &portssvc.ServiceContainer{
		Chart:     chart,
		Journal:   s.journal,
		Balance:   s.balance,
		Reporting: s.reporting,
		Period:    s.period,
	})
	s.Require().NoError(err)
}

func (s *HandlerTestSuite) TearDownTest() {
	s.journal.AssertExpectations(s.T())
	s.balance.AssertExpectations(s.T())
	s.reporting.AssertExpectations(s.T())
	s.period.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tuitionRequest() dto.CreateJournalEntryRequest {
	return dto.CreateJournalEntryRequest{
		EntryDate:   "2025-01-15",
		Description: "Term 2 tuition",
		Reference:   "INV-1",
		Lines: []dto.JournalLineRequest{
			{AccountID: cashID, CurrencyCode: "USD", Debit: decimal.RequireFromString("100")},
			{AccountID: tuitionID, CurrencyCode: "USD", Credit: decimal.RequireFromString("100")},
		},
	}
}

func (s *HandlerTestSuite) TestHealth_NoAuthRequired() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestAPI_RequiresToken() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))
	s.Equal(http.StatusUnauthorized, w.Code)
	s.NotEmpty(w.Header().Get("X-RateLimit-Limit"))
}

func (s *HandlerTestSuite) TestPostJournalEntry_Success() {
	posted := &domain.JournalEntry{
		EntryID:     "je-1",
		EntryDate:   date(2025, 1, 15),
		Description: "Term 2 tuition",
		Reference:   "INV-1",
		Kind:        domain.EntryStandard,
		PeriodID:    "p-jan",
		Lines: []domain.JournalEntryLine{
			{LineID: "l-1", LineNo: 1, AccountID: cashID, CurrencyCode: "USD", Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
			{LineID: "l-2", LineNo: 2, AccountID: tuitionID, CurrencyCode: "USD", Debit: decimal.Zero, Credit: decimal.NewFromInt(100)},
		},
		CreatedBy: testUserID,
	}
	s.journal.On("Post", mock.Anything, mock.MatchedBy(func(d domain.JournalEntryDraft) bool {
		return d.CreatedBy == testUserID &&
			d.Reference == "INV-1" &&
			d.Kind == domain.EntryStandard &&
			d.EntryDate.Equal(date(2025, 1, 15)) &&
			len(d.Lines) == 2
	})).Return(posted, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/journal-entries", tuitionRequest())

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalEntryResponse
	s.decode(w, &resp)
	s.Equal("je-1", resp.EntryID)
	s.Equal("2025-01-15", resp.EntryDate)
	s.Len(resp.Lines, 2)
	s.True(resp.Lines[0].Debit.Equal(decimal.NewFromInt(100)))
}

func (s *HandlerTestSuite) TestPostJournalEntry_ErrorStatuses() {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unbalanced", apperrors.ErrUnbalanced, http.StatusBadRequest},
		{"unknown account", apperrors.ErrInvalidAccount, http.StatusBadRequest},
		{"no period", apperrors.ErrPeriodNotFound, http.StatusBadRequest},
		{"closed period", apperrors.ErrPeriodClosed, http.StatusConflict},
		{"duplicate reference", apperrors.ErrDuplicateReference, http.StatusConflict},
		{"insufficient funds", apperrors.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.journal.On("Post", mock.Anything, mock.Anything).Return(nil, tc.err).Once()
			w := s.do(http.MethodPost, "/api/v1/journal-entries", tuitionRequest())
			s.Equal(tc.status, w.Code, w.Body.String())
		})
	}
}

func (s *HandlerTestSuite) TestPostJournalEntry_InternalErrorHidesCause() {
	s.journal.On("Post", mock.Anything, mock.Anything).Return(nil, errors.New("pq: secret detail")).Once()

	w := s.do(http.MethodPost, "/api/v1/journal-entries", tuitionRequest())

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "secret detail")
}

func (s *HandlerTestSuite) TestPostJournalEntry_RejectsMalformedRequests() {
	oneLine := tuitionRequest()
	oneLine.Lines = oneLine.Lines[:1]
	badDate := tuitionRequest()
	badDate.EntryDate = "15/01/2025"

	for name, req := range map[string]dto.CreateJournalEntryRequest{"one line": oneLine, "bad date": badDate} {
		s.Run(name, func() {
			w := s.do(http.MethodPost, "/api/v1/journal-entries", req)
			s.Equal(http.StatusBadRequest, w.Code)
		})
	}
	s.journal.AssertNotCalled(s.T(), "Post", mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestGetJournalEntry_NotFound() {
	s.journal.On("GetJournalEntry", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("journal entry missing")).Once()

	w := s.do(http.MethodGet, "/api/v1/journal-entries/missing", nil)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestListJournalEntries_PassesFilterAndToken() {
	next := "token-2"
	from := date(2025, 1, 1)
	s.journal.On("ListJournalEntries", mock.Anything,
		domain.JournalEntryFilter{From: &from, Kind: domain.EntryStandard},
		10,
		mock.MatchedBy(func(tok *string) bool { return tok != nil && *tok == "token-1" }),
	).Return([]domain.JournalEntry{{EntryID: "je-1", EntryDate: date(2025, 1, 3)}}, &next, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/journal-entries?from=2025-01-01&kind=STANDARD&limit=10&nextToken=token-1", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListJournalEntriesResponse
	s.decode(w, &resp)
	s.Len(resp.Entries, 1)
	s.Require().NotNil(resp.NextToken)
	s.Equal("token-2", *resp.NextToken)
}

func (s *HandlerTestSuite) TestListJournalEntries_RejectsUnknownKind() {
	w := s.do(http.MethodGet, "/api/v1/journal-entries?kind=ADJUSTING", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestListAccounts() {
	w := s.do(http.MethodGet, "/api/v1/accounts", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp []dto.AccountResponse
	s.decode(w, &resp)
	s.Len(resp, 3)
}

func (s *HandlerTestSuite) TestGetAccountBalance_FormatsWithPrecision() {
	s.balance.On("BalanceAsOf", mock.Anything, cashID, "USD", date(2025, 1, 31)).
		Return(decimal.RequireFromString("1234.5"), nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/"+cashID+"/balance?asOf=2025-01-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.AccountBalanceResponse
	s.decode(w, &resp)
	s.Equal("USD", resp.CurrencyCode)
	s.Equal("2025-01-31", resp.AsOf)
	s.Equal("1234.50", resp.Formatted)
}

func (s *HandlerTestSuite) TestGetAccountBalance_UnknownAccountOrCurrency() {
	w := s.do(http.MethodGet, "/api/v1/accounts/acc-nope/balance", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/accounts/"+cashID+"/balance?currency=GBP", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestListCurrencies() {
	w := s.do(http.MethodGet, "/api/v1/currencies", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp []dto.CurrencyResponse
	s.decode(w, &resp)
	s.Len(resp, 2)
}

func (s *HandlerTestSuite) TestTrialBalance() {
	s.reporting.On("TrialBalance", mock.Anything, date(2025, 1, 31)).Return(&domain.TrialBalance{
		AsOf:   date(2025, 1, 31),
		Status: domain.TrialBalanceBalanced,
		Rows: []domain.TrialBalanceRow{
			{AccountID: cashID, AccountCode: "1000", CurrencyCode: "USD", TotalDebit: decimal.NewFromInt(100), TotalCredit: decimal.Zero, Balance: decimal.NewFromInt(100)},
			{AccountID: tuitionID, AccountCode: "4000", CurrencyCode: "USD", TotalDebit: decimal.Zero, TotalCredit: decimal.NewFromInt(100), Balance: decimal.NewFromInt(100)},
		},
		Totals: []domain.TrialBalanceTotals{
			{CurrencyCode: "USD", TotalDebit: decimal.NewFromInt(100), TotalCredit: decimal.NewFromInt(100), Difference: decimal.Zero},
		},
	}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/reports/trial-balance?asOf=2025-01-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.TrialBalanceResponse
	s.decode(w, &resp)
	s.Equal("BALANCED", resp.Status)
	s.Len(resp.Rows, 2)
}

func (s *HandlerTestSuite) TestTrialBalance_InvalidDate() {
	w := s.do(http.MethodGet, "/api/v1/reports/trial-balance?asOf=yesterday", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestCreatePeriod() {
	s.period.On("CreatePeriod", mock.Anything, "January 2025", date(2025, 1, 1), date(2025, 1, 31), testUserID).
		Return(&domain.AccountingPeriod{
			PeriodID:  "p-jan",
			Name:      "January 2025",
			StartDate: date(2025, 1, 1),
			EndDate:   date(2025, 1, 31),
			Status:    domain.PeriodOpen,
		}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/periods", dto.CreatePeriodRequest{
		Name: "January 2025", StartDate: "2025-01-01", EndDate: "2025-01-31",
	})

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.PeriodResponse
	s.decode(w, &resp)
	s.Equal("p-jan", resp.PeriodID)
	s.Equal("OPEN", resp.Status)
}

func (s *HandlerTestSuite) TestCreatePeriod_Overlap() {
	s.period.On("CreatePeriod", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrConflict).Once()

	w := s.do(http.MethodPost, "/api/v1/periods", dto.CreatePeriodRequest{
		Name: "Overlap", StartDate: "2025-01-15", EndDate: "2025-02-15",
	})

	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlerTestSuite) TestListPeriods_InternalError() {
	s.period.On("ListPeriods", mock.Anything).Return(nil, errors.New("db down")).Once()

	w := s.do(http.MethodGet, "/api/v1/periods", nil)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.Contains(w.Body.String(), "Failed to list periods")
}

func (s *HandlerTestSuite) TestGetPeriodStatus() {
	s.period.On("GetPeriodStatus", mock.Anything, "p-jan").Return(domain.PeriodClosed, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/periods/p-jan/status", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.PeriodStatusResponse
	s.decode(w, &resp)
	s.Equal("CLOSED", resp.Status)
}

func (s *HandlerTestSuite) TestClosePeriod() {
	s.period.On("ClosePeriod", mock.Anything, "p-jan", testUserID).Return(&domain.ClosingResult{
		PeriodID:       "p-jan",
		ClosingEntryID: "je-close",
		OpeningEntryID: "je-open",
		NextPeriodID:   "p-feb",
		NetIncome:      map[string]decimal.Decimal{"USD": decimal.NewFromInt(250)},
	}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/periods/p-jan/close", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ClosePeriodResponse
	s.decode(w, &resp)
	s.Equal("p-feb", resp.NextPeriodID)
	s.True(resp.NetIncome["USD"].Equal(decimal.NewFromInt(250)))
}

func (s *HandlerTestSuite) TestClosePeriod_Errors() {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"already closed", apperrors.ErrPeriodAlreadyClosed, http.StatusConflict},
		{"being closed", apperrors.ErrAlreadyClosing, http.StatusConflict},
		{"integrity fault", apperrors.ErrNotBalanced, http.StatusUnprocessableEntity},
		{"unknown period", apperrors.NewNotFoundError("period p-x"), http.StatusNotFound},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.period.On("ClosePeriod", mock.Anything, "p-x", testUserID).Return(nil, tc.err).Once()
			w := s.do(http.MethodPost, "/api/v1/periods/p-x/close", nil)
			s.Equal(tc.status, w.Code)
			if tc.status < http.StatusInternalServerError {
				s.True(strings.Contains(w.Body.String(), "error"))
			}
		})
	}
}

func (s *HandlerTestSuite) TestRebuildBalances() {
	s.balance.On("Rebuild", mock.Anything, testUserID).Return(nil).Once()

	w := s.do(http.MethodPost, "/api/v1/admin/balances/rebuild", nil)

	s.Equal(http.StatusNoContent, w.Code)
}

func (s *HandlerTestSuite) TestVerifyBalances() {
	s.balance.On("Verify", mock.Anything, date(2025, 1, 31)).Return(nil, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/admin/balances/verify?asOf=2025-01-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.VerifyBalancesResponse
	s.decode(w, &resp)
	s.True(resp.Consistent)
	s.Empty(resp.Drifts)
}

func (s *HandlerTestSuite) TestVerifyBalances_ReportsDrift() {
	s.balance.On("Verify", mock.Anything, date(2025, 1, 31)).Return([]domain.BalanceDrift{
		{AccountID: cashID, CurrencyCode: "USD", Materialized: decimal.NewFromInt(93), Replayed: decimal.NewFromInt(100)},
	}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/admin/balances/verify?asOf=2025-01-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.VerifyBalancesResponse
	s.decode(w, &resp)
	s.False(resp.Consistent)
	s.Len(resp.Drifts, 1)
}
