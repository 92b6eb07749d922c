package services

import (
	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// ChartSvc is the read-only chart of accounts. It is loaded once at startup
// and safe for concurrent use.
type ChartSvc interface {
	// AccountByID returns apperrors.ErrInvalidAccount for unknown ids.
	AccountByID(accountID string) (domain.Account, error)
	AccountByCode(code string) (domain.Account, error)
	// Accounts returns the chart ordered by account code.
	Accounts() []domain.Account

	// Currency returns apperrors.ErrInvalidCurrency for unknown codes.
	Currency(code string) (domain.Currency, error)
	Currencies() []domain.Currency
	BaseCurrency() domain.Currency

	// RetainedEarnings is the equity account that receives net income on close.
	RetainedEarnings() domain.Account
}
