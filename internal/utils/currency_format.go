package utils

import (
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FormatWithCurrencyPrecision formats an amount with exactly the currency's minor digits.
// Example: amount 12.3 with USD (precision 2) returns "12.30"
// Example: amount 1500 with JPY (precision 0) returns "1500"
func FormatWithCurrencyPrecision(amount decimal.Decimal, currency domain.Currency) string {
	return amount.StringFixed(currency.Precision)
}

// FitsCurrencyPrecision reports whether amount has no more fractional digits
// than the currency allows.
func FitsCurrencyPrecision(amount decimal.Decimal, currency domain.Currency) bool {
	return amount.Equal(amount.Truncate(currency.Precision))
}
