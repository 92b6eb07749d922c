package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is one date partition of the materialized balances: the debit
// and credit turnover an account saw in one currency on one day.
type AccountBalance struct {
	AccountID    string          `json:"accountID"`
	CurrencyCode string          `json:"currencyCode"`
	BalanceDate  time.Time       `json:"balanceDate"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
}

// BalanceTurnover is the accumulated turnover of an account in one currency
// up to some as-of date.
type BalanceTurnover struct {
	AccountID    string          `json:"accountID"`
	CurrencyCode string          `json:"currencyCode"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
}

// BalanceQuery filters turnover aggregation. Empty fields match everything.
type BalanceQuery struct {
	AsOf         time.Time
	AccountID    string
	CurrencyCode string
}

// BalanceDrift reports a materialized balance that disagrees with a replay of
// the journal.
type BalanceDrift struct {
	AccountID    string          `json:"accountID"`
	CurrencyCode string          `json:"currencyCode"`
	Materialized decimal.Decimal `json:"materialized"`
	Replayed     decimal.Decimal `json:"replayed"`
}
