package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is a row of the account_balances table.
type AccountBalance struct {
	AccountID    string          `db:"account_id"`
	CurrencyCode string          `db:"currency_code"`
	BalanceDate  time.Time       `db:"balance_date"`
	Debit        decimal.Decimal `db:"debit"`
	Credit       decimal.Decimal `db:"credit"`
}
