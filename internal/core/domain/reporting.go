package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single row in a trial balance report
type TrialBalanceRow struct {
	AccountID    string          `json:"accountID"`
	AccountCode  string          `json:"accountCode"`
	AccountName  string          `json:"accountName"`
	AccountType  AccountType     `json:"accountType"`
	CurrencyCode string          `json:"currencyCode"`
	TotalDebit   decimal.Decimal `json:"totalDebit"`
	TotalCredit  decimal.Decimal `json:"totalCredit"`
	// Balance is positive when it sits on the account's normal side, so a
	// credit-normal revenue account with net credits shows a positive figure.
	Balance decimal.Decimal `json:"balance"`
}

// TrialBalanceTotals holds the column totals for one currency.
type TrialBalanceTotals struct {
	CurrencyCode string          `json:"currencyCode"`
	TotalDebit   decimal.Decimal `json:"totalDebit"`
	TotalCredit  decimal.Decimal `json:"totalCredit"`
	Difference   decimal.Decimal `json:"difference"` // TotalDebit - TotalCredit
}

// TrialBalanceStatus distinguishes a fresh ledger from a faulty one.
type TrialBalanceStatus string

const (
	TrialBalanceEmpty        TrialBalanceStatus = "EMPTY"
	TrialBalanceBalanced     TrialBalanceStatus = "BALANCED"
	TrialBalanceOutOfBalance TrialBalanceStatus = "OUT_OF_BALANCE"
)

// TrialBalance is the report produced by the trial balance generator.
type TrialBalance struct {
	AsOf   time.Time            `json:"asOf"`
	Rows   []TrialBalanceRow    `json:"rows"`
	Totals []TrialBalanceTotals `json:"totals"`
	Status TrialBalanceStatus   `json:"status"`
}

// TotalsFor returns the totals of one currency, or zero totals if the currency
// had no activity.
func (tb TrialBalance) TotalsFor(currencyCode string) TrialBalanceTotals {
	for _, t := range tb.Totals {
		if t.CurrencyCode == currencyCode {
			return t
		}
	}
	return TrialBalanceTotals{CurrencyCode: currencyCode}
}

// RowFor returns the row of an account in a currency.
func (tb TrialBalance) RowFor(accountID, currencyCode string) (TrialBalanceRow, bool) {
	for _, r := range tb.Rows {
		if r.AccountID == accountID && r.CurrencyCode == currencyCode {
			return r, true
		}
	}
	return TrialBalanceRow{}, false
}
