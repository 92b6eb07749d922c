package dto

import (
	"github.com/shopspring/decimal"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// TrialBalanceRowResponse represents a row in the trial balance report response
type TrialBalanceRowResponse struct {
	AccountID    string          `json:"accountID"`
	AccountCode  string          `json:"accountCode"`
	AccountName  string          `json:"accountName"`
	AccountType  string          `json:"accountType"`
	CurrencyCode string          `json:"currencyCode"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Balance      decimal.Decimal `json:"balance"`
}

// TrialBalanceTotalsResponse holds the column totals of one currency.
type TrialBalanceTotalsResponse struct {
	CurrencyCode string          `json:"currencyCode"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Difference   decimal.Decimal `json:"difference"`
}

// TrialBalanceResponse represents the trial balance report response
type TrialBalanceResponse struct {
	AsOf   string                       `json:"asOf"`
	Status string                       `json:"status"`
	Rows   []TrialBalanceRowResponse    `json:"rows"`
	Totals []TrialBalanceTotalsResponse `json:"totals"`
}

// ToTrialBalanceResponse converts the report to its response DTO.
func ToTrialBalanceResponse(tb *domain.TrialBalance) TrialBalanceResponse {
	resp := TrialBalanceResponse{
		AsOf:   FormatDate(tb.AsOf),
		Status: string(tb.Status),
		Rows:   make([]TrialBalanceRowResponse, len(tb.Rows)),
		Totals: make([]TrialBalanceTotalsResponse, len(tb.Totals)),
	}
	for i, r := range tb.Rows {
		resp.Rows[i] = TrialBalanceRowResponse{
			AccountID:    r.AccountID,
			AccountCode:  r.AccountCode,
			AccountName:  r.AccountName,
			AccountType:  string(r.AccountType),
			CurrencyCode: r.CurrencyCode,
			Debit:        r.TotalDebit,
			Credit:       r.TotalCredit,
			Balance:      r.Balance,
		}
	}
	for i, t := range tb.Totals {
		resp.Totals[i] = TrialBalanceTotalsResponse{
			CurrencyCode: t.CurrencyCode,
			Debit:        t.TotalDebit,
			Credit:       t.TotalCredit,
			Difference:   t.Difference,
		}
	}
	return resp
}
