package dto

import (
	"github.com/shopspring/decimal"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// AccountResponse defines the data returned for a chart account.
type AccountResponse struct {
	AccountID          string `json:"accountID"`
	Code               string `json:"code"`
	Name               string `json:"name"`
	AccountType        string `json:"accountType"`
	NormalSide         string `json:"normalSide"`
	Description        string `json:"description,omitempty"`
	IsRetainedEarnings bool   `json:"isRetainedEarnings"`
}

// AccountBalanceResponse is the balance of one account in one currency.
type AccountBalanceResponse struct {
	AccountID    string          `json:"accountID"`
	Code         string          `json:"code"`
	CurrencyCode string          `json:"currencyCode"`
	AsOf         string          `json:"asOf"`
	Balance      decimal.Decimal `json:"balance"`
	Formatted    string          `json:"formatted"` // Rounded to the currency's precision
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(a domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:          a.AccountID,
		Code:               a.Code,
		Name:               a.Name,
		AccountType:        string(a.AccountType),
		NormalSide:         string(a.NormalSide()),
		Description:        a.Description,
		IsRetainedEarnings: a.IsRetainedEarnings,
	}
}

// ToAccountResponses converts the chart.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = ToAccountResponse(a)
	}
	return out
}
