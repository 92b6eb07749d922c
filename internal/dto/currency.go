package dto

import "github.com/SscSPs/schoolbooks/internal/core/domain"

// CurrencyResponse defines the data returned for a currency.
type CurrencyResponse struct {
	CurrencyCode string `json:"currencyCode"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Precision    int32  `json:"precision"`
	IsBase       bool   `json:"isBase"`
}

// ToCurrencyResponse converts a domain.Currency to CurrencyResponse DTO.
func ToCurrencyResponse(c domain.Currency) CurrencyResponse {
	return CurrencyResponse{
		CurrencyCode: c.CurrencyCode,
		Symbol:       c.Symbol,
		Name:         c.Name,
		Precision:    c.Precision,
		IsBase:       c.IsBase,
	}
}

// ToCurrencyResponses converts a slice of domain.Currency.
func ToCurrencyResponses(cs []domain.Currency) []CurrencyResponse {
	out := make([]CurrencyResponse, len(cs))
	for i, c := range cs {
		out[i] = ToCurrencyResponse(c)
	}
	return out
}
