package mapping

import (
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/SscSPs/schoolbooks/internal/models"
)

func ToModelAccountBalance(d domain.AccountBalance) models.AccountBalance {
	return models.AccountBalance{
		AccountID:    d.AccountID,
		CurrencyCode: d.CurrencyCode,
		BalanceDate:  domain.DateOnly(d.BalanceDate),
		Debit:        d.Debit,
		Credit:       d.Credit,
	}
}
