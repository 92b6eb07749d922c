package accounting

import (
	"fmt"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount applies the correct sign to a line amount based on account type and entry side.
// This is used in both services and repositories to ensure consistent accounting logic.
func SignedAmount(amount decimal.Decimal, side domain.EntrySide, accountType domain.AccountType) (decimal.Decimal, error) {
	// DEBIT to ASSET/EXPENSE -> Positive (+)
	// CREDIT to ASSET/EXPENSE -> Negative (-)
	// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
	// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
	switch accountType {
	case domain.Asset, domain.Expense:
		if side == domain.Credit {
			return amount.Neg(), nil
		}
	case domain.Liability, domain.Equity, domain.Revenue:
		if side == domain.Debit {
			return amount.Neg(), nil
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
	return amount, nil
}

// NormalBalance nets debit and credit turnover so the result is positive on
// the account type's normal side.
func NormalBalance(debit, credit decimal.Decimal, accountType domain.AccountType) decimal.Decimal {
	if accountType.NormalSide() == domain.Debit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// LineDelta returns the signed effect of a journal line on its account's balance.
func LineDelta(line domain.JournalEntryLine, accountType domain.AccountType) (decimal.Decimal, error) {
	return SignedAmount(line.Amount(), line.Side(), accountType)
}
