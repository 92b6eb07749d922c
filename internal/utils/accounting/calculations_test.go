package accounting

import (
	"testing"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedAmount(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	tests := []struct {
		accountType domain.AccountType
		side        domain.EntrySide
		want        decimal.Decimal
	}{
		{domain.Asset, domain.Debit, hundred},
		{domain.Asset, domain.Credit, hundred.Neg()},
		{domain.Expense, domain.Debit, hundred},
		{domain.Liability, domain.Credit, hundred},
		{domain.Equity, domain.Debit, hundred.Neg()},
		{domain.Revenue, domain.Credit, hundred},
		{domain.Revenue, domain.Debit, hundred.Neg()},
	}
	for _, tt := range tests {
		t.Run(string(tt.accountType)+"_"+string(tt.side), func(t *testing.T) {
			got, err := SignedAmount(hundred, tt.side, tt.accountType)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}

	_, err := SignedAmount(hundred, domain.Debit, domain.AccountType("BOGUS"))
	assert.Error(t, err)
}

func TestNormalBalance(t *testing.T) {
	d := decimal.NewFromInt(300)
	c := decimal.NewFromInt(120)
	assert.True(t, decimal.NewFromInt(180).Equal(NormalBalance(d, c, domain.Asset)))
	assert.True(t, decimal.NewFromInt(-180).Equal(NormalBalance(d, c, domain.Revenue)))
}

func TestLineDelta(t *testing.T) {
	line := domain.JournalEntryLine{Credit: decimal.RequireFromString("12.50")}
	got, err := LineDelta(line, domain.Asset)
	require.NoError(t, err)
	assert.Equal(t, "-12.5", got.String())
}
