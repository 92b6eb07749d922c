package chart

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/SscSPs/schoolbooks/internal/core/services"
)

const sampleChart = `
currencies:
  - code: USD
    name: US Dollar
    symbol: $
    precision: 2
    base: true
accounts:
  - code: "1000"
    name: Cash
    type: ASSET
  - code: "3000"
    name: Retained Earnings
    type: EQUITY
    retained_earnings: true
  - code: "4000"
    name: Tuition Revenue
    type: REVENUE
`

func TestParse(t *testing.T) {
	accounts, currencies, err := Parse(strings.NewReader(sampleChart), "yaml")
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	require.Len(t, currencies, 1)

	assert.Equal(t, AccountID("1000"), accounts[0].AccountID)
	assert.Equal(t, domain.Asset, accounts[0].AccountType)
	assert.True(t, accounts[1].IsRetainedEarnings)
	assert.True(t, currencies[0].IsBase)
	assert.Equal(t, int32(2), currencies[0].Precision)

	_, err = services.NewChartService(accounts, currencies)
	assert.NoError(t, err)
}

func TestAccountID_IsStable(t *testing.T) {
	assert.Equal(t, AccountID("1000"), AccountID("1000"))
	assert.NotEqual(t, AccountID("1000"), AccountID("1001"))
}

func TestParse_RejectsInvalidChart(t *testing.T) {
	bad := strings.Replace(sampleChart, "type: REVENUE", "type: INCOME", 1)
	_, _, err := Parse(strings.NewReader(bad), "yaml")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "oneof")

	_, _, err = Parse(strings.NewReader("accounts: []\n"), "yaml")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLoad_ShippedChart(t *testing.T) {
	accounts, currencies, err := Load(filepath.Join("..", "..", "config", "chart.yaml"))
	require.NoError(t, err)
	_, err = services.NewChartService(accounts, currencies)
	assert.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "nope.yaml")
}
