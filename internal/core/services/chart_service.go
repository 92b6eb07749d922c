package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/audit"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
)

const maxCurrencyPrecision = 18

// chartService is an immutable, indexed chart of accounts.
type chartService struct {
	accounts         []domain.Account
	byID             map[string]domain.Account
	byCode           map[string]domain.Account
	currencies       []domain.Currency
	byCurrency       map[string]domain.Currency
	baseCurrency     domain.Currency
	retainedEarnings domain.Account
}

var _ portssvc.ChartSvc = (*chartService)(nil)

// NewChartService validates and indexes a chart. Account ids and codes must
// be unique, exactly one EQUITY account is flagged as retained earnings and
// exactly one currency is the base currency.
func NewChartService(accounts []domain.Account, currencies []domain.Currency) (portssvc.ChartSvc, error) {
	c := &chartService{
		byID:       make(map[string]domain.Account, len(accounts)),
		byCode:     make(map[string]domain.Account, len(accounts)),
		byCurrency: make(map[string]domain.Currency, len(currencies)),
	}

	baseCount := 0
	for _, cur := range currencies {
		code := strings.TrimSpace(cur.CurrencyCode)
		if code == "" {
			return nil, fmt.Errorf("%w: currency code is required", apperrors.ErrValidation)
		}
		if _, dup := c.byCurrency[code]; dup {
			return nil, fmt.Errorf("%w: duplicate currency %s", apperrors.ErrValidation, code)
		}
		if cur.Precision < 0 || cur.Precision > maxCurrencyPrecision {
			return nil, fmt.Errorf("%w: currency %s precision %d out of range", apperrors.ErrValidation, code, cur.Precision)
		}
		if cur.IsBase {
			baseCount++
			c.baseCurrency = cur
		}
		c.byCurrency[code] = cur
		c.currencies = append(c.currencies, cur)
	}
	if baseCount != 1 {
		return nil, fmt.Errorf("%w: exactly one base currency is required, found %d", apperrors.ErrValidation, baseCount)
	}

	reCount := 0
	for _, acc := range accounts {
		if acc.AccountID == "" || strings.TrimSpace(acc.Code) == "" {
			return nil, fmt.Errorf("%w: account id and code are required", apperrors.ErrValidation)
		}
		if !acc.AccountType.IsValid() {
			return nil, fmt.Errorf("%w: account %s has unknown type %q", apperrors.ErrValidation, acc.Code, acc.AccountType)
		}
		if _, dup := c.byID[acc.AccountID]; dup {
			return nil, fmt.Errorf("%w: duplicate account id %s", apperrors.ErrValidation, acc.AccountID)
		}
		if _, dup := c.byCode[acc.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate account code %s", apperrors.ErrValidation, acc.Code)
		}
		if acc.IsRetainedEarnings {
			if acc.AccountType != domain.Equity {
				return nil, fmt.Errorf("%w: retained earnings account %s must be EQUITY", apperrors.ErrValidation, acc.Code)
			}
			reCount++
			c.retainedEarnings = acc
		}
		c.byID[acc.AccountID] = acc
		c.byCode[acc.Code] = acc
		c.accounts = append(c.accounts, acc)
	}
	if reCount != 1 {
		return nil, fmt.Errorf("%w: exactly one retained earnings account is required, found %d", apperrors.ErrValidation, reCount)
	}

	sort.Slice(c.accounts, func(i, j int) bool { return c.accounts[i].Code < c.accounts[j].Code })
	sort.Slice(c.currencies, func(i, j int) bool { return c.currencies[i].CurrencyCode < c.currencies[j].CurrencyCode })
	return c, nil
}

// LoadChartService builds the chart from what was provisioned into the store.
func LoadChartService(ctx context.Context, repos portsrepo.RepositoryProvider) (portssvc.ChartSvc, error) {
	accounts, err := repos.AccountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	currencies, err := repos.CurrencyRepo.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load currencies: %w", err)
	}
	return NewChartService(accounts, currencies)
}

// ProvisionChart validates a chart and upserts it into the store in one
// transaction. Posting never creates accounts; this is the only writer.
func ProvisionChart(ctx context.Context, txm portsrepo.TransactionManager, accounts []domain.Account, currencies []domain.Currency, userID string, options ...ServiceOption) (portssvc.ChartSvc, error) {
	chart, err := NewChartService(accounts, currencies)
	if err != nil {
		return nil, err
	}
	base := applyOptions(options)
	now := base.now()
	stamp := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}

	err = txm.WithinTx(ctx, func(repos portsrepo.RepositoryProvider) error {
		for _, cur := range chart.Currencies() {
			cur.AuditFields = stamp
			if err := repos.CurrencyRepo.SaveCurrency(ctx, cur); err != nil {
				return fmt.Errorf("failed to save currency %s: %w", cur.CurrencyCode, err)
			}
		}
		for _, acc := range chart.Accounts() {
			acc.AuditFields = stamp
			if err := repos.AccountRepo.SaveAccount(ctx, acc); err != nil {
				return fmt.Errorf("failed to save account %s: %w", acc.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		base.LogError(ctx, err, "Failed to provision chart of accounts")
		return nil, err
	}

	base.LogInfo(ctx, "Chart of accounts provisioned",
		slog.Int("accounts", len(accounts)),
		slog.Int("currencies", len(currencies)))
	base.RecordAudit(ctx, audit.EventChartProvisioned, userID, map[string]any{
		"accounts":   len(accounts),
		"currencies": len(currencies),
	})
	return chart, nil
}

func (c *chartService) AccountByID(accountID string) (domain.Account, error) {
	acc, ok := c.byID[accountID]
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: %s", apperrors.ErrInvalidAccount, accountID)
	}
	return acc, nil
}

func (c *chartService) AccountByCode(code string) (domain.Account, error) {
	acc, ok := c.byCode[code]
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: code %s", apperrors.ErrInvalidAccount, code)
	}
	return acc, nil
}

func (c *chartService) Accounts() []domain.Account {
	out := make([]domain.Account, len(c.accounts))
	copy(out, c.accounts)
	return out
}

func (c *chartService) Currency(code string) (domain.Currency, error) {
	cur, ok := c.byCurrency[code]
	if !ok {
		return domain.Currency{}, fmt.Errorf("%w: %s", apperrors.ErrInvalidCurrency, code)
	}
	return cur, nil
}

func (c *chartService) Currencies() []domain.Currency {
	out := make([]domain.Currency, len(c.currencies))
	copy(out, c.currencies)
	return out
}

func (c *chartService) BaseCurrency() domain.Currency {
	return c.baseCurrency
}

func (c *chartService) RetainedEarnings() domain.Account {
	return c.retainedEarnings
}
