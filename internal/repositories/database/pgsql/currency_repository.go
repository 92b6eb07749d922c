package pgsql

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	"github.com/SscSPs/schoolbooks/internal/models"
	"github.com/SscSPs/schoolbooks/internal/utils/mapping"
)

const currencyColumns = `currency_code, symbol, name, precision, is_base,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxCurrencyRepository struct {
	BaseRepository
}

// newPgxCurrencyRepository creates a new repository for currency data.
func newPgxCurrencyRepository(db DBTX) portsrepo.CurrencyRepositoryFacade {
	return &PgxCurrencyRepository{BaseRepository: BaseRepository{DB: db}}
}

// Ensure implementation matches interface
var _ portsrepo.CurrencyRepositoryFacade = (*PgxCurrencyRepository)(nil)

// SaveCurrency inserts or updates a currency during chart provisioning.
func (r *PgxCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	m := mapping.ToModelCurrency(currency)
	query := `
		INSERT INTO currencies (currency_code, symbol, name, precision, is_base, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (currency_code) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			precision = EXCLUDED.precision,
			is_base = EXCLUDED.is_base,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.DB.Exec(ctx, query,
		m.CurrencyCode, m.Symbol, m.Name, m.Precision, m.IsBase,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to save currency "+m.CurrencyCode, err)
	}
	return nil
}

// FindCurrencyByCode retrieves a currency by its code.
func (r *PgxCurrencyRepository) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+currencyColumns+` FROM currencies WHERE currency_code = $1`, currencyCode)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query currency "+currencyCode, err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Currency])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to find currency by code "+currencyCode, err)
	}
	cur := mapping.ToDomainCurrency(m)
	return &cur, nil
}

// ListCurrencies retrieves all currencies.
func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+currencyColumns+` FROM currencies ORDER BY currency_code`)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query currencies", err)
	}
	modelCurrencies, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Currency])
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan currencies", err)
	}
	return mapping.ToDomainCurrencySlice(modelCurrencies), nil
}
