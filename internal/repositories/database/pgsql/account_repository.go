package pgsql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	"github.com/SscSPs/schoolbooks/internal/models"
	"github.com/SscSPs/schoolbooks/internal/utils/mapping"
)

const accountColumns = `account_id, code, name, account_type, description, is_retained_earnings,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(db DBTX) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{BaseRepository: BaseRepository{DB: db}}
}

// Ensure implementation matches interface
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// FindAccountByID retrieves a specific account by its unique identifier.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query account "+accountID, err)
	}
	modelAcc, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan account "+accountID, err)
	}
	acc := mapping.ToDomainAccount(modelAcc)
	return &acc, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs. Missing ids are
// simply absent from the result.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ANY($1)`, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query accounts", err)
	}
	modelAccs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan accounts", err)
	}
	for _, m := range modelAccs {
		out[m.AccountID] = mapping.ToDomainAccount(m)
	}
	return out, nil
}

// ListAccounts retrieves the whole chart ordered by account code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query accounts", err)
	}
	modelAccs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan accounts", err)
	}
	return mapping.ToDomainAccountSlice(modelAccs), nil
}

// SaveAccount inserts an account or refreshes its descriptive fields. Code
// and type are fixed once the account exists.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (account_id, code, name, account_type, description, is_retained_earnings,
		                      created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			is_retained_earnings = EXCLUDED.is_retained_earnings,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.DB.Exec(ctx, query,
		m.AccountID, m.Code, m.Name, m.AccountType, m.Description, m.IsRetainedEarnings,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "accounts_code_key") {
			return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, m.Code)
		}
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to save account "+m.Code, err)
	}
	return nil
}

// LockAccountsForUpdate locks the rows in ascending id order so concurrent
// postings touching overlapping accounts queue instead of deadlocking.
func (r *PgxAccountRepository) LockAccountsForUpdate(ctx context.Context, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	ids := make([]string, len(accountIDs))
	copy(ids, accountIDs)
	sort.Strings(ids)

	rows, err := r.DB.Query(ctx,
		`SELECT account_id FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE`, ids)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to lock accounts", err)
	}
	locked, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to lock accounts", err)
	}

	found := make(map[string]struct{}, len(locked))
	for _, id := range locked {
		found[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	return nil
}
