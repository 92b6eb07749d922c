package pgsql

import (
	"context"
	"net/http"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	"github.com/SscSPs/schoolbooks/internal/utils/mapping"
)

type PgxBalanceRepository struct {
	BaseRepository
}

func newPgxBalanceRepository(db DBTX) portsrepo.BalanceRepositoryFacade {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.BalanceRepositoryFacade = (*PgxBalanceRepository)(nil)

// ApplyDeltas adds each delta to its date partition with an upsert. Rows are
// written in key order so concurrent writers lock partitions consistently.
func (r *PgxBalanceRepository) ApplyDeltas(ctx context.Context, deltas []domain.AccountBalance) error {
	if len(deltas) == 0 {
		return nil
	}
	sorted := make([]domain.AccountBalance, len(deltas))
	copy(sorted, deltas)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if a.CurrencyCode != b.CurrencyCode {
			return a.CurrencyCode < b.CurrencyCode
		}
		return a.BalanceDate.Before(b.BalanceDate)
	})

	query := `
		INSERT INTO account_balances (account_id, currency_code, balance_date, debit, credit)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, currency_code, balance_date) DO UPDATE SET
			debit = account_balances.debit + EXCLUDED.debit,
			credit = account_balances.credit + EXCLUDED.credit;
	`
	batch := &pgx.Batch{}
	for _, d := range sorted {
		m := mapping.ToModelAccountBalance(d)
		batch.Queue(query, m.AccountID, m.CurrencyCode, m.BalanceDate, m.Debit, m.Credit)
	}
	if err := r.DB.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to apply balance deltas", err)
	}
	return nil
}

// SumTurnoverAsOf sums every partition dated on or before q.AsOf.
func (r *PgxBalanceRepository) SumTurnoverAsOf(ctx context.Context, q domain.BalanceQuery) ([]domain.BalanceTurnover, error) {
	query := `
		SELECT account_id, currency_code, SUM(debit), SUM(credit)
		FROM account_balances
		WHERE balance_date <= $1
		  AND ($2 = '' OR account_id = $2)
		  AND ($3 = '' OR currency_code = $3)
		GROUP BY account_id, currency_code
		ORDER BY account_id, currency_code;
	`
	rows, err := r.DB.Query(ctx, query, domain.DateOnly(q.AsOf), q.AccountID, q.CurrencyCode)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to sum balances", err)
	}
	sums, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BalanceTurnover, error) {
		var t domain.BalanceTurnover
		err := row.Scan(&t.AccountID, &t.CurrencyCode, &t.Debit, &t.Credit)
		return t, err
	})
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan balance sums", err)
	}
	return sums, nil
}

// LockForRebuild takes EXCLUSIVE on account_balances. Posters hold ROW
// EXCLUSIVE from their first upsert until commit, so once this returns every
// line they wrote is visible to the next READ COMMITTED statement.
func (r *PgxBalanceRepository) LockForRebuild(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, `LOCK TABLE account_balances IN EXCLUSIVE MODE`); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to lock balances", err)
	}
	return nil
}

// DeleteAll drops every partition ahead of a rebuild.
func (r *PgxBalanceRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, `DELETE FROM account_balances`); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to clear balances", err)
	}
	return nil
}
