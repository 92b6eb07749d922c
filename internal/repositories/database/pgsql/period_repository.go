package pgsql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	"github.com/SscSPs/schoolbooks/internal/models"
	"github.com/SscSPs/schoolbooks/internal/utils/mapping"
)

const periodColumns = `period_id, name, start_date, end_date, status,
	closing_entry_id, opening_entry_id, next_period_id, closed_at, closed_by,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxPeriodRepository struct {
	BaseRepository
}

func newPgxPeriodRepository(db DBTX) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

// SavePeriod inserts a period. The exclusion constraint rejects overlaps.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	m := mapping.ToModelAccountingPeriod(period)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO accounting_periods (`+periodColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`,
		m.PeriodID, m.Name, m.StartDate, m.EndDate, m.Status,
		m.ClosingEntryID, m.OpeningEntryID, m.NextPeriodID, m.ClosedAt, m.ClosedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isExclusionViolation(err) {
			return fmt.Errorf("%w: period %s overlaps an existing period", apperrors.ErrConflict, m.Name)
		}
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: period %s", apperrors.ErrDuplicate, m.PeriodID)
		}
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to insert period "+m.Name, err)
	}
	return nil
}

// FindPeriodByID retrieves a period by id.
func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	return r.findOne(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE period_id = $1`, periodID)
}

// FindPeriodContaining returns the period covering date. FOR SHARE keeps the
// status stable until the posting commits; a closer's status update waits.
func (r *PgxPeriodRepository) FindPeriodContaining(ctx context.Context, date time.Time, forShare bool) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE start_date <= $1 AND end_date >= $1`
	if forShare {
		query += ` FOR SHARE`
	}
	return r.findOne(ctx, query, domain.DateOnly(date))
}

// ListPeriods returns every period ordered by start date.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods ORDER BY start_date`)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query periods", err)
	}
	ms, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AccountingPeriod])
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan periods", err)
	}
	return mapping.ToDomainAccountingPeriodSlice(ms), nil
}

// HasUnclosedPeriodBefore reports whether any period ending before date is not CLOSED.
func (r *PgxPeriodRepository) HasUnclosedPeriodBefore(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounting_periods WHERE end_date < $1 AND status <> $2)`,
		domain.DateOnly(date), string(domain.PeriodClosed),
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(http.StatusInternalServerError, "failed to check earlier periods", err)
	}
	return exists, nil
}

// HasClosedPeriodFrom reports whether any CLOSED period ends on or after date.
func (r *PgxPeriodRepository) HasClosedPeriodFrom(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounting_periods WHERE end_date >= $1 AND status = $2)`,
		domain.DateOnly(date), string(domain.PeriodClosed),
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(http.StatusInternalServerError, "failed to check closed periods", err)
	}
	return exists, nil
}

// UpdatePeriodStatus is a compare-and-set on the status column.
func (r *PgxPeriodRepository) UpdatePeriodStatus(ctx context.Context, periodID string, from, to domain.PeriodStatus, userID string, now time.Time) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, to)
	}
	tag, err := r.DB.Exec(ctx, `
		UPDATE accounting_periods
		SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE period_id = $1 AND status = $2;`,
		periodID, string(from), string(to), now, userID,
	)
	if err != nil {
		return false, apperrors.NewAppError(http.StatusInternalServerError, "failed to update period status", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkPeriodClosed finalizes a CLOSING period and records what the close produced.
func (r *PgxPeriodRepository) MarkPeriodClosed(ctx context.Context, period domain.AccountingPeriod) error {
	m := mapping.ToModelAccountingPeriod(period)
	tag, err := r.DB.Exec(ctx, `
		UPDATE accounting_periods
		SET status = $2, closing_entry_id = $3, opening_entry_id = $4, next_period_id = $5,
		    closed_at = $6, closed_by = $7, last_updated_at = $8, last_updated_by = $9
		WHERE period_id = $1 AND status = $10;`,
		m.PeriodID, string(domain.PeriodClosed), m.ClosingEntryID, m.OpeningEntryID, m.NextPeriodID,
		m.ClosedAt, m.ClosedBy, m.LastUpdatedAt, m.LastUpdatedBy, string(domain.PeriodClosing),
	)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to close period "+m.PeriodID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: period %s is not closing", apperrors.ErrInvalidTransition, m.PeriodID)
	}
	return nil
}

// TryLockPeriod takes a transaction-scoped advisory lock keyed on the period
// id without waiting.
func (r *PgxPeriodRepository) TryLockPeriod(ctx context.Context, periodID string) (bool, error) {
	var locked bool
	err := r.DB.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtextextended($1, 0))`, periodID).Scan(&locked)
	if err != nil {
		return false, apperrors.NewAppError(http.StatusInternalServerError, "failed to lock period "+periodID, err)
	}
	return locked, nil
}

// LockCalendar takes SHARE ROW EXCLUSIVE on accounting_periods. It conflicts
// with itself and with the ROW EXCLUSIVE lock every status UPDATE holds, so
// period creation and period closes commit one at a time.
func (r *PgxPeriodRepository) LockCalendar(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, `LOCK TABLE accounting_periods IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to lock accounting periods", err)
	}
	return nil
}

func (r *PgxPeriodRepository) findOne(ctx context.Context, query string, args ...any) (*domain.AccountingPeriod, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query period", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.AccountingPeriod])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan period", err)
	}
	p := mapping.ToDomainAccountingPeriod(m)
	return &p, nil
}
