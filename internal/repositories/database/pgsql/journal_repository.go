package pgsql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	"github.com/SscSPs/schoolbooks/internal/models"
	"github.com/SscSPs/schoolbooks/internal/utils/mapping"
	"github.com/SscSPs/schoolbooks/internal/utils/pagination"
)

const (
	entryColumns = `entry_id, entry_date, description, reference, kind, period_id, created_at, created_by`
	lineColumns  = `line_id, entry_id, line_no, account_id, currency_code, debit, credit, memo`
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and their lines.
func newPgxJournalRepository(db DBTX) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{DB: db}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// SaveJournalEntry inserts the header and queues every line in one batch.
func (r *PgxJournalRepository) SaveJournalEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	_, err := r.DB.Exec(ctx, `
		INSERT INTO journal_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		m.EntryID, m.EntryDate, m.Description, m.Reference, m.Kind, m.PeriodID, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err, "journal_entries_reference_key") {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateReference, m.Reference)
		}
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, m.EntryID)
		}
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to insert journal entry "+m.EntryID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `INSERT INTO journal_entry_lines (` + lineColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	for _, line := range entry.Lines {
		ml := mapping.ToModelJournalEntryLine(line)
		batch.Queue(lineQuery, ml.LineID, ml.EntryID, ml.LineNo, ml.AccountID, ml.CurrencyCode, ml.Debit, ml.Credit, ml.Memo)
	}
	// Close reports the first failing statement
	if err := r.DB.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to insert lines of journal entry "+m.EntryID, err)
	}
	return nil
}

// FindJournalEntryByID retrieves an entry with its lines in line order.
func (r *PgxJournalRepository) FindJournalEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1`, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query journal entry "+entryID, err)
	}
	header, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan journal entry "+entryID, err)
	}

	lines, err := r.linesByEntry(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainJournalEntry(header, lines[entryID])
	return &entry, nil
}

// ReferenceExists reports whether an entry with this reference was already posted.
func (r *PgxJournalRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE reference = $1)`, reference).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(http.StatusInternalServerError, "failed to check journal reference", err)
	}
	return exists, nil
}

// ListJournalEntries retrieves a page of entries, newest first, using keyset
// pagination on (entry_date, created_at, entry_id).
func (r *PgxJournalRepository) ListJournalEntries(ctx context.Context, filter domain.JournalEntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	var where []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.From != nil {
		where = append(where, "entry_date >= "+arg(domain.DateOnly(*filter.From)))
	}
	if filter.To != nil {
		where = append(where, "entry_date <= "+arg(domain.DateOnly(*filter.To)))
	}
	if filter.PeriodID != "" {
		where = append(where, "period_id = "+arg(filter.PeriodID))
	}
	if filter.Kind != "" {
		where = append(where, "kind = "+arg(string(filter.Kind)))
	}
	if filter.AccountID != "" {
		where = append(where, "EXISTS (SELECT 1 FROM journal_entry_lines l WHERE l.entry_id = journal_entries.entry_id AND l.account_id = "+arg(filter.AccountID)+")")
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		// Tuple comparison matches the ORDER BY below
		where = append(where, "(entry_date, created_at, entry_id) < ("+arg(cursor.EntryDate)+", "+arg(cursor.CreatedAt)+", "+arg(cursor.EntryID)+")")
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY entry_date DESC, created_at DESC, entry_id DESC LIMIT " + arg(fetchLimit)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query journal entries", err)
	}
	headers, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		return nil, nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan journal entries", err)
	}

	var nextTokenVal *string
	if len(headers) > limit {
		headers = headers[:limit]
		last := headers[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, EntryID: last.EntryID})
		nextTokenVal = &token
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.EntryID
	}
	lines, err := r.linesByEntry(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]domain.JournalEntry, len(headers))
	for i, h := range headers {
		entries[i] = mapping.ToDomainJournalEntry(h, lines[h.EntryID])
	}
	return entries, nextTokenVal, nil
}

// FindLinesUpTo returns every line whose entry date is on or before asOf.
func (r *PgxJournalRepository) FindLinesUpTo(ctx context.Context, asOf time.Time) ([]domain.PostedLine, error) {
	query := `
		SELECT l.line_id, l.entry_id, l.line_no, l.account_id, l.currency_code, l.debit, l.credit, l.memo,
		       e.entry_date, e.kind
		FROM journal_entry_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE e.entry_date <= $1
		ORDER BY e.entry_date, l.entry_id, l.line_no;
	`
	rows, err := r.DB.Query(ctx, query, domain.DateOnly(asOf))
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query journal lines", err)
	}
	modelLines, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalEntryLine])
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan journal lines", err)
	}

	out := make([]domain.PostedLine, len(modelLines))
	for i, m := range modelLines {
		out[i] = mapping.ToDomainPostedLine(m)
	}
	return out, nil
}

func (r *PgxJournalRepository) linesByEntry(ctx context.Context, entryIDs []string) (map[string][]models.JournalEntryLine, error) {
	out := make(map[string][]models.JournalEntryLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+lineColumns+` FROM journal_entry_lines WHERE entry_id = ANY($1) ORDER BY entry_id, line_no`, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query journal entry lines", err)
	}
	// The header-only columns stay zero
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[models.JournalEntryLine])
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan journal entry lines", err)
	}
	for _, l := range lines {
		out[l.EntryID] = append(out[l.EntryID], l)
	}
	return out, nil
}
