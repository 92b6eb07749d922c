package pgsql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorClassification(t *testing.T) {
	dupRef := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "journal_entries_reference_key"})
	overlap := &pgconn.PgError{Code: pgExclusionViolation, ConstraintName: "accounting_periods_no_overlap"}

	assert.True(t, isUniqueViolation(dupRef, "journal_entries_reference_key"))
	assert.True(t, isUniqueViolation(dupRef, ""))
	assert.False(t, isUniqueViolation(dupRef, "journal_entries_pkey"))
	assert.False(t, isUniqueViolation(overlap, ""))
	assert.True(t, isExclusionViolation(overlap))
	assert.False(t, isExclusionViolation(errors.New("connection reset")))

	code, constraint := pgErrorCode(errors.New("plain"))
	assert.Empty(t, code)
	assert.Empty(t, constraint)
}
