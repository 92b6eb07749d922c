package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// PeriodReader defines read operations for accounting periods
type PeriodReader interface {
	// FindPeriodByID retrieves a period by id.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)

	// FindPeriodContaining returns the period whose range covers date. With
	// forShare set the row is share-locked so a concurrent close waits.
	FindPeriodContaining(ctx context.Context, date time.Time, forShare bool) (*domain.AccountingPeriod, error)

	// ListPeriods returns every period ordered by start date.
	ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error)

	// HasUnclosedPeriodBefore reports whether any period ending before date is not CLOSED.
	HasUnclosedPeriodBefore(ctx context.Context, date time.Time) (bool, error)

	// HasClosedPeriodFrom reports whether any CLOSED period ends on or after date.
	HasClosedPeriodFrom(ctx context.Context, date time.Time) (bool, error)
}

// PeriodWriter defines write operations for accounting periods
type PeriodWriter interface {
	// SavePeriod inserts a period. Overlapping ranges yield apperrors.ErrConflict.
	SavePeriod(ctx context.Context, period domain.AccountingPeriod) error

	// UpdatePeriodStatus moves the period from one status to another and
	// reports whether a row matched the expected current status.
	UpdatePeriodStatus(ctx context.Context, periodID string, from, to domain.PeriodStatus, userID string, now time.Time) (bool, error)

	// MarkPeriodClosed finalizes a CLOSING period and records the entries the close produced.
	MarkPeriodClosed(ctx context.Context, period domain.AccountingPeriod) error
}

// PeriodLocker serializes closers of the same period.
type PeriodLocker interface {
	// TryLockPeriod attempts a transaction-scoped exclusive lock on the
	// period without waiting.
	TryLockPeriod(ctx context.Context, periodID string) (bool, error)

	// LockCalendar blocks until no other transaction is creating a period or
	// changing a period's status, and holds that exclusion until commit.
	LockCalendar(ctx context.Context) error
}

// PeriodRepositoryFacade combines all period-related repository interfaces
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
	PeriodLocker
}
