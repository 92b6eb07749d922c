package services

import (
	"context"
	"time"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// PeriodReaderSvc defines read operations for accounting periods
type PeriodReaderSvc interface {
	GetPeriod(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)
	GetPeriodStatus(ctx context.Context, periodID string) (domain.PeriodStatus, error)
	ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error)
}

// PeriodWriterSvc defines write operations for accounting periods
type PeriodWriterSvc interface {
	// CreatePeriod opens a new period over [start, end].
	CreatePeriod(ctx context.Context, name string, start, end time.Time, userID string) (*domain.AccountingPeriod, error)

	// ClosePeriod closes the period in a single transaction: it zeroes revenue
	// and expense into retained earnings and carries permanent balances into
	// the next period.
	ClosePeriod(ctx context.Context, periodID string, userID string) (*domain.ClosingResult, error)
}

// PeriodSvcFacade combines all period-related service interfaces
type PeriodSvcFacade interface {
	PeriodReaderSvc
	PeriodWriterSvc
}
