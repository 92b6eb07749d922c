package services

import (
	"context"
	"time"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
)

// ReportingService defines operations for generating financial reports
type ReportingService interface {
	// TrialBalance generates a trial balance report as of a specific date
	TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error)

	// TrialBalanceTx generates the report inside the caller's transaction.
	TrialBalanceTx(ctx context.Context, repos portsrepo.RepositoryProvider, asOf time.Time) (*domain.TrialBalance, error)
}
