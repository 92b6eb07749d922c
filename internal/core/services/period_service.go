package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/audit"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/platform/metrics"
)

// Closing and opening entries carry these references so a second closure of
// the same period collides on the unique reference.
const (
	closingReferencePrefix = "period-close:"
	openingReferencePrefix = "period-open:"
)

// periodService runs the period lifecycle OPEN -> CLOSING -> CLOSED.
type periodService struct {
	BaseService
	store     portsrepo.Store
	chart     portssvc.ChartSvc
	journal   portssvc.JournalWriterSvc
	reporting portssvc.ReportingService
}

// NewPeriodService creates the period closing engine.
func NewPeriodService(store portsrepo.Store, chart portssvc.ChartSvc, journal portssvc.JournalWriterSvc, reporting portssvc.ReportingService, options ...ServiceOption) portssvc.PeriodSvcFacade {
	return &periodService{
		BaseService: applyOptions(options),
		store:       store,
		chart:       chart,
		journal:     journal,
		reporting:   reporting,
	}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) GetPeriod(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	period, err := s.store.Repositories().PeriodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("accounting period " + periodID)
		}
		s.LogError(ctx, err, "Failed to get accounting period", slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to get accounting period: %w", err)
	}
	return period, nil
}

func (s *periodService) GetPeriodStatus(ctx context.Context, periodID string) (domain.PeriodStatus, error) {
	period, err := s.GetPeriod(ctx, periodID)
	if err != nil {
		return "", err
	}
	return period.Status, nil
}

func (s *periodService) ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error) {
	periods, err := s.store.Repositories().PeriodRepo.ListPeriods(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounting periods")
		return nil, fmt.Errorf("failed to list accounting periods: %w", err)
	}
	if periods == nil {
		periods = []domain.AccountingPeriod{}
	}
	return periods, nil
}

func (s *periodService) newPeriod(name string, start, end time.Time, userID string) domain.AccountingPeriod {
	now := s.now()
	return domain.AccountingPeriod{
		PeriodID:  uuid.NewString(),
		Name:      name,
		StartDate: domain.DateOnly(start),
		EndDate:   domain.DateOnly(end),
		Status:    domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}

// CreatePeriod opens a new period. Ranges may not overlap an existing period
// and may not start on or before the end of any closed period.
func (s *periodService) CreatePeriod(ctx context.Context, name string, start, end time.Time, userID string) (*domain.AccountingPeriod, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: period name is required", apperrors.ErrValidation)
	}
	if start.IsZero() || end.IsZero() || domain.DateOnly(end).Before(domain.DateOnly(start)) {
		return nil, fmt.Errorf("%w: period must end on or after its start", apperrors.ErrValidation)
	}

	period := s.newPeriod(name, start, end, userID)
	err := s.store.WithinTx(ctx, func(repos portsrepo.RepositoryProvider) error {
		if err := repos.PeriodRepo.LockCalendar(ctx); err != nil {
			return err
		}
		closed, err := repos.PeriodRepo.HasClosedPeriodFrom(ctx, period.StartDate)
		if err != nil {
			return fmt.Errorf("failed to check closed periods: %w", err)
		}
		if closed {
			return fmt.Errorf("%w: %s starts on or before the end of a closed period", apperrors.ErrInvalidTransition, name)
		}
		return repos.PeriodRepo.SavePeriod(ctx, period)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to create accounting period", slog.String("name", name))
		return nil, fmt.Errorf("failed to create accounting period: %w", err)
	}

	s.LogInfo(ctx, "Accounting period created", slog.String("period_id", period.PeriodID), slog.String("name", name))
	s.RecordAudit(ctx, audit.EventPeriodCreated, userID, map[string]any{
		"period_id":  period.PeriodID,
		"start_date": period.StartDate.Format(time.DateOnly),
		"end_date":   period.EndDate.Format(time.DateOnly),
	})
	return &period, nil
}

// ClosePeriod runs the whole close in one transaction. Any failure rolls
// back every step, including the OPEN -> CLOSING transition.
func (s *periodService) ClosePeriod(ctx context.Context, periodID string, userID string) (*domain.ClosingResult, error) {
	var result *domain.ClosingResult
	err := s.store.WithinTx(ctx, func(repos portsrepo.RepositoryProvider) error {
		r, err := s.closeInTx(ctx, repos, periodID, userID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotBalanced):
			metrics.PeriodClosesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			s.LogError(ctx, err, "Period close aborted on unbalanced ledger", slog.String("period_id", periodID))
			s.RecordAudit(ctx, audit.EventIntegrityFault, userID, map[string]any{"period_id": periodID, "error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrValidation):
			metrics.PeriodClosesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			s.LogWarn(ctx, "Period close rejected", slog.String("period_id", periodID), slog.String("error", err.Error()))
		default:
			metrics.PeriodClosesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			s.LogError(ctx, err, "Period close failed", slog.String("period_id", periodID))
		}
		return nil, err
	}

	metrics.PeriodClosesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	netIncome := make(map[string]string, len(result.NetIncome))
	for cur, amount := range result.NetIncome {
		netIncome[cur] = amount.String()
	}
	s.LogInfo(ctx, "Accounting period closed",
		slog.String("period_id", periodID),
		slog.String("closing_entry_id", result.ClosingEntryID),
		slog.String("opening_entry_id", result.OpeningEntryID),
		slog.String("next_period_id", result.NextPeriodID))
	s.RecordAudit(ctx, audit.EventPeriodClosed, userID, map[string]any{
		"period_id":        periodID,
		"closing_entry_id": result.ClosingEntryID,
		"opening_entry_id": result.OpeningEntryID,
		"next_period_id":   result.NextPeriodID,
		"net_income":       netIncome,
	})
	return result, nil
}

func (s *periodService) closeInTx(ctx context.Context, repos portsrepo.RepositoryProvider, periodID, userID string) (*domain.ClosingResult, error) {
	period, err := s.beginClose(ctx, repos, periodID, userID)
	if err != nil {
		return nil, err
	}

	tb, err := s.reporting.TrialBalanceTx(ctx, repos, period.EndDate)
	if err != nil {
		return nil, err
	}
	if tb.Status == domain.TrialBalanceOutOfBalance {
		return nil, fmt.Errorf("%w: period %s as of %s", apperrors.ErrNotBalanced, period.Name, period.EndDate.Format(time.DateOnly))
	}

	result := &domain.ClosingResult{PeriodID: period.PeriodID, NetIncome: netIncome(tb)}

	closingDraft := s.closingDraft(*period, tb, result.NetIncome, userID)
	if len(closingDraft.Lines) > 0 {
		entry, err := s.journal.PostInTx(ctx, repos, closingDraft, domain.PostingPolicy{System: true})
		if err != nil {
			return nil, fmt.Errorf("failed to post closing entry: %w", err)
		}
		result.ClosingEntryID = entry.EntryID
	}

	next, err := s.nextPeriod(ctx, repos, *period, userID)
	if err != nil {
		return nil, err
	}
	result.NextPeriodID = next.PeriodID

	postClose, err := s.reporting.TrialBalanceTx(ctx, repos, period.EndDate)
	if err != nil {
		return nil, err
	}
	openingDraft := s.openingDraft(*period, *next, postClose, userID)
	if len(openingDraft.Lines) > 0 {
		entry, err := s.journal.PostInTx(ctx, repos, openingDraft, domain.PostingPolicy{System: true})
		if err != nil {
			return nil, fmt.Errorf("failed to post opening entry: %w", err)
		}
		result.OpeningEntryID = entry.EntryID
	}

	now := s.now()
	closed := *period
	closed.ClosedAt = &now
	closed.ClosedBy = &userID
	closed.NextPeriodID = &result.NextPeriodID
	if result.ClosingEntryID != "" {
		closed.ClosingEntryID = &result.ClosingEntryID
	}
	if result.OpeningEntryID != "" {
		closed.OpeningEntryID = &result.OpeningEntryID
	}
	closed.LastUpdatedAt = now
	closed.LastUpdatedBy = userID
	if err := repos.PeriodRepo.MarkPeriodClosed(ctx, closed); err != nil {
		return nil, fmt.Errorf("failed to mark period closed: %w", err)
	}
	return result, nil
}

// beginClose takes the close mutex and moves the period from OPEN to CLOSING.
func (s *periodService) beginClose(ctx context.Context, repos portsrepo.RepositoryProvider, periodID, userID string) (*domain.AccountingPeriod, error) {
	period, err := repos.PeriodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("accounting period " + periodID)
		}
		return nil, fmt.Errorf("failed to load accounting period: %w", err)
	}
	if period.Status == domain.PeriodClosed {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPeriodAlreadyClosed, period.Name)
	}

	locked, err := repos.PeriodRepo.TryLockPeriod(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounting period: %w", err)
	}
	if !locked || period.Status == domain.PeriodClosing {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAlreadyClosing, period.Name)
	}
	if !period.Status.CanTransitionTo(domain.PeriodClosing) {
		return nil, fmt.Errorf("%w: %s is %s", apperrors.ErrInvalidTransition, period.Name, period.Status)
	}

	// The status update waits out any CreatePeriod holding the calendar lock,
	// so the earlier-period check below sees periods it committed.
	ok, err := repos.PeriodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodOpen, domain.PeriodClosing, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to start closing: %w", err)
	}
	if !ok {
		current, err := repos.PeriodRepo.FindPeriodByID(ctx, periodID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload accounting period: %w", err)
		}
		if current.Status == domain.PeriodClosed {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrPeriodAlreadyClosed, period.Name)
		}
		return nil, fmt.Errorf("%w: %s is %s", apperrors.ErrInvalidTransition, period.Name, current.Status)
	}

	unclosed, err := repos.PeriodRepo.HasUnclosedPeriodBefore(ctx, period.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check earlier periods: %w", err)
	}
	if unclosed {
		return nil, fmt.Errorf("%w: an earlier period of %s is still open", apperrors.ErrInvalidTransition, period.Name)
	}
	period.Status = domain.PeriodClosing
	return period, nil
}

// netIncome is revenue minus expense per currency, both taken on their normal side.
func netIncome(tb *domain.TrialBalance) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, row := range tb.Rows {
		switch row.AccountType {
		case domain.Revenue:
			out[row.CurrencyCode] = out[row.CurrencyCode].Add(row.Balance)
		case domain.Expense:
			out[row.CurrencyCode] = out[row.CurrencyCode].Sub(row.Balance)
		}
	}
	return out
}

// lineToZero returns the line that brings a normal-side balance back to zero.
func lineToZero(accountID, currency string, balance decimal.Decimal, normal domain.EntrySide, memo string) domain.DraftLine {
	line := domain.DraftLine{AccountID: accountID, CurrencyCode: currency, Memo: memo}
	reverseOnDebit := normal == domain.Credit
	if balance.IsNegative() {
		reverseOnDebit = !reverseOnDebit
	}
	if reverseOnDebit {
		line.Debit = balance.Abs()
	} else {
		line.Credit = balance.Abs()
	}
	return line
}

// lineToCarry returns the line that restates a normal-side balance.
func lineToCarry(accountID, currency string, balance decimal.Decimal, normal domain.EntrySide, memo string) domain.DraftLine {
	line := domain.DraftLine{AccountID: accountID, CurrencyCode: currency, Memo: memo}
	onDebit := normal == domain.Debit
	if balance.IsNegative() {
		onDebit = !onDebit
	}
	if onDebit {
		line.Debit = balance.Abs()
	} else {
		line.Credit = balance.Abs()
	}
	return line
}

// closingDraft zeroes every revenue and expense balance into retained earnings.
func (s *periodService) closingDraft(period domain.AccountingPeriod, tb *domain.TrialBalance, income map[string]decimal.Decimal, userID string) domain.JournalEntryDraft {
	draft := domain.JournalEntryDraft{
		EntryDate:   period.EndDate,
		Description: "Closing entry for " + period.Name,
		Reference:   closingReferencePrefix + period.PeriodID,
		Kind:        domain.EntryClosing,
		CreatedBy:   userID,
	}
	for _, row := range tb.Rows {
		if !row.AccountType.IsTemporary() || row.Balance.IsZero() {
			continue
		}
		draft.Lines = append(draft.Lines, lineToZero(row.AccountID, row.CurrencyCode, row.Balance, row.AccountType.NormalSide(), "close "+row.AccountCode))
	}
	if len(draft.Lines) == 0 {
		return draft
	}

	re := s.chart.RetainedEarnings()
	currencies := make([]string, 0, len(income))
	for cur := range income {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)
	for _, cur := range currencies {
		ni := income[cur]
		if ni.IsZero() {
			continue
		}
		draft.Lines = append(draft.Lines, lineToCarry(re.AccountID, cur, ni, domain.Credit, "net income"))
	}
	return draft
}

// openingDraft restates every non-zero asset, liability and equity balance
// on the first day of the next period.
func (s *periodService) openingDraft(period, next domain.AccountingPeriod, tb *domain.TrialBalance, userID string) domain.JournalEntryDraft {
	draft := domain.JournalEntryDraft{
		EntryDate:   next.StartDate,
		Description: "Opening balances for " + next.Name,
		Reference:   openingReferencePrefix + period.PeriodID,
		Kind:        domain.EntryOpening,
		CreatedBy:   userID,
	}
	for _, row := range tb.Rows {
		if row.AccountType.IsTemporary() || row.Balance.IsZero() {
			continue
		}
		draft.Lines = append(draft.Lines, lineToCarry(row.AccountID, row.CurrencyCode, row.Balance, row.AccountType.NormalSide(), "carry forward "+row.AccountCode))
	}
	return draft
}

// nextPeriod returns the period starting the day after period ends, creating
// it as OPEN when it does not exist yet.
func (s *periodService) nextPeriod(ctx context.Context, repos portsrepo.RepositoryProvider, period domain.AccountingPeriod, userID string) (*domain.AccountingPeriod, error) {
	start, end := period.NextSpan()
	existing, err := repos.PeriodRepo.FindPeriodContaining(ctx, start, false)
	if err == nil {
		if existing.Status != domain.PeriodOpen {
			return nil, fmt.Errorf("%w: next period %s is %s", apperrors.ErrInvalidTransition, existing.Name, existing.Status)
		}
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find next period: %w", err)
	}

	next := s.newPeriod(nextPeriodName(start, end), start, end, userID)
	if err := repos.PeriodRepo.SavePeriod(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create next period: %w", err)
	}
	return &next, nil
}

func nextPeriodName(start, end time.Time) string {
	if start.Day() == 1 && end.AddDate(0, 0, 1).Day() == 1 && start.Month() == end.Month() && start.Year() == end.Year() {
		return start.Format("January 2006")
	}
	return start.Format(time.DateOnly) + " to " + end.Format(time.DateOnly)
}
