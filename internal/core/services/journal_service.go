package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/audit"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
	"github.com/SscSPs/schoolbooks/internal/platform/ids"
	"github.com/SscSPs/schoolbooks/internal/platform/metrics"
	"github.com/SscSPs/schoolbooks/internal/utils"
	"github.com/SscSPs/schoolbooks/internal/utils/accounting"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// journalService provides core journal posting operations.
type journalService struct {
	BaseService
	store    portsrepo.Store
	chart    portssvc.ChartSvc
	balances portssvc.BalanceSvcFacade
}

// NewJournalService creates a new JournalService.
func NewJournalService(store portsrepo.Store, chart portssvc.ChartSvc, balances portssvc.BalanceSvcFacade, options ...ServiceOption) portssvc.JournalSvcFacade {
	return &journalService{
		BaseService: applyOptions(options),
		store:       store,
		chart:       chart,
		balances:    balances,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// postingOutcome classifies a posting error for metrics.
func postingOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrInsufficientFunds):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}

// Post validates the draft and commits it, with its balance updates, in one transaction.
func (s *journalService) Post(ctx context.Context, draft domain.JournalEntryDraft) (*domain.JournalEntry, error) {
	start := time.Now()

	var posted *domain.JournalEntry
	err := s.store.WithinTx(ctx, func(repos portsrepo.RepositoryProvider) error {
		entry, err := s.PostInTx(ctx, repos, draft, domain.PostingPolicy{})
		if err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		outcome := postingOutcome(err)
		metrics.PostingsTotal.WithLabelValues(outcome).Inc()
		if outcome == metrics.OutcomeRejected {
			s.LogWarn(ctx, "Journal entry rejected", slog.String("reference", draft.Reference), slog.String("error", err.Error()))
		} else {
			s.LogError(ctx, err, "Failed to post journal entry", slog.String("reference", draft.Reference))
		}
		return nil, err
	}

	metrics.PostingsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.PostingDuration.Observe(time.Since(start).Seconds())
	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", posted.EntryID),
		slog.String("reference", posted.Reference),
		slog.Int("lines", len(posted.Lines)))
	s.RecordAudit(ctx, audit.EventJournalPosted, posted.CreatedBy, map[string]any{
		"entry_id":   posted.EntryID,
		"reference":  posted.Reference,
		"kind":       string(posted.Kind),
		"entry_date": posted.EntryDate.Format(time.DateOnly),
		"period_id":  posted.PeriodID,
	})
	return posted, nil
}

// PostInTx runs every posting check and writes the entry through repos. All
// checks complete before the first write.
func (s *journalService) PostInTx(ctx context.Context, repos portsrepo.RepositoryProvider, draft domain.JournalEntryDraft, policy domain.PostingPolicy) (*domain.JournalEntry, error) {
	if draft.Kind == "" {
		draft.Kind = domain.EntryStandard
	}
	draft.Reference = strings.TrimSpace(draft.Reference)
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	switch {
	case draft.Kind == domain.EntryStandard:
	case draft.Kind.IsSystem() && policy.System:
	default:
		return nil, fmt.Errorf("%w: entries of kind %s cannot be posted directly", apperrors.ErrValidation, draft.Kind)
	}

	accounts := make(map[string]domain.Account, len(draft.Lines))
	for i, l := range draft.Lines {
		acc, err := s.chart.AccountByID(l.AccountID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		cur, err := s.chart.Currency(l.CurrencyCode)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if !utils.FitsCurrencyPrecision(l.Debit, cur) || !utils.FitsCurrencyPrecision(l.Credit, cur) {
			return nil, fmt.Errorf("%w: line %d has more than %d decimals for %s", apperrors.ErrValidation, i+1, cur.Precision, cur.CurrencyCode)
		}
		accounts[acc.AccountID] = acc
	}
	if err := draft.CheckBalanced(); err != nil {
		return nil, err
	}

	entryDate := domain.DateOnly(draft.EntryDate)
	period, err := repos.PeriodRepo.FindPeriodContaining(ctx, entryDate, true)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrPeriodNotFound, entryDate.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("failed to find accounting period: %w", err)
	}
	switch period.Status {
	case domain.PeriodOpen:
	case domain.PeriodClosing:
		if !policy.System {
			return nil, fmt.Errorf("%w: period %s is closing", apperrors.ErrPeriodClosed, period.Name)
		}
	default:
		return nil, fmt.Errorf("%w: period %s is %s", apperrors.ErrPeriodClosed, period.Name, period.Status)
	}

	exists, err := repos.JournalRepo.ReferenceExists(ctx, draft.Reference)
	if err != nil {
		return nil, fmt.Errorf("failed to check reference: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDuplicateReference, draft.Reference)
	}

	accountIDs := make([]string, 0, len(accounts))
	for id := range accounts {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)
	if err := repos.AccountRepo.LockAccountsForUpdate(ctx, accountIDs); err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}

	if draft.FundingAccountID != "" {
		if err := s.checkFunding(ctx, repos, draft); err != nil {
			return nil, err
		}
	}

	entry := s.buildEntry(draft, entryDate, period.PeriodID)
	if err := repos.JournalRepo.SaveJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}
	if err := s.balances.Apply(ctx, repos, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// checkFunding rejects the draft when it would take the funding account below
// zero in any currency. The account is already locked by the caller.
func (s *journalService) checkFunding(ctx context.Context, repos portsrepo.RepositoryProvider, draft domain.JournalEntryDraft) error {
	funding, err := s.chart.AccountByID(draft.FundingAccountID)
	if err != nil {
		return fmt.Errorf("funding account: %w", err)
	}

	net := make(map[string]decimal.Decimal)
	for _, l := range draft.Lines {
		if l.AccountID != funding.AccountID {
			continue
		}
		side, amount := domain.Debit, l.Debit
		if l.Credit.IsPositive() {
			side, amount = domain.Credit, l.Credit
		}
		delta, err := accounting.SignedAmount(amount, side, funding.AccountType)
		if err != nil {
			return err
		}
		net[l.CurrencyCode] = net[l.CurrencyCode].Add(delta)
	}

	for currency, delta := range net {
		if !delta.IsNegative() {
			continue
		}
		current, err := s.balances.BalanceAsOfTx(ctx, repos, funding.AccountID, currency, endOfTime)
		if err != nil {
			return err
		}
		if current.Add(delta).IsNegative() {
			return fmt.Errorf("%w: %s holds %s %s, entry needs %s",
				apperrors.ErrInsufficientFunds, funding.Code, current.String(), currency, delta.Neg().String())
		}
	}
	return nil
}

func (s *journalService) buildEntry(draft domain.JournalEntryDraft, entryDate time.Time, periodID string) domain.JournalEntry {
	createdBy := strings.TrimSpace(draft.CreatedBy)
	if createdBy == "" {
		createdBy = domain.SystemUserID
	}
	entryID := ids.New()
	lines := make([]domain.JournalEntryLine, len(draft.Lines))
	for i, l := range draft.Lines {
		lines[i] = domain.JournalEntryLine{
			LineID:       ids.New(),
			EntryID:      entryID,
			LineNo:       i + 1,
			AccountID:    l.AccountID,
			CurrencyCode: l.CurrencyCode,
			Debit:        l.Debit,
			Credit:       l.Credit,
			Memo:         l.Memo,
		}
	}
	return domain.JournalEntry{
		EntryID:     entryID,
		EntryDate:   entryDate,
		Description: strings.TrimSpace(draft.Description),
		Reference:   draft.Reference,
		Kind:        draft.Kind,
		PeriodID:    periodID,
		Lines:       lines,
		CreatedAt:   s.now(),
		CreatedBy:   createdBy,
	}
}

func (s *journalService) GetJournalEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.store.Repositories().JournalRepo.FindJournalEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("journal entry " + entryID)
		}
		s.LogError(ctx, err, "Failed to get journal entry", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}
	return entry, nil
}

func (s *journalService) ListJournalEntries(ctx context.Context, filter domain.JournalEntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	entries, next, err := s.store.Repositories().JournalRepo.ListJournalEntries(ctx, filter, limit, nextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, nil, err
		}
		s.LogError(ctx, err, "Failed to list journal entries")
		return nil, nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return entries, next, nil
}
