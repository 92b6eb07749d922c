package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/schoolbooks/internal/apperrors"
	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

type periodRepo struct{ access }

func (r *periodRepo) SavePeriod(_ context.Context, period domain.AccountingPeriod) error {
	return r.with(func(s *state) error {
		if _, ok := s.periods[period.PeriodID]; ok {
			return fmt.Errorf("%w: period %s", apperrors.ErrDuplicate, period.PeriodID)
		}
		for _, p := range s.periods {
			if p.Overlaps(period) {
				return fmt.Errorf("%w: period overlaps %s", apperrors.ErrConflict, p.Name)
			}
		}
		s.periods[period.PeriodID] = period
		return nil
	})
}

func (r *periodRepo) FindPeriodByID(_ context.Context, periodID string) (*domain.AccountingPeriod, error) {
	var out *domain.AccountingPeriod
	err := r.with(func(s *state) error {
		p, ok := s.periods[periodID]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

// FindPeriodContaining ignores forShare: the store lock already orders
// postings against closes.
func (r *periodRepo) FindPeriodContaining(_ context.Context, date time.Time, _ bool) (*domain.AccountingPeriod, error) {
	var out *domain.AccountingPeriod
	err := r.with(func(s *state) error {
		for _, p := range s.periods {
			if p.Contains(date) {
				found := p
				out = &found
				return nil
			}
		}
		return apperrors.ErrNotFound
	})
	return out, err
}

func (r *periodRepo) ListPeriods(_ context.Context) ([]domain.AccountingPeriod, error) {
	var out []domain.AccountingPeriod
	err := r.with(func(s *state) error {
		out = make([]domain.AccountingPeriod, 0, len(s.periods))
		for _, p := range s.periods {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, err
}

func (r *periodRepo) HasUnclosedPeriodBefore(_ context.Context, date time.Time) (bool, error) {
	var found bool
	err := r.with(func(s *state) error {
		for _, p := range s.periods {
			if p.EndDate.Before(date) && p.Status != domain.PeriodClosed {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *periodRepo) HasClosedPeriodFrom(_ context.Context, date time.Time) (bool, error) {
	var found bool
	err := r.with(func(s *state) error {
		for _, p := range s.periods {
			if p.Status == domain.PeriodClosed && !p.EndDate.Before(date) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *periodRepo) UpdatePeriodStatus(_ context.Context, periodID string, from, to domain.PeriodStatus, userID string, now time.Time) (bool, error) {
	var updated bool
	err := r.with(func(s *state) error {
		if !from.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, from, to)
		}
		p, ok := s.periods[periodID]
		if !ok || p.Status != from {
			return nil
		}
		p.Status = to
		p.LastUpdatedAt = now
		p.LastUpdatedBy = userID
		s.periods[periodID] = p
		updated = true
		return nil
	})
	return updated, err
}

func (r *periodRepo) MarkPeriodClosed(_ context.Context, period domain.AccountingPeriod) error {
	return r.with(func(s *state) error {
		p, ok := s.periods[period.PeriodID]
		if !ok {
			return apperrors.ErrNotFound
		}
		if !p.Status.CanTransitionTo(domain.PeriodClosed) {
			return fmt.Errorf("%w: period %s is %s", apperrors.ErrInvalidTransition, p.PeriodID, p.Status)
		}
		p.Status = domain.PeriodClosed
		p.ClosingEntryID = period.ClosingEntryID
		p.OpeningEntryID = period.OpeningEntryID
		p.NextPeriodID = period.NextPeriodID
		p.ClosedAt = period.ClosedAt
		p.ClosedBy = period.ClosedBy
		p.LastUpdatedAt = period.LastUpdatedAt
		p.LastUpdatedBy = period.LastUpdatedBy
		s.periods[period.PeriodID] = p
		return nil
	})
}

// TryLockPeriod always succeeds: a second closer cannot enter WithinTx until
// the first has finished, and then sees the period CLOSED.
func (r *periodRepo) TryLockPeriod(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// LockCalendar is a no-op: WithinTx already holds the store lock.
func (r *periodRepo) LockCalendar(_ context.Context) error {
	return nil
}
