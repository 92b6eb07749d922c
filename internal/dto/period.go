package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
)

// CreatePeriodRequest defines the payload for opening an accounting period.
type CreatePeriodRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	StartDate string `json:"startDate" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"endDate" binding:"required"`   // YYYY-MM-DD, inclusive
}

// PeriodResponse defines the data returned for an accounting period.
type PeriodResponse struct {
	PeriodID       string     `json:"periodID"`
	Name           string     `json:"name"`
	StartDate      string     `json:"startDate"`
	EndDate        string     `json:"endDate"`
	Status         string     `json:"status"`
	ClosingEntryID *string    `json:"closingEntryID,omitempty"`
	OpeningEntryID *string    `json:"openingEntryID,omitempty"`
	NextPeriodID   *string    `json:"nextPeriodID,omitempty"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	ClosedBy       *string    `json:"closedBy,omitempty"`
}

// PeriodStatusResponse is the answer to a status query.
type PeriodStatusResponse struct {
	PeriodID string `json:"periodID"`
	Status   string `json:"status"`
}

// ClosePeriodResponse reports what a period close produced.
type ClosePeriodResponse struct {
	PeriodID       string                     `json:"periodID"`
	ClosingEntryID string                     `json:"closingEntryID,omitempty"`
	OpeningEntryID string                     `json:"openingEntryID,omitempty"`
	NextPeriodID   string                     `json:"nextPeriodID"`
	NetIncome      map[string]decimal.Decimal `json:"netIncome"`
}

// ToPeriodResponse converts a domain.AccountingPeriod to PeriodResponse DTO.
func ToPeriodResponse(p domain.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		PeriodID:       p.PeriodID,
		Name:           p.Name,
		StartDate:      FormatDate(p.StartDate),
		EndDate:        FormatDate(p.EndDate),
		Status:         string(p.Status),
		ClosingEntryID: p.ClosingEntryID,
		OpeningEntryID: p.OpeningEntryID,
		NextPeriodID:   p.NextPeriodID,
		ClosedAt:       p.ClosedAt,
		ClosedBy:       p.ClosedBy,
	}
}

// ToPeriodResponses converts a slice of periods.
func ToPeriodResponses(ps []domain.AccountingPeriod) []PeriodResponse {
	out := make([]PeriodResponse, len(ps))
	for i, p := range ps {
		out[i] = ToPeriodResponse(p)
	}
	return out
}

// ToClosePeriodResponse converts a closing result.
func ToClosePeriodResponse(r *domain.ClosingResult) ClosePeriodResponse {
	netIncome := r.NetIncome
	if netIncome == nil {
		netIncome = map[string]decimal.Decimal{}
	}
	return ClosePeriodResponse{
		PeriodID:       r.PeriodID,
		ClosingEntryID: r.ClosingEntryID,
		OpeningEntryID: r.OpeningEntryID,
		NextPeriodID:   r.NextPeriodID,
		NetIncome:      netIncome,
	}
}
