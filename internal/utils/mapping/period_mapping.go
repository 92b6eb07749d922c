package mapping

import (
	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/SscSPs/schoolbooks/internal/models"
)

func ToModelAccountingPeriod(d domain.AccountingPeriod) models.AccountingPeriod {
	return models.AccountingPeriod{
		PeriodID:       d.PeriodID,
		Name:           d.Name,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		Status:         string(d.Status),
		ClosingEntryID: d.ClosingEntryID,
		OpeningEntryID: d.OpeningEntryID,
		NextPeriodID:   d.NextPeriodID,
		ClosedAt:       d.ClosedAt,
		ClosedBy:       d.ClosedBy,
		AuditFields:    toModelAuditFields(d.AuditFields),
	}
}

func ToDomainAccountingPeriod(m models.AccountingPeriod) domain.AccountingPeriod {
	return domain.AccountingPeriod{
		PeriodID:       m.PeriodID,
		Name:           m.Name,
		StartDate:      domain.DateOnly(m.StartDate),
		EndDate:        domain.DateOnly(m.EndDate),
		Status:         domain.PeriodStatus(m.Status),
		ClosingEntryID: m.ClosingEntryID,
		OpeningEntryID: m.OpeningEntryID,
		NextPeriodID:   m.NextPeriodID,
		ClosedAt:       m.ClosedAt,
		ClosedBy:       m.ClosedBy,
		AuditFields:    toDomainAuditFields(m.AuditFields),
	}
}

func ToDomainAccountingPeriodSlice(ms []models.AccountingPeriod) []domain.AccountingPeriod {
	ds := make([]domain.AccountingPeriod, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccountingPeriod(m)
	}
	return ds
}
