package services

import (
	portsrepo "github.com/SscSPs/schoolbooks/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/schoolbooks/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(store portsrepo.Store, chart portssvc.ChartSvc, options ...ServiceOption) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{Chart: chart}

	// Balances first: posting applies them inside its transaction.
	container.Balance = NewBalanceService(store, chart, options...)
	container.Journal = NewJournalService(store, chart, container.Balance, options...)
	container.Reporting = NewReportingService(store, chart, options...)
	container.Period = NewPeriodService(store, chart, container.Journal, container.Reporting, options...)

	return container
}
