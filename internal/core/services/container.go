package services

import (
	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	portssvc "github.com/thesenegalesehitch/erp-ledger/internal/core/ports/services"
	"github.com/thesenegalesehitch/erp-ledger/internal/repositories/database/pgsql"
)

// NewServiceContainer wires all ledger services over the repository
// container with a shared clock.
func NewServiceContainer(repos *pgsql.RepositoryContainer, clock domain.Clock) *portssvc.ServiceContainer {
	accountSvc := NewAccountService(repos.Account, clock)
	entrySvc := NewEntryService(repos.Entry, repos.Period, accountSvc, clock)
	periodSvc := NewPeriodService(repos.Period, repos.Entry, clock)
	reconSvc := NewReconciliationService(repos.Reconciliation, repos.Period, accountSvc, clock)

	return &portssvc.ServiceContainer{
		Account:        accountSvc,
		Entry:          entrySvc,
		Period:         periodSvc,
		Reconciliation: reconSvc,
	}
}
