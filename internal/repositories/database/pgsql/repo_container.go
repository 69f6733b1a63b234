package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryContainer holds all pgx-backed repositories sharing one pool.
type RepositoryContainer struct {
	Account        *PgxAccountRepository
	Entry          *PgxEntryRepository
	Period         *PgxPeriodRepository
	Reconciliation *PgxReconciliationRepository
}

// NewRepositoryContainer creates all repositories over the given pool. The
// entry repository borrows the account repository so that posting can apply
// balance updates inside its own transaction.
func NewRepositoryContainer(pool *pgxpool.Pool) *RepositoryContainer {
	accountRepo := NewAccountRepository(pool)
	return &RepositoryContainer{
		Account:        accountRepo,
		Entry:          NewEntryRepository(pool, accountRepo),
		Period:         NewPeriodRepository(pool),
		Reconciliation: NewReconciliationRepository(pool),
	}
}
