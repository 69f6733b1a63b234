package repositories

import (
	"context"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for chart-of-accounts data.
type AccountReader interface {
	// FindAccountByID retrieves an account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its unique code.
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts keyed by ID.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// FindChildAccounts retrieves the direct children of an account.
	FindChildAccounts(ctx context.Context, parentAccountID string) ([]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts using token-based pagination.
	ListAccounts(ctx context.Context, limit int, nextToken *string) ([]domain.Account, *string, error)

	// SumPostedLines returns the total posted debits and credits against an
	// account up to and including asOf. Draft and validated lines are never
	// visible here.
	SumPostedLines(ctx context.Context, accountID string, asOf time.Time) (debits, credits decimal.Decimal, err error)
}

// AccountWriter defines write operations for chart-of-accounts data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account inactive.
	DeactivateAccount(ctx context.Context, accountID string, updatedBy string, updatedAt time.Time) error
}

// AccountRepositoryFacade combines all account repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
