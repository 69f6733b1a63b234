package services

import (
	"context"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
	"github.com/thesenegalesehitch/erp-ledger/internal/dto"

	"github.com/shopspring/decimal"
)

// AccountSvcFacade exposes the account registry operations.
type AccountSvcFacade interface {
	// CreateAccount adds an account to the chart of accounts.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actingUser string) (*domain.Account, error)

	// GetAccountByID retrieves a single account.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts keyed by ID.
	GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts.
	ListAccounts(ctx context.Context, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error)

	// GetBalance computes the account balance as of a date from posted
	// history only, applying the account type's normal-balance convention.
	GetBalance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)

	// DeactivateAccount soft-deletes an account with no remaining balance.
	DeactivateAccount(ctx context.Context, accountID string, actingUser string) error
}

// EntrySvcFacade exposes the journal entry aggregate and posting engine.
type EntrySvcFacade interface {
	// CreateEntry opens a new draft entry, optionally with initial lines.
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, actingUser string) (*domain.JournalEntry, error)

	// AddLine appends a line to a draft entry.
	AddLine(ctx context.Context, entryID string, req dto.CreateLineRequest, actingUser string) (*domain.JournalEntry, error)

	// RemoveLine deletes a line from a draft entry.
	RemoveLine(ctx context.Context, entryID, lineID string, actingUser string) error

	// ValidateEntry checks structure and balance and moves Draft -> Validated.
	ValidateEntry(ctx context.Context, entryID string, actingUser string) (*domain.JournalEntry, error)

	// PostEntry commits a validated entry into an open fiscal period,
	// updating account balances atomically.
	PostEntry(ctx context.Context, entryID string, actingUser string) (*domain.JournalEntry, error)

	// ReverseEntry creates, validates and posts the offsetting entry for a
	// posted one. The original is never mutated beyond the reversal link.
	ReverseEntry(ctx context.Context, entryID string, reason string, actingUser string) (*domain.JournalEntry, error)

	// GetEntryByID retrieves an entry with its lines.
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated, filtered list of entries.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// DiscardEntry deletes a draft entry and its lines. Posted history is
	// only ever undone via ReverseEntry.
	DiscardEntry(ctx context.Context, entryID string, actingUser string) error
}

// PeriodSvcFacade exposes the fiscal period manager.
type PeriodSvcFacade interface {
	// CreatePeriod registers a new open fiscal period.
	CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, actingUser string) (*domain.FiscalPeriod, error)

	// ClosePeriod closes a period once no unposted entries remain inside it.
	ClosePeriod(ctx context.Context, periodID string, actingUser string) (*domain.FiscalPeriod, error)

	// ReopenPeriod reopens the most recently closed period.
	ReopenPeriod(ctx context.Context, periodID string, actingUser string) (*domain.FiscalPeriod, error)

	// GetPeriodByID retrieves a fiscal period.
	GetPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error)

	// FindPeriodForDate retrieves the period whose range contains the date.
	FindPeriodForDate(ctx context.Context, date time.Time) (*domain.FiscalPeriod, error)

	// ListPeriods retrieves all periods in chronological order.
	ListPeriods(ctx context.Context) (*dto.ListPeriodsResponse, error)
}

// ReconciliationSvcFacade exposes the reconciliation engine.
type ReconciliationSvcFacade interface {
	// MatchStatementLine pairs one external statement record with the
	// single plausible posted line on the account, or flags ambiguity.
	MatchStatementLine(ctx context.Context, accountID string, req dto.MatchStatementLineRequest, actingUser string) (*dto.MatchResponse, error)

	// Summarize produces the reconciliation status of an account over a period.
	Summarize(ctx context.Context, accountID, periodID string, actingUser string) (*domain.Reconciliation, error)
}

// ServiceContainer aggregates the ledger service facades for injection
// into the transport layer.
type ServiceContainer struct {
	Account        AccountSvcFacade
	Entry          EntrySvcFacade
	Period         PeriodSvcFacade
	Reconciliation ReconciliationSvcFacade
}
