package repositories

import (
	"context"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ReconciliationTotals aggregates matched amounts for one account/period.
// Both totals are signed in the statement convention, debits positive.
type ReconciliationTotals struct {
	TotalInternal  decimal.Decimal // Sum of matched journal line amounts as debit - credit
	TotalExternal  decimal.Decimal // Sum of matched signed statement amounts
	UnmatchedLines int             // Posted journal lines not yet consumed
	UnmatchedStmts int             // Statement lines not yet consumed
}

// ReconciliationReader defines read operations for reconciliation data.
type ReconciliationReader interface {
	// FindCandidateLines retrieves unmatched posted lines on an account
	// matching a signed statement amount, dated within [from, to]. A
	// positive amount searches debit lines by magnitude, a negative one
	// credit lines.
	FindCandidateLines(ctx context.Context, accountID string, amount decimal.Decimal, from, to time.Time) ([]domain.JournalLine, error)

	// FetchTotals aggregates matched and unmatched volumes for an account
	// over a period's date range.
	FetchTotals(ctx context.Context, accountID string, from, to time.Time) (*ReconciliationTotals, error)
}

// ReconciliationWriter defines write operations for reconciliation data.
type ReconciliationWriter interface {
	// SaveMatch persists the statement line and pairs it with the journal
	// line in one transaction; both records are consumed together.
	SaveMatch(ctx context.Context, stmt domain.StatementLine, lineID string) error

	// SaveReconciliation persists a reconciliation summary record.
	SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error
}

// ReconciliationRepositoryFacade combines all reconciliation repository interfaces.
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}
