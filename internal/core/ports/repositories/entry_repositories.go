package repositories

import (
	"context"
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ListEntriesFilter narrows entry listings.
type ListEntriesFilter struct {
	Status   *domain.EntryStatus
	PeriodID *string
	From     *time.Time
	To       *time.Time
}

// PostingUpdate carries everything the repository must commit atomically
// when an entry posts: the entry itself (already marked Posted, except for
// the entry number which the repository assigns inside the transaction),
// the net balance delta per account, and the balance version each delta
// was computed against. A stale version aborts the transaction with
// apperrors.ErrConcurrencyConflict.
type PostingUpdate struct {
	Entry            domain.JournalEntry
	PeriodID         string
	BalanceDeltas    map[string]decimal.Decimal
	ExpectedVersions map[string]int64
}

// EntryReader defines read operations for journal entry data.
type EntryReader interface {
	// FindEntryByID retrieves an entry together with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated, filtered list of entries
	// (without lines) using token-based pagination.
	ListEntries(ctx context.Context, filter ListEntriesFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// CountUnpostedInRange counts draft and validated entries dated within
	// [from, to]. Used by the fiscal period manager before closing.
	CountUnpostedInRange(ctx context.Context, from, to time.Time) (int, error)
}

// EntryWriter defines write operations for journal entry data.
type EntryWriter interface {
	// SaveEntry persists a new draft entry and any initial lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// SaveLine appends a line to a draft entry.
	SaveLine(ctx context.Context, line domain.JournalLine) error

	// DeleteLine removes a line from a draft entry.
	DeleteLine(ctx context.Context, entryID, lineID string) error

	// DeleteEntry removes a draft entry and all of its lines.
	DeleteEntry(ctx context.Context, entryID string) error

	// UpdateEntryValidated records the Draft -> Validated transition.
	UpdateEntryValidated(ctx context.Context, entry domain.JournalEntry) error

	// PostEntry commits a posting atomically: assigns the next entry number
	// for the period, flips the entry to Posted and applies every balance
	// delta with compare-and-swap on the account balance version. Returns
	// the assigned entry number. No partial effect is ever visible.
	PostEntry(ctx context.Context, update PostingUpdate) (int64, error)

	// PostReversal commits a reversal atomically: posts the reversing entry
	// exactly as PostEntry would and links it to the original, failing with
	// apperrors.ErrAlreadyReversed if the original already carries a
	// reversal link.
	PostReversal(ctx context.Context, update PostingUpdate, originalEntryID string) (int64, error)
}

// EntryRepositoryFacade combines all entry repository interfaces.
type EntryRepositoryFacade interface {
	EntryReader
	EntryWriter
}
