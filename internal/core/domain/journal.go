package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
// The only legal transitions are Draft -> Validated -> Posted; reversal
// creates a new posted entry and never moves the original backwards.
type EntryStatus string

const (
	Draft     EntryStatus = "DRAFT"
	Validated EntryStatus = "VALIDATED"
	Posted    EntryStatus = "POSTED"
)

// JournalEntry is the transactional unit of the ledger: a balanced set of
// lines recorded as one financial event. Lines are owned exclusively by
// their entry; accounts are only referenced.
type JournalEntry struct {
	EntryID      string      `json:"entryID"`     // Primary key (UUID)
	EntryNumber  int64       `json:"entryNumber"` // Assigned at post time, monotonic per fiscal period; 0 while unposted
	EntryDate    time.Time   `json:"entryDate"`   // Date the event occurred
	Description  string      `json:"description"`
	Reference    string      `json:"reference"` // Free-text external reference (invoice no., cheque no., ...)
	CurrencyCode string      `json:"currencyCode"`
	Status       EntryStatus `json:"status"`

	TotalDebit  decimal.Decimal `json:"totalDebit"`  // Recomputed at validation
	TotalCredit decimal.Decimal `json:"totalCredit"` // Recomputed at validation

	ValidatedBy string     `json:"validatedBy,omitempty"`
	ValidatedAt *time.Time `json:"validatedAt,omitempty"`
	PostedBy    string     `json:"postedBy,omitempty"`
	PostedAt    *time.Time `json:"postedAt,omitempty"`
	PeriodID    string     `json:"periodID,omitempty"` // Fiscal period the entry was posted into

	// Reversal linkage. OriginalEntryID is set on the reversing entry;
	// ReversingEntryID is set on the original once a reversal posts.
	// An entry admits at most one reversal.
	OriginalEntryID  *string `json:"originalEntryID,omitempty"`
	ReversingEntryID *string `json:"reversingEntryID,omitempty"`

	Lines []JournalLine `json:"lines,omitempty"`
	AuditFields
}

// IsReversed reports whether a posted reversal already references this entry.
func (e *JournalEntry) IsReversed() bool {
	return e.ReversingEntryID != nil
}

// IsReversal reports whether this entry was created to offset another.
func (e *JournalEntry) IsReversal() bool {
	return e.OriginalEntryID != nil
}

// MarkValidated transitions a draft entry to Validated with the given
// totals and audit data. Any other starting status is rejected by the
// posting engine before this is called.
func (e *JournalEntry) MarkValidated(totalDebit, totalCredit decimal.Decimal, by string, at time.Time) {
	e.Status = Validated
	e.TotalDebit = totalDebit
	e.TotalCredit = totalCredit
	e.ValidatedBy = by
	e.ValidatedAt = &at
	e.LastUpdatedAt = at
	e.LastUpdatedBy = by
}

// MarkPosted transitions a validated entry to Posted, locking it.
func (e *JournalEntry) MarkPosted(entryNumber int64, periodID string, by string, at time.Time) {
	e.Status = Posted
	e.EntryNumber = entryNumber
	e.PeriodID = periodID
	e.PostedBy = by
	e.PostedAt = &at
	e.LastUpdatedAt = at
	e.LastUpdatedBy = by
}

// JournalLine is a single debit or credit against one account within an
// entry. Exactly one of Debit and Credit is strictly positive.
type JournalLine struct {
	LineID      string          `json:"lineID"`  // Primary key (UUID)
	EntryID     string          `json:"entryID"` // Owning entry; lines are deleted with their draft entry
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	// MatchedStatementLineID links a posted line to the external statement
	// record it was reconciled against.
	MatchedStatementLineID *string `json:"matchedStatementLineID,omitempty"`
	AuditFields
}

// IsDebit reports whether the line sits on the debit side.
func (l *JournalLine) IsDebit() bool {
	return l.Debit.IsPositive()
}

// Amount returns the magnitude of the line regardless of side.
func (l *JournalLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}
