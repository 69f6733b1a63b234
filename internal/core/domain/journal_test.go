package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestJournalEntryTransitions(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	total := decimal.NewFromFloat(1200.50)
	entry := JournalEntry{EntryID: "e1", Status: Draft}

	entry.MarkValidated(total, total, "user-1", now)
	assert.Equal(t, Validated, entry.Status)
	assert.Equal(t, "user-1", entry.ValidatedBy)
	assert.Equal(t, now, *entry.ValidatedAt)
	assert.True(t, entry.TotalDebit.Equal(total))

	later := now.Add(time.Minute)
	entry.MarkPosted(42, "p1", "user-2", later)
	assert.Equal(t, Posted, entry.Status)
	assert.Equal(t, int64(42), entry.EntryNumber)
	assert.Equal(t, "p1", entry.PeriodID)
	assert.Equal(t, "user-2", entry.PostedBy)
	assert.Equal(t, later, *entry.PostedAt)
}

func TestJournalEntryReversalLinks(t *testing.T) {
	entry := JournalEntry{EntryID: "e1", Status: Posted}
	assert.False(t, entry.IsReversed())
	assert.False(t, entry.IsReversal())

	reversingID := "e2"
	entry.ReversingEntryID = &reversingID
	assert.True(t, entry.IsReversed())

	originalID := "e1"
	reversal := JournalEntry{EntryID: "e2", Status: Posted, OriginalEntryID: &originalID}
	assert.True(t, reversal.IsReversal())
	assert.False(t, reversal.IsReversed())
}

func TestJournalLineSides(t *testing.T) {
	amount := decimal.NewFromFloat(56.70)
	debit := JournalLine{Debit: amount}
	credit := JournalLine{Credit: amount}

	assert.True(t, debit.IsDebit())
	assert.False(t, credit.IsDebit())
	assert.True(t, debit.Amount().Equal(amount))
	assert.True(t, credit.Amount().Equal(amount))
}

func TestAccountTypeNormalBalance(t *testing.T) {
	assert.True(t, Asset.IsDebitNormal())
	assert.True(t, Expense.IsDebitNormal())
	assert.False(t, Liability.IsDebitNormal())
	assert.False(t, Equity.IsDebitNormal())
	assert.False(t, Revenue.IsDebitNormal())

	assert.True(t, Revenue.IsValid())
	assert.False(t, AccountType("GOODWILL").IsValid())
}
