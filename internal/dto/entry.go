package dto

import (
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateLineRequest defines one debit or credit within an entry payload.
// Exactly one of Debit and Credit must be strictly positive.
type CreateLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// CreateEntryRequest defines the payload for creating a draft entry.
type CreateEntryRequest struct {
	EntryDate    time.Time           `json:"entryDate" binding:"required"`
	Description  string              `json:"description" binding:"required"`
	Reference    string              `json:"reference"`
	CurrencyCode string              `json:"currencyCode" binding:"required,len=3"`
	Lines        []CreateLineRequest `json:"lines" binding:"omitempty,dive"`
}

// ReverseEntryRequest defines the payload for reversing a posted entry.
type ReverseEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// LineResponse defines the API representation of a journal line.
type LineResponse struct {
	LineID      string          `json:"lineID"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// EntryResponse defines the API representation of a journal entry.
type EntryResponse struct {
	EntryID          string             `json:"entryID"`
	EntryNumber      int64              `json:"entryNumber,omitempty"`
	EntryDate        time.Time          `json:"entryDate"`
	Description      string             `json:"description"`
	Reference        string             `json:"reference,omitempty"`
	CurrencyCode     string             `json:"currencyCode"`
	Status           domain.EntryStatus `json:"status"`
	TotalDebit       decimal.Decimal    `json:"totalDebit"`
	TotalCredit      decimal.Decimal    `json:"totalCredit"`
	PostedBy         string             `json:"postedBy,omitempty"`
	PostedAt         *time.Time         `json:"postedAt,omitempty"`
	PeriodID         string             `json:"periodID,omitempty"`
	OriginalEntryID  *string            `json:"originalEntryID,omitempty"`
	ReversingEntryID *string            `json:"reversingEntryID,omitempty"`
	Reversed         bool               `json:"reversed"`
	Lines            []LineResponse     `json:"lines,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	CreatedBy        string             `json:"createdBy"`
}

// ToEntryResponse maps a domain entry to its API representation.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:          e.EntryID,
		EntryNumber:      e.EntryNumber,
		EntryDate:        e.EntryDate,
		Description:      e.Description,
		Reference:        e.Reference,
		CurrencyCode:     e.CurrencyCode,
		Status:           e.Status,
		TotalDebit:       e.TotalDebit,
		TotalCredit:      e.TotalCredit,
		PostedBy:         e.PostedBy,
		PostedAt:         e.PostedAt,
		PeriodID:         e.PeriodID,
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		Reversed:         e.IsReversed(),
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
	for _, line := range e.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			LineID:      line.LineID,
			AccountID:   line.AccountID,
			Debit:       line.Debit,
			Credit:      line.Credit,
			Description: line.Description,
		})
	}
	return resp
}

// ListEntriesParams holds parameters for listing entries.
type ListEntriesParams struct {
	Status    *domain.EntryStatus `form:"status"`
	PeriodID  *string             `form:"periodID"`
	From      *time.Time          `form:"from" time_format:"2006-01-02"`
	To        *time.Time          `form:"to" time_format:"2006-01-02"`
	Limit     int                 `form:"limit"`
	NextToken *string             `form:"nextToken"`
}

// ListEntriesResponse is a page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}
