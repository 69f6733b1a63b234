package dto

import (
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// MatchStatementLineRequest defines one external statement record to match
// against the account's posted lines.
type MatchStatementLineRequest struct {
	StatementDate time.Time       `json:"statementDate" binding:"required" time_format:"2006-01-02"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Reference     string          `json:"reference"`
}

// MatchResponse reports a successful pairing.
type MatchResponse struct {
	StatementLineID string `json:"statementLineID"`
	MatchedLineID   string `json:"matchedLineID"`
	EntryID         string `json:"entryID"`
}

// ReconciliationResponse defines the API representation of a
// reconciliation summary.
type ReconciliationResponse struct {
	ReconciliationID string                      `json:"reconciliationID"`
	AccountID        string                      `json:"accountID"`
	PeriodID         string                      `json:"periodID"`
	Status           domain.ReconciliationStatus `json:"status"`
	TotalInternal    decimal.Decimal             `json:"totalInternal"`
	TotalExternal    decimal.Decimal             `json:"totalExternal"`
	Difference       decimal.Decimal             `json:"difference"`
	PerformedBy      string                      `json:"performedBy"`
}

// ToReconciliationResponse maps a domain reconciliation to its API representation.
func ToReconciliationResponse(r *domain.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ReconciliationID: r.ReconciliationID,
		AccountID:        r.AccountID,
		PeriodID:         r.PeriodID,
		Status:           r.Status,
		TotalInternal:    r.TotalInternal,
		TotalExternal:    r.TotalExternal,
		Difference:       r.Difference,
		PerformedBy:      r.PerformedBy,
	}
}
