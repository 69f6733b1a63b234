package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus indicates how far reconciliation of an account over
// a period has progressed.
type ReconciliationStatus string

const (
	ReconciliationInProgress  ReconciliationStatus = "IN_PROGRESS"
	ReconciliationBalanced    ReconciliationStatus = "BALANCED"
	ReconciliationDiscrepancy ReconciliationStatus = "DISCREPANCY"
)

// StatementLine is one record from an external statement (bank, supplier)
// to be paired with a posted journal line on the same account.
type StatementLine struct {
	StatementLineID string          `json:"statementLineID"` // Primary key (UUID)
	AccountID       string          `json:"accountID"`
	StatementDate   time.Time       `json:"statementDate"`
	Amount          decimal.Decimal `json:"amount"` // Signed; money in positive, money out negative
	Reference       string          `json:"reference"`
	MatchedLineID   *string         `json:"matchedLineID,omitempty"` // Set once paired with a journal line
	AuditFields
}

// Reconciliation summarizes the agreement between an account's posted
// lines and its external statement over one fiscal period.
type Reconciliation struct {
	ReconciliationID string               `json:"reconciliationID"` // Primary key (UUID)
	AccountID        string               `json:"accountID"`
	PeriodID         string               `json:"periodID"`
	Status           ReconciliationStatus `json:"status"`
	TotalInternal    decimal.Decimal      `json:"totalInternal"` // Matched journal lines as debit - credit
	TotalExternal    decimal.Decimal      `json:"totalExternal"` // Matched signed statement amounts
	Difference       decimal.Decimal      `json:"difference"`    // TotalExternal - TotalInternal
	PerformedBy      string               `json:"performedBy"`
	AuditFields
}
