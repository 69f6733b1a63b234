package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five known account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether the account type's balance increases with
// debits. Asset and Expense accounts are debit-normal; Liability, Equity
// and Revenue accounts are credit-normal.
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}

// Account represents one node of the chart of accounts. Aggregation
// accounts (IsPostable == false) structure the tree and never receive
// journal lines; only postable leaves carry balances.
type Account struct {
	AccountID       string          `json:"accountID"`       // Primary key (UUID)
	Code            string          `json:"code"`            // Hierarchical account code, unique (e.g. "512000")
	Name            string          `json:"name"`            // User-defined name
	AccountType     AccountType     `json:"accountType"`     // ASSET, LIABILITY, etc.
	CurrencyCode    string          `json:"currencyCode"`    // Currency of the account's book
	ParentAccountID string          `json:"parentAccountID"` // Empty for root accounts
	Description     string          `json:"description"`
	IsPostable      bool            `json:"isPostable"` // Only postable accounts may appear on lines
	IsActive        bool            `json:"isActive"`
	Balance         decimal.Decimal `json:"balance"`        // Cached balance, maintained at post time
	BalanceVersion  int64           `json:"balanceVersion"` // Optimistic concurrency token for Balance
	AuditFields
}
