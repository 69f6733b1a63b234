package accounting

import (
	"fmt"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the number of decimal places carried by ledger
// amounts. Any finer precision is rejected at line creation, which makes
// the later balance checks exact decimal comparisons.
const MinorUnitExponent = 2

// HasMinorUnitPrecision reports whether amount fits within the currency
// minor unit.
func HasMinorUnitPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MinorUnitExponent))
}

// SignedAmount applies the normal-balance convention to a journal line:
// a debit increases a debit-normal account and decreases a credit-normal
// one, and symmetrically for credits.
func SignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	if !accountType.IsValid() {
		return decimal.Zero, fmt.Errorf("unknown account type '%s' for account %s", accountType, line.AccountID)
	}
	amount := line.Amount()
	if accountType.IsDebitNormal() {
		if !line.IsDebit() {
			amount = amount.Neg()
		}
	} else {
		if line.IsDebit() {
			amount = amount.Neg()
		}
	}
	return amount, nil
}

// ComputeTotals sums the debit and credit sides of a set of lines.
func ComputeTotals(lines []domain.JournalLine) (totalDebit, totalCredit decimal.Decimal) {
	totalDebit = decimal.Zero
	totalCredit = decimal.Zero
	for _, line := range lines {
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	return totalDebit, totalCredit
}

// ValidateLineSides checks the structural line invariant: exactly one of
// debit/credit strictly positive, neither negative, and both within the
// currency minor unit.
func ValidateLineSides(debit, credit decimal.Decimal) error {
	if debit.IsNegative() || credit.IsNegative() {
		return fmt.Errorf("debit and credit must not be negative")
	}
	if debit.IsPositive() == credit.IsPositive() {
		return fmt.Errorf("exactly one of debit and credit must be positive")
	}
	if !HasMinorUnitPrecision(debit) || !HasMinorUnitPrecision(credit) {
		return fmt.Errorf("amount has more than %d decimal places", MinorUnitExponent)
	}
	return nil
}

// BalanceDeltas aggregates the net cached-balance change per account for a
// set of lines, using the sign convention from each account's type.
func BalanceDeltas(lines []domain.JournalLine, accountTypes map[string]domain.AccountType) (map[string]decimal.Decimal, error) {
	deltas := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		accountType, ok := accountTypes[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account type not found for account %s", line.AccountID)
		}
		signed, err := SignedAmount(line, accountType)
		if err != nil {
			return nil, err
		}
		deltas[line.AccountID] = deltas[line.AccountID].Add(signed)
	}
	return deltas, nil
}
