package accounting

import (
	"testing"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLineSides(t *testing.T) {
	tests := []struct {
		name    string
		debit   decimal.Decimal
		credit  decimal.Decimal
		wantErr bool
	}{
		{"debit only", decimal.NewFromInt(100), decimal.Zero, false},
		{"credit only", decimal.Zero, decimal.NewFromFloat(99.99), false},
		{"both sides set", decimal.NewFromInt(100), decimal.NewFromInt(100), true},
		{"both sides zero", decimal.Zero, decimal.Zero, true},
		{"negative debit", decimal.NewFromInt(-5), decimal.Zero, true},
		{"negative credit", decimal.Zero, decimal.NewFromInt(-5), true},
		{"sub-cent precision", decimal.NewFromFloat(10.005), decimal.Zero, true},
		{"exactly two decimals", decimal.NewFromFloat(10.05), decimal.Zero, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLineSides(tt.debit, tt.credit)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.NewFromFloat(250.75)
	debitLine := domain.JournalLine{AccountID: "a1", Debit: amount}
	creditLine := domain.JournalLine{AccountID: "a1", Credit: amount}

	tests := []struct {
		name        string
		line        domain.JournalLine
		accountType domain.AccountType
		want        decimal.Decimal
	}{
		{"debit increases asset", debitLine, domain.Asset, amount},
		{"credit decreases asset", creditLine, domain.Asset, amount.Neg()},
		{"debit increases expense", debitLine, domain.Expense, amount},
		{"credit increases revenue", creditLine, domain.Revenue, amount},
		{"debit decreases revenue", debitLine, domain.Revenue, amount.Neg()},
		{"credit increases liability", creditLine, domain.Liability, amount},
		{"debit decreases equity", debitLine, domain.Equity, amount.Neg()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignedAmount(tt.line, tt.accountType)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestSignedAmount_UnknownType(t *testing.T) {
	_, err := SignedAmount(domain.JournalLine{AccountID: "a1", Debit: decimal.NewFromInt(1)}, domain.AccountType("GOODWILL"))
	assert.Error(t, err)
}

func TestComputeTotals(t *testing.T) {
	lines := []domain.JournalLine{
		{Debit: decimal.NewFromFloat(100.50)},
		{Credit: decimal.NewFromFloat(60.25)},
		{Credit: decimal.NewFromFloat(40.25)},
	}
	totalDebit, totalCredit := ComputeTotals(lines)
	assert.True(t, totalDebit.Equal(decimal.NewFromFloat(100.50)))
	assert.True(t, totalCredit.Equal(decimal.NewFromFloat(100.50)))
	assert.True(t, totalDebit.Equal(totalCredit), "entry should balance exactly")
}

func TestBalanceDeltas(t *testing.T) {
	amount := decimal.NewFromFloat(1200.50)
	types := map[string]domain.AccountType{
		"bank":    domain.Asset,
		"revenue": domain.Revenue,
	}
	lines := []domain.JournalLine{
		{AccountID: "bank", Debit: amount},
		{AccountID: "revenue", Credit: amount},
	}

	deltas, err := BalanceDeltas(lines, types)
	require.NoError(t, err)
	assert.True(t, deltas["bank"].Equal(amount), "asset debit should raise the bank balance")
	assert.True(t, deltas["revenue"].Equal(amount), "revenue credit should raise the revenue balance")
}

func TestBalanceDeltas_AggregatesPerAccount(t *testing.T) {
	types := map[string]domain.AccountType{"bank": domain.Asset}
	lines := []domain.JournalLine{
		{AccountID: "bank", Debit: decimal.NewFromInt(100)},
		{AccountID: "bank", Credit: decimal.NewFromInt(30)},
	}

	deltas, err := BalanceDeltas(lines, types)
	require.NoError(t, err)
	assert.True(t, deltas["bank"].Equal(decimal.NewFromInt(70)))
}

func TestBalanceDeltas_MissingType(t *testing.T) {
	lines := []domain.JournalLine{{AccountID: "ghost", Debit: decimal.NewFromInt(1)}}
	_, err := BalanceDeltas(lines, map[string]domain.AccountType{})
	assert.Error(t, err)
}
