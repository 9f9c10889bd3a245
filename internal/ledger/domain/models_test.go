package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(accountID int64, debit, credit string) TransactionLine {
	return TransactionLine{
		AccountID: accountID,
		Debit:     decimal.RequireFromString(debit),
		Credit:    decimal.RequireFromString(credit),
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := &Transaction{
		Lines: []TransactionLine{
			line(1, "500", "0"),
			line(2, "0", "500"),
		},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		lines []TransactionLine
	}{
		{"single line", []TransactionLine{line(1, "500", "0")}},
		{"imbalanced", []TransactionLine{line(1, "500", "0"), line(2, "0", "400")}},
		{"both sides on one line", []TransactionLine{line(1, "500", "500"), line(2, "0", "0")}},
		{"empty line", []TransactionLine{line(1, "500", "0"), line(2, "0", "0")}},
		{"negative amount", []TransactionLine{line(1, "-500", "0"), line(2, "0", "-500")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := &Transaction{Lines: tt.lines}
			assert.Error(t, txn.Validate())
		})
	}
}

func TestTransactionIsWrittenOff(t *testing.T) {
	txn := &Transaction{}
	assert.False(t, txn.IsWrittenOff())

	now := time.Now()
	txn.WrittenOffAt = &now
	assert.True(t, txn.IsWrittenOff())
}

func TestParseAccountType(t *testing.T) {
	for _, name := range []string{"Asset", "Liability", "Equity", "Revenue", "Expense"} {
		accType, ok := ParseAccountType(name)
		require.True(t, ok, name)
		assert.Equal(t, name, accType.String())
	}
	_, ok := ParseAccountType("Widget")
	assert.False(t, ok)
}
