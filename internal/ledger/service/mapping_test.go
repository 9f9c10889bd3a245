package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
)

func TestDetermineMapping_MoneyOutPrefersCash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cash := seedAccount(t, env.db, 1, "Cash", domain.Asset)
	stationery := seedAccount(t, env.db, 1, "Stationery", domain.Expense)

	result, err := env.mapping.DetermineMapping(ctx, 1, stationery.ID, domain.MoneyOut, dec("500"))
	require.NoError(t, err)

	// 付钱：费用记借，现金记贷
	assert.Equal(t, stationery.ID, result.DebitAccountID)
	assert.Equal(t, cash.ID, result.CreditAccountID)
	assert.Equal(t, cash.ID, result.ContraAccount.ID)
	assert.Equal(t, "R500.00 flows FROM Cash TO Stationery", result.Explanation)
}

func TestDetermineMapping_PriorityTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 插入顺序即 ID 顺序，同分时靠前者胜出
	seedAccount(t, env.db, 1, "FNB Bank Account", domain.Asset) // contains "bank" -> 60
	seedAccount(t, env.db, 1, "Petty Cash Tin", domain.Asset)   // contains "petty cash" -> 80
	bank := seedAccount(t, env.db, 1, "Bank", domain.Asset)     // exact "bank" -> 90
	fees := seedAccount(t, env.db, 1, "School Fees", domain.Revenue)

	result, err := env.mapping.DetermineMapping(ctx, 1, fees.ID, domain.MoneyIn, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, bank.ID, result.ContraAccount.ID)

	// 收钱：现金/银行记借，主科目记贷
	assert.Equal(t, bank.ID, result.DebitAccountID)
	assert.Equal(t, fees.ID, result.CreditAccountID)
	assert.Equal(t, "R1,000.00 flows FROM School Fees TO Bank", result.Explanation)

	// 加了准确名 "cash" 的科目后它必须胜出
	cash := seedAccount(t, env.db, 1, "cash", domain.Asset)
	result, err = env.mapping.DetermineMapping(ctx, 1, fees.ID, domain.MoneyIn, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, cash.ID, result.ContraAccount.ID)
}

func TestDetermineMapping_FallbackToAllAssets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 没有任何 cash/bank 科目，退级到全部资产
	equipment := seedAccount(t, env.db, 1, "Equipment", domain.Asset)
	stationery := seedAccount(t, env.db, 1, "Stationery", domain.Expense)

	result, err := env.mapping.DetermineMapping(ctx, 1, stationery.ID, domain.MoneyOut, dec("250"))
	require.NoError(t, err)
	assert.Equal(t, equipment.ID, result.ContraAccount.ID)
}

func TestDetermineMapping_ExcludesSelectedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 只有 Cash 一个资产科目；选中它自己之后候选集为空
	cash := seedAccount(t, env.db, 1, "Cash", domain.Asset)
	seedAccount(t, env.db, 1, "Donations", domain.Revenue)

	_, err := env.mapping.DetermineMapping(ctx, 1, cash.ID, domain.MoneyIn, dec("1000"))
	assert.ErrorIs(t, err, domain.ErrNoSuitableContraAccount)

	// 加上 Bank 之后 Bank 成为对方科目
	bank := seedAccount(t, env.db, 1, "Bank", domain.Asset)
	result, err := env.mapping.DetermineMapping(ctx, 1, cash.ID, domain.MoneyIn, dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, bank.ID, result.ContraAccount.ID)
}

func TestDetermineMapping_TransferRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cash := seedAccount(t, env.db, 1, "Cash", domain.Asset)
	savings := seedAccount(t, env.db, 1, "Savings Account", domain.Asset)
	loan := seedAccount(t, env.db, 1, "School Loan", domain.Liability)
	seedAccount(t, env.db, 1, "Stationery", domain.Expense)

	t.Run("asset to asset", func(t *testing.T) {
		result, err := env.mapping.DetermineMapping(ctx, 1, savings.ID, domain.Transfer, dec("300"))
		require.NoError(t, err)
		assert.Equal(t, cash.ID, result.ContraAccount.ID)
		assert.Equal(t, savings.ID, result.DebitAccountID)
		assert.Equal(t, cash.ID, result.CreditAccountID)
		assert.Equal(t, "R300.00 transfers FROM Cash TO Savings Account", result.Explanation)
	})

	t.Run("paying off a liability from an asset", func(t *testing.T) {
		result, err := env.mapping.DetermineMapping(ctx, 1, loan.ID, domain.Transfer, dec("300"))
		require.NoError(t, err)
		assert.Equal(t, cash.ID, result.ContraAccount.ID)
		// 还贷：负债记借，资产记贷
		assert.Equal(t, loan.ID, result.DebitAccountID)
		assert.Equal(t, cash.ID, result.CreditAccountID)
	})

	t.Run("expense cannot be a transfer endpoint", func(t *testing.T) {
		stationery, err := env.accounts.FindByNameFold(ctx, 1, "stationery")
		require.NoError(t, err)
		_, err = env.mapping.DetermineMapping(ctx, 1, stationery.ID, domain.Transfer, dec("300"))
		assert.ErrorIs(t, err, domain.ErrNoSuitableContraAccount)
	})
}

func TestDetermineMapping_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stationery := seedAccount(t, env.db, 1, "Stationery", domain.Expense)
	seedAccount(t, env.db, 1, "Cash", domain.Asset)

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := env.mapping.DetermineMapping(ctx, 1, stationery.ID, domain.MoneyOut, dec("0"))
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = env.mapping.DetermineMapping(ctx, 1, stationery.ID, domain.MoneyOut, dec("-5"))
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("non-positive ids", func(t *testing.T) {
		_, err := env.mapping.DetermineMapping(ctx, 1, 0, domain.MoneyOut, dec("5"))
		assert.ErrorIs(t, err, domain.ErrInvalidAccountID)
		_, err = env.mapping.DetermineMapping(ctx, 0, stationery.ID, domain.MoneyOut, dec("5"))
		assert.ErrorIs(t, err, domain.ErrInvalidTenantID)
	})

	t.Run("unknown direction", func(t *testing.T) {
		_, err := env.mapping.DetermineMapping(ctx, 1, stationery.ID, domain.FlowDirection("Sideways"), dec("5"))
		assert.ErrorIs(t, err, domain.ErrUnknownDirection)
	})

	t.Run("account of another tenant", func(t *testing.T) {
		other := seedAccount(t, env.db, 2, "Other Cash", domain.Asset)
		_, err := env.mapping.DetermineMapping(ctx, 1, other.ID, domain.MoneyOut, dec("5"))
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestDetermineManualMapping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cash := seedAccount(t, env.db, 1, "Cash", domain.Asset)
	bank := seedAccount(t, env.db, 1, "Bank", domain.Asset)
	fees := seedAccount(t, env.db, 1, "School Fees", domain.Revenue)

	t.Run("explicit contra skips scoring", func(t *testing.T) {
		// 自动映射会选 Cash（100 分），手动指定 Bank 时必须用 Bank
		result, err := env.mapping.DetermineManualMapping(ctx, 1, fees.ID, bank.ID, domain.MoneyIn, dec("750"))
		require.NoError(t, err)
		assert.Equal(t, bank.ID, result.ContraAccount.ID)
		assert.Equal(t, bank.ID, result.DebitAccountID)
		assert.Equal(t, fees.ID, result.CreditAccountID)
	})

	t.Run("contra from another tenant rejected", func(t *testing.T) {
		foreign := seedAccount(t, env.db, 2, "Foreign Bank", domain.Asset)
		_, err := env.mapping.DetermineManualMapping(ctx, 1, fees.ID, foreign.ID, domain.MoneyIn, dec("750"))
		assert.ErrorIs(t, err, domain.ErrCrossTenantAccount)
	})

	t.Run("contra equal to selected rejected", func(t *testing.T) {
		_, err := env.mapping.DetermineManualMapping(ctx, 1, cash.ID, cash.ID, domain.Transfer, dec("750"))
		assert.ErrorIs(t, err, domain.ErrInvalidAccountID)
	})
}

func TestListContraCandidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cash := seedAccount(t, env.db, 1, "Cash", domain.Asset)
	bank := seedAccount(t, env.db, 1, "Bank", domain.Asset)
	petty := seedAccount(t, env.db, 1, "Petty Cash", domain.Asset)
	loan := seedAccount(t, env.db, 1, "School Loan", domain.Liability)
	stationery := seedAccount(t, env.db, 1, "Stationery", domain.Expense)

	t.Run("money out ranked by priority", func(t *testing.T) {
		candidates, err := env.mapping.ListContraCandidates(ctx, 1, stationery.ID, domain.MoneyOut)
		require.NoError(t, err)
		require.Len(t, candidates, 3)
		assert.Equal(t, cash.ID, candidates[0].AccountID)
		assert.Equal(t, 100, candidates[0].Priority)
		assert.Equal(t, bank.ID, candidates[1].AccountID)
		assert.Equal(t, 90, candidates[1].Priority)
		assert.Equal(t, petty.ID, candidates[2].AccountID)
		assert.Equal(t, 80, candidates[2].Priority)
		for _, c := range candidates {
			assert.True(t, c.Recommended)
		}
	})

	t.Run("transfer from liability lists all assets as recommended", func(t *testing.T) {
		candidates, err := env.mapping.ListContraCandidates(ctx, 1, loan.ID, domain.Transfer)
		require.NoError(t, err)
		require.Len(t, candidates, 3)
		for _, c := range candidates {
			assert.Equal(t, domain.Asset, c.Type)
			assert.True(t, c.Recommended)
		}
	})

	t.Run("unknown primary account yields empty list", func(t *testing.T) {
		candidates, err := env.mapping.ListContraCandidates(ctx, 1, 9999, domain.MoneyOut)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

func TestFormatRand(t *testing.T) {
	assert.Equal(t, "R500.00", formatRand(dec("500")))
	assert.Equal(t, "R1,000.00", formatRand(dec("1000")))
	assert.Equal(t, "R1,234,567.89", formatRand(dec("1234567.891")))
	assert.Equal(t, "R0.50", formatRand(dec("0.5")))
	assert.Equal(t, "R-1,000.00", formatRand(dec("-1000")))
}
