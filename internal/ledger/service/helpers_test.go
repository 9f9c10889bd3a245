package service

import (
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xxz807/sgbooks/backend/internal/ledger/adapter/repo"
	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{},
		&domain.Transaction{},
		&domain.TransactionLine{},
	))
	return db
}

type testEnv struct {
	db       *gorm.DB
	accounts *repo.AccountRepo
	txns     *repo.TransactionRepo
	mapping  *MappingService
	ledger   *LedgerService
	admin    *AccountService
	clock    *fixedClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	accounts := repo.NewAccountRepo(db)
	txns := repo.NewTransactionRepo(db)
	clock := &fixedClock{today: date(2026, 3, 10)}
	return &testEnv{
		db:       db,
		accounts: accounts,
		txns:     txns,
		mapping:  NewMappingService(accounts),
		ledger:   NewLedgerService(db, zap.NewNop(), txns, clock),
		admin:    NewAccountService(accounts, txns),
		clock:    clock,
	}
}

type fixedClock struct {
	today time.Time
}

func (c *fixedClock) Today() time.Time { return c.today }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func seedAccount(t *testing.T, db *gorm.DB, tenantID int64, name string, accType domain.AccountType) *domain.Account {
	t.Helper()
	account := &domain.Account{TenantID: tenantID, Name: name, Type: accType}
	require.NoError(t, db.Create(account).Error)
	return account
}
