package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xxz807/sgbooks/backend/internal/ledger/adapter/repo"
	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
	"github.com/xxz807/sgbooks/backend/internal/ledger/service"
)

type staticClock struct{ day time.Time }

func (c staticClock) Today() time.Time { return c.day }

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{},
		&domain.Transaction{},
		&domain.TransactionLine{},
	))

	accountRepo := repo.NewAccountRepo(db)
	txRepo := repo.NewTransactionRepo(db)
	clock := staticClock{day: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
	handler := NewLedgerHandler(
		service.NewMappingService(accountRepo),
		service.NewLedgerService(db, zap.NewNop(), txRepo, clock),
		service.NewAccountService(accountRepo, txRepo),
	)

	r := gin.New()
	// 测试里直接模拟网关注入的身份
	r.Use(func(c *gin.Context) {
		c.Set(CtxTenantID, int64(1))
		c.Set(CtxUserID, "u1")
	})
	handler.RegisterRoutes(r.Group("/api/v1"))
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, db *gorm.DB, tenantID int64, name string, accType domain.AccountType) *domain.Account {
	t.Helper()
	account := &domain.Account{TenantID: tenantID, Name: name, Type: accType}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestDetermineMappingEndpoint(t *testing.T) {
	r, db := newTestRouter(t)
	seed(t, db, 1, "Cash", domain.Asset)
	stationery := seed(t, db, 1, "Stationery", domain.Expense)

	w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/mapping", gin.H{
		"selected_account_id": stationery.ID,
		"direction":           "MoneyOut",
		"amount":              "500",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp MappingResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, stationery.ID, resp.DebitAccountID)
	assert.Equal(t, "Cash", resp.ContraAccount.Name)
	assert.Equal(t, "R500.00 flows FROM Cash TO Stationery", resp.Explanation)
	require.NotEmpty(t, resp.Alternatives)
	assert.True(t, resp.Alternatives[0].Recommended)
}

func TestDetermineMappingEndpoint_Errors(t *testing.T) {
	r, db := newTestRouter(t)
	donations := seed(t, db, 1, "Donations", domain.Revenue)

	t.Run("unknown account", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/mapping", gin.H{
			"selected_account_id": 999,
			"direction":           "MoneyOut",
			"amount":              "500",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no contra candidates", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/mapping", gin.H{
			"selected_account_id": donations.ID,
			"direction":           "MoneyIn",
			"amount":              "500",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("bad direction rejected at binding", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/mapping", gin.H{
			"selected_account_id": donations.ID,
			"direction":           "Sideways",
			"amount":              "500",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTransactionEndpoints(t *testing.T) {
	r, db := newTestRouter(t)
	seed(t, db, 1, "Cash", domain.Asset)
	stationery := seed(t, db, 1, "Stationery", domain.Expense)

	// 记账
	w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/transactions", gin.H{
		"date":                "2026-03-10",
		"description":         "Stationery purchase",
		"selected_account_id": stationery.ID,
		"direction":           "MoneyOut",
		"amount":              "500",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Transaction TransactionResp `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Transaction.Lines, 2)
	assert.Equal(t, "500.00", created.Transaction.Lines[0].Debit)

	// 更正
	w = doJSON(t, r, http.MethodPost,
		"/api/v1/ledger/transactions/"+itoa(created.Transaction.ID)+"/correct", gin.H{
			"date":                "2026-03-10",
			"description":         "Correction for: Stationery purchase",
			"selected_account_id": stationery.ID,
			"direction":           "MoneyIn",
			"amount":              "500",
		})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// 二次更正冲突
	w = doJSON(t, r, http.MethodPost,
		"/api/v1/ledger/transactions/"+itoa(created.Transaction.ID)+"/correct", gin.H{
			"date":                "2026-03-10",
			"description":         "again",
			"selected_account_id": stationery.ID,
			"direction":           "MoneyIn",
			"amount":              "500",
		})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 已被更正的原单禁止删除
	w = doJSON(t, r, http.MethodDelete,
		"/api/v1/ledger/transactions/"+itoa(created.Transaction.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAccountEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/ledger/accounts", gin.H{
		"name": "Cash", "type": "Asset",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// 同名（大小写不同）冲突
	w = doJSON(t, r, http.MethodPost, "/api/v1/ledger/accounts", gin.H{
		"name": "cash", "type": "Asset",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/ledger/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Accounts []AccountResp `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "Asset", resp.Accounts[0].Type)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
