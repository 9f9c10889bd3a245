package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
	"github.com/xxz807/sgbooks/backend/internal/ledger/service"
)

// 由网关中间件写入的身份信息 key
const (
	CtxTenantID = "x-tenant-id"
	CtxUserID   = "x-user-id"
)

type LedgerHandler struct {
	mapping  *service.MappingService
	ledger   *service.LedgerService
	accounts *service.AccountService
}

func NewLedgerHandler(mapping *service.MappingService, ledger *service.LedgerService, accounts *service.AccountService) *LedgerHandler {
	return &LedgerHandler{mapping: mapping, ledger: ledger, accounts: accounts}
}

// RegisterRoutes 注册路由
func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	ledgerGroup := r.Group("/ledger")
	{
		ledgerGroup.POST("/mapping", h.DetermineMapping)
		ledgerGroup.GET("/mapping/candidates", h.ListContraCandidates)

		ledgerGroup.POST("/transactions", h.PostTransaction)
		ledgerGroup.GET("/transactions", h.ListTransactions)
		ledgerGroup.GET("/transactions/:id", h.GetTransaction)
		ledgerGroup.DELETE("/transactions/:id", h.DeleteTransaction)
		ledgerGroup.POST("/transactions/:id/correct", h.CorrectTransaction)
		ledgerGroup.POST("/transactions/:id/write-off", h.WriteOffTransaction)

		ledgerGroup.GET("/accounts", h.ListAccounts)
		ledgerGroup.POST("/accounts", h.CreateAccount)
		ledgerGroup.GET("/accounts/:id", h.GetAccount)
		ledgerGroup.PUT("/accounts/:id", h.UpdateAccount)
		ledgerGroup.DELETE("/accounts/:id", h.DeleteAccount)
		ledgerGroup.GET("/accounts/:id/ledger", h.GetAccountLedger)
	}
}

// DetermineMapping 映射预览接口：不落库，给前端展示借贷分配和候选科目
// POST /api/v1/ledger/mapping
func (h *LedgerHandler) DetermineMapping(c *gin.Context) {
	tenantID, _ := identity(c)

	var req MappingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount format: " + req.Amount})
		return
	}

	result, err := h.resolveMapping(c, tenantID, req.SelectedAccountID, req.ContraAccountID, domain.FlowDirection(req.Direction), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	// 连候选列表一起返回，方便用户手动换对方科目
	candidates, err := h.mapping.ListContraCandidates(c.Request.Context(), tenantID, req.SelectedAccountID, domain.FlowDirection(req.Direction))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MappingResp{
		DebitAccountID:  result.DebitAccountID,
		CreditAccountID: result.CreditAccountID,
		PrimaryAccount:  toAccountResp(result.PrimaryAccount),
		ContraAccount:   toAccountResp(result.ContraAccount),
		Explanation:     result.Explanation,
		Alternatives:    toCandidateResps(candidates),
	})
}

// ListContraCandidates 候选对方科目
// GET /api/v1/ledger/mapping/candidates?account_id=2&direction=MoneyOut
func (h *LedgerHandler) ListContraCandidates(c *gin.Context) {
	tenantID, _ := identity(c)

	accountID, err := strconv.ParseInt(c.Query("account_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
		return
	}
	direction := domain.FlowDirection(c.Query("direction"))
	if !direction.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid direction"})
		return
	}

	candidates, err := h.mapping.ListContraCandidates(c.Request.Context(), tenantID, accountID, direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": toCandidateResps(candidates)})
}

// PostTransaction 记账接口
// POST /api/v1/ledger/transactions
func (h *LedgerHandler) PostTransaction(c *gin.Context) {
	tenantID, userID := identity(c)

	req, mapping, date, ok := h.bindPosting(c, tenantID)
	if !ok {
		return
	}

	txn, err := h.ledger.PostTransaction(c.Request.Context(), service.PostRequest{
		TenantID:    tenantID,
		UserID:      userID,
		Date:        date,
		Description: req.Description,
		ReferenceNo: req.ReferenceNo,
		Mapping:     mapping,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Transaction posted successfully",
		"explanation": mapping.Explanation,
		"transaction": toTransactionResp(txn),
	})
}

// CorrectTransaction 更正接口：冲正单 + 更正单一次生成
// POST /api/v1/ledger/transactions/:id/correct
func (h *LedgerHandler) CorrectTransaction(c *gin.Context) {
	tenantID, userID := identity(c)

	originalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	req, mapping, date, ok := h.bindPosting(c, tenantID)
	if !ok {
		return
	}

	reversal, correcting, err := h.ledger.CorrectTransaction(c.Request.Context(), service.CorrectRequest{
		TenantID:              tenantID,
		UserID:                userID,
		OriginalTransactionID: originalID,
		Date:                  date,
		Description:           req.Description,
		ReferenceNo:           req.ReferenceNo,
		Mapping:               mapping,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Correction completed successfully",
		"reversal":   toTransactionResp(reversal),
		"correcting": toTransactionResp(correcting),
	})
}

// DeleteTransaction 删除接口（当天、本人、非更正链）
// DELETE /api/v1/ledger/transactions/:id
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	tenantID, userID := identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	if err := h.ledger.DeleteTransaction(c.Request.Context(), tenantID, userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// WriteOffTransaction 核销标注
// POST /api/v1/ledger/transactions/:id/write-off
func (h *LedgerHandler) WriteOffTransaction(c *gin.Context) {
	tenantID, userID := identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}
	var req WriteOffReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	txn, err := h.ledger.WriteOff(c.Request.Context(), tenantID, userID, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": toTransactionResp(txn)})
}

// GetTransaction 单笔详情
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	tenantID, _ := identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	txn, err := h.ledger.GetTransaction(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": toTransactionResp(txn)})
}

// ListTransactions 流水列表；?mine=1 只看自己录的
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	tenantID, userID := identity(c)

	var (
		txns []domain.Transaction
		err  error
	)
	if c.Query("mine") == "1" {
		txns, err = h.ledger.ListMyTransactions(c.Request.Context(), tenantID, userID)
	} else {
		txns, err = h.ledger.ListTransactions(c.Request.Context(), tenantID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]TransactionResp, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResp(&txns[i]))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

// ---------------------------------------------------------
// 科目管理

func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	tenantID, _ := identity(c)

	var req AccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	accType, _ := domain.ParseAccountType(req.Type)

	account, err := h.accounts.CreateAccount(c.Request.Context(), tenantID, req.Name, accType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": toAccountResp(account)})
}

func (h *LedgerHandler) UpdateAccount(c *gin.Context) {
	tenantID, _ := identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	var req AccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	accType, _ := domain.ParseAccountType(req.Type)

	account, err := h.accounts.UpdateAccount(c.Request.Context(), tenantID, id, req.Name, accType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": toAccountResp(account)})
}

func (h *LedgerHandler) DeleteAccount(c *gin.Context) {
	tenantID, _ := identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	if err := h.accounts.DeleteAccount(c.Request.Context(), tenantID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

func (h *LedgerHandler) GetAccount(c *gin.Context) {
	tenantID, _ := identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	account, err := h.accounts.GetAccount(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": toAccountResp(account)})
}

func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	tenantID, _ := identity(c)

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]AccountResp, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountResp(&accounts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

// GetAccountLedger 科目台账：分录行 + 派生余额
func (h *LedgerHandler) GetAccountLedger(c *gin.Context) {
	tenantID, _ := identity(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	ledger, err := h.accounts.GetAccountLedger(c.Request.Context(), tenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	lines := make([]LineResp, 0, len(ledger.Lines))
	for _, line := range ledger.Lines {
		lines = append(lines, LineResp{
			ID:            line.ID,
			TransactionID: line.TransactionID,
			AccountID:     line.AccountID,
			Debit:         line.Debit.StringFixed(2),
			Credit:        line.Credit.StringFixed(2),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"account": toAccountResp(ledger.Account),
		"balance": ledger.Balance.StringFixed(2),
		"lines":   lines,
	})
}

// ---------------------------------------------------------

// bindPosting 解析记账/更正共用的请求体，生成映射结果
func (h *LedgerHandler) bindPosting(c *gin.Context, tenantID int64) (*PostTransactionReq, *service.MappingResult, time.Time, bool) {
	var req PostTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return nil, nil, time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return nil, nil, time.Time{}, false
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount format: " + req.Amount})
		return nil, nil, time.Time{}, false
	}

	mapping, err := h.resolveMapping(c, tenantID, req.SelectedAccountID, req.ContraAccountID, domain.FlowDirection(req.Direction), amount)
	if err != nil {
		respondError(c, err)
		return nil, nil, time.Time{}, false
	}
	return &req, mapping, date, true
}

func (h *LedgerHandler) resolveMapping(c *gin.Context, tenantID, selectedID int64, contraID *int64, direction domain.FlowDirection, amount decimal.Decimal) (*service.MappingResult, error) {
	if contraID != nil && *contraID > 0 {
		return h.mapping.DetermineManualMapping(c.Request.Context(), tenantID, selectedID, *contraID, direction, amount)
	}
	return h.mapping.DetermineMapping(c.Request.Context(), tenantID, selectedID, direction, amount)
}

func identity(c *gin.Context) (tenantID int64, userID string) {
	return c.GetInt64(CtxTenantID), c.GetString(CtxUserID)
}

// respondError 错误种类 -> HTTP 状态码
// 业务文案原样透传，前端直接展示给用户
func respondError(c *gin.Context, err error) {
	var cannotDelete *domain.CannotDeleteError
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrCrossTenantAccount):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyCorrected):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &cannotDelete):
		c.JSON(http.StatusForbidden, gin.H{"error": cannotDelete.Error()})
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidAccountID),
		errors.Is(err, domain.ErrInvalidTenantID),
		errors.Is(err, domain.ErrUnknownDirection),
		errors.Is(err, domain.ErrNoSuitableContraAccount),
		errors.Is(err, domain.ErrDuplicateAccountName),
		errors.Is(err, domain.ErrAccountInUse),
		errors.Is(err, domain.ErrAlreadyWrittenOff):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		// 基础设施错误不外泄细节
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
