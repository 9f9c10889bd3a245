package api

import (
	"time"

	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
	"github.com/xxz807/sgbooks/backend/internal/ledger/service"
)

// PostTransactionReq 对应前端发来的 JSON
// 用户只选一个科目 + 方向，可选手动指定对方科目
type PostTransactionReq struct {
	Date              string `json:"date" binding:"required"` // YYYY-MM-DD
	Description       string `json:"description" binding:"required,max=200"`
	ReferenceNo       string `json:"reference_no" binding:"max=50"`
	SelectedAccountID int64  `json:"selected_account_id" binding:"required"`
	ContraAccountID   *int64 `json:"contra_account_id"` // 可选：手动覆盖对方科目
	Direction         string `json:"direction" binding:"required,oneof=MoneyOut MoneyIn Transfer"`
	Amount            string `json:"amount" binding:"required"` // 必须传字符串，防精度丢失
}

// MappingReq 预览映射用（不落库）
type MappingReq struct {
	SelectedAccountID int64  `json:"selected_account_id" binding:"required"`
	ContraAccountID   *int64 `json:"contra_account_id"`
	Direction         string `json:"direction" binding:"required,oneof=MoneyOut MoneyIn Transfer"`
	Amount            string `json:"amount" binding:"required"`
}

// WriteOffReq 核销标注
type WriteOffReq struct {
	Reason string `json:"reason" binding:"required,max=200"`
}

// AccountReq 新建/修改科目
type AccountReq struct {
	Name string `json:"name" binding:"required,max=100"`
	Type string `json:"type" binding:"required,oneof=Asset Liability Equity Revenue Expense"`
}

// ---------------------------------------------------------

type AccountResp struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type LineResp struct {
	ID            int64  `json:"id"`
	TransactionID int64  `json:"transaction_id"`
	AccountID     int64  `json:"account_id"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
}

type TransactionResp struct {
	ID                     int64      `json:"id"`
	Date                   string     `json:"date"`
	Description            string     `json:"description"`
	ReferenceNo            string     `json:"reference_no,omitempty"`
	EnteredByUserID        string     `json:"entered_by_user_id"`
	EnteredAt              time.Time  `json:"entered_at"`
	IsCorrection           bool       `json:"is_correction"`
	IsReversal             bool       `json:"is_reversal"`
	CorrectedTransactionID *int64     `json:"corrected_transaction_id,omitempty"`
	ReversalTransactionID  *int64     `json:"reversal_transaction_id,omitempty"`
	WrittenOffByUserID     *string    `json:"written_off_by_user_id,omitempty"`
	WrittenOffAt           *time.Time `json:"written_off_at,omitempty"`
	WriteOffReason         *string    `json:"write_off_reason,omitempty"`
	Lines                  []LineResp `json:"lines"`
}

type ContraCandidateResp struct {
	AccountID   int64  `json:"account_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Priority    int    `json:"priority"`
	Recommended bool   `json:"recommended"`
}

type MappingResp struct {
	DebitAccountID  int64                 `json:"debit_account_id"`
	CreditAccountID int64                 `json:"credit_account_id"`
	PrimaryAccount  AccountResp           `json:"primary_account"`
	ContraAccount   AccountResp           `json:"contra_account"`
	Explanation     string                `json:"explanation"`
	Alternatives    []ContraCandidateResp `json:"alternative_contra_accounts,omitempty"`
}

// ---------------------------------------------------------

func toAccountResp(a *domain.Account) AccountResp {
	return AccountResp{ID: a.ID, Name: a.Name, Type: a.Type.String()}
}

func toTransactionResp(t *domain.Transaction) TransactionResp {
	resp := TransactionResp{
		ID:                     t.ID,
		Date:                   t.Date.Format("2006-01-02"),
		Description:            t.Description,
		ReferenceNo:            t.ReferenceNo,
		EnteredByUserID:        t.EnteredByUserID,
		EnteredAt:              t.EnteredAt,
		IsCorrection:           t.IsCorrection,
		IsReversal:             t.IsReversal,
		CorrectedTransactionID: t.CorrectedTransactionID,
		ReversalTransactionID:  t.ReversalTransactionID,
		WrittenOffByUserID:     t.WrittenOffByUserID,
		WrittenOffAt:           t.WrittenOffAt,
		WriteOffReason:         t.WriteOffReason,
		Lines:                  make([]LineResp, 0, len(t.Lines)),
	}
	for _, line := range t.Lines {
		resp.Lines = append(resp.Lines, LineResp{
			ID:            line.ID,
			TransactionID: line.TransactionID,
			AccountID:     line.AccountID,
			Debit:         line.Debit.StringFixed(2),
			Credit:        line.Credit.StringFixed(2),
		})
	}
	return resp
}

func toCandidateResps(candidates []service.ContraCandidate) []ContraCandidateResp {
	out := make([]ContraCandidateResp, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, ContraCandidateResp{
			AccountID:   c.AccountID,
			Name:        c.Name,
			Type:        c.Type.String(),
			Priority:    c.Priority,
			Recommended: c.Recommended,
		})
	}
	return out
}
