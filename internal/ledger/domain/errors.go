package domain

import "errors"

// 业务错误一律用错误值返回，不用 panic。
// 这些文案会原样展示给（不懂会计的）出纳用户，措辞要具体、可区分。
var (
	// 输入校验类（任何 I/O 之前就拒绝）
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidAccountID = errors.New("invalid account id provided")
	ErrInvalidTenantID  = errors.New("invalid tenant id provided")
	ErrUnknownDirection = errors.New("unknown transaction direction")

	// 查找类
	ErrAccountNotFound     = errors.New("selected account not found or does not belong to your organisation")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCrossTenantAccount  = errors.New("account does not belong to your organisation")

	// 业务规则类
	ErrNoSuitableContraAccount = errors.New("no suitable contra account found, please ensure you have Cash or Bank accounts set up")
	ErrAlreadyCorrected        = errors.New("this transaction has already been corrected")
	ErrAlreadyWrittenOff       = errors.New("this transaction has already been written off")
	ErrDuplicateAccountName    = errors.New("an account with this name already exists")
	ErrAccountInUse            = errors.New("account has transaction lines and cannot be deleted")

	// 基础设施类：多步写入失败后回滚，对外只给一个笼统错误
	ErrCorrectionFailed = errors.New("an error occurred while creating the correction transactions")
)

// CannotDeleteError 删除被拒绝时带上具体原因
// 原因文案要能让用户分清是"不是你录的"还是"不是当天的"
type CannotDeleteError struct {
	Reason string
}

func (e *CannotDeleteError) Error() string {
	return "cannot delete transaction: " + e.Reason
}

// 删除校验的各类拒绝原因
const (
	DeleteReasonNotOwner = "you can only delete transactions that you entered"
	DeleteReasonNotToday = "you can only delete transactions on the same day they were entered"
	DeleteReasonIsChain  = "correction and reversal transactions cannot be deleted, correct the original transaction instead"
	DeleteReasonReferred = "a transaction that has been corrected or reversed cannot be deleted"
)
