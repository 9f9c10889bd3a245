package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Account 科目实体
// 同一租户内科目名唯一（不区分大小写，由 service 层预检 + 唯一索引兜底）
type Account struct {
	ID        int64       `gorm:"primaryKey;autoIncrement"`
	TenantID  int64       `gorm:"not null;uniqueIndex:uniq_tenant_account_name,priority:1"`
	Name      string      `gorm:"type:varchar(100);not null;uniqueIndex:uniq_tenant_account_name,priority:2"`
	Type      AccountType `gorm:"type:smallint;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction 交易主表实体（一笔平衡的会计分录）
// 账本不可变：金额/科目错了不改原单，而是走冲正 + 更正链
type Transaction struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	TenantID    int64     `gorm:"not null;index"`
	Date        time.Time `gorm:"not null"`
	Description string    `gorm:"type:varchar(200);not null"`
	ReferenceNo string    `gorm:"type:varchar(50)"`

	// 审计：谁录的、什么时候录的
	EnteredByUserID string    `gorm:"type:varchar(64);not null"`
	EnteredAt       time.Time `gorm:"not null"`

	// 核销标注（只是元数据，不影响余额）
	WrittenOffByUserID *string `gorm:"type:varchar(64)"`
	WrittenOffAt       *time.Time
	WriteOffReason     *string `gorm:"type:varchar(200)"`

	// 更正链：原单 <- 冲正单 <-> 更正单 互相指向
	CorrectedTransactionID *int64 `gorm:"index"`
	ReversalTransactionID  *int64 `gorm:"index"`
	IsReversal             bool   `gorm:"not null;default:false"`
	IsCorrection           bool   `gorm:"not null;default:false"`

	CreatedAt time.Time

	// 关联关系 (一对多)
	Lines []TransactionLine `gorm:"foreignKey:TransactionID"`
}

// TransactionLine 分录行实体（借贷的其中一边）
type TransactionLine struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	TransactionID int64           `gorm:"not null;index"`
	AccountID     int64           `gorm:"not null;index"`
	Debit         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Credit        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
}

// Validate 落库前的结构校验：行数、借贷互斥、借贷必相等
func (t *Transaction) Validate() error {
	if len(t.Lines) < 2 {
		return errors.New("transaction must have at least 2 lines")
	}

	var totalDebit, totalCredit decimal.Decimal
	for _, line := range t.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return errors.New("line amounts must not be negative")
		}
		// 每行要么借、要么贷，不能两边都有，也不能两边都空
		if line.Debit.IsPositive() == line.Credit.IsPositive() {
			return errors.New("each line must carry exactly one of debit or credit")
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	// 核心约束：借贷必相等
	if !totalDebit.Equal(totalCredit) {
		return errors.New("imbalance: debit=" + totalDebit.String() + ", credit=" + totalCredit.String())
	}
	return nil
}

// IsWrittenOff 是否已核销
func (t *Transaction) IsWrittenOff() bool {
	return t.WrittenOffAt != nil
}
