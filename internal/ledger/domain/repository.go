package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountRepository 科目仓储接口
// Port (端口)，由 adapter/repo 在基础设施层实现
// 所有查询都必须带租户过滤，防止跨租户泄漏
type AccountRepository interface {
	// FindByID 租户内按 ID 查科目
	FindByID(ctx context.Context, tenantID, id int64) (*Account, error)

	// FindByNameFold 租户内按名称查科目（不区分大小写），用于唯一性预检
	FindByNameFold(ctx context.Context, tenantID int64, name string) (*Account, error)

	// ListByTenant 租户内全部科目，按 ID 升序（映射引擎打分时的平局顺序）
	ListByTenant(ctx context.Context, tenantID int64) ([]Account, error)

	Create(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	Delete(ctx context.Context, tenantID, id int64) error

	// HasLines 是否有分录行引用该科目（有则禁止删除）
	HasLines(ctx context.Context, accountID int64) (bool, error)
}

// TransactionRepository 交易仓储接口
type TransactionRepository interface {
	// FindByID 租户内按 ID 查交易，附带分录行（按行 ID 升序）
	FindByID(ctx context.Context, tenantID, id int64) (*Transaction, error)

	// ListByTenant 租户流水，日期倒序再按 ID 倒序
	ListByTenant(ctx context.Context, tenantID int64) ([]Transaction, error)

	// ListByUser 某用户录入的流水，排序同上
	ListByUser(ctx context.Context, tenantID int64, userID string) ([]Transaction, error)

	// ListLinesByAccount 某科目的全部分录行（交易日期倒序）
	ListLinesByAccount(ctx context.Context, tenantID, accountID int64) ([]TransactionLine, error)

	// AccountBalance 科目余额 = Σ借 − Σ贷（符号语义留给报表层）
	AccountBalance(ctx context.Context, tenantID, accountID int64) (decimal.Decimal, error)

	// HasCorrectionFor 原单是否已被更正过（AlreadyCorrected 检查）
	HasCorrectionFor(ctx context.Context, db *gorm.DB, originalID int64) (bool, error)

	// IsReferenced 是否有其它交易通过更正链指向该交易
	IsReferenced(ctx context.Context, id int64) (bool, error)

	// 写操作必须走传入的事务会话 db，而不是仓储自己持有的连接
	Create(ctx context.Context, db *gorm.DB, t *Transaction) error
	Save(ctx context.Context, db *gorm.DB, t *Transaction) error
	Delete(ctx context.Context, db *gorm.DB, t *Transaction) error
}
