package repo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
)

type AccountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) FindByID(ctx context.Context, tenantID, id int64) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepo) FindByNameFold(ctx context.Context, tenantID int64, name string) (*domain.Account, error) {
	var account domain.Account
	// LOWER 比较，租户内科目名不区分大小写唯一
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(name) = LOWER(?)", tenantID, name).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepo) ListByTenant(ctx context.Context, tenantID int64) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *AccountRepo) Update(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

func (r *AccountRepo) Delete(ctx context.Context, tenantID, id int64) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&domain.Account{}).Error
}

func (r *AccountRepo) HasLines(ctx context.Context, accountID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TransactionLine{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count > 0, err
}

// ---------------------------------------------------------

type TransactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) FindByID(ctx context.Context, tenantID, id int64) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			// 行顺序稳定：冲正时要逐行镜像
			return db.Order("transaction_lines.id ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) ListByTenant(ctx context.Context, tenantID int64) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("transaction_lines.id ASC")
		}).
		Where("tenant_id = ?", tenantID).
		Order("date DESC").Order("id DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *TransactionRepo) ListByUser(ctx context.Context, tenantID int64, userID string) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("transaction_lines.id ASC")
		}).
		Where("tenant_id = ? AND entered_by_user_id = ?", tenantID, userID).
		Order("date DESC").Order("id DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *TransactionRepo) ListLinesByAccount(ctx context.Context, tenantID, accountID int64) ([]domain.TransactionLine, error) {
	var lines []domain.TransactionLine
	err := r.db.WithContext(ctx).Model(&domain.TransactionLine{}).
		Joins("JOIN transactions ON transactions.id = transaction_lines.transaction_id").
		Where("transaction_lines.account_id = ? AND transactions.tenant_id = ?", accountID, tenantID).
		Order("transactions.date DESC").Order("transactions.id DESC").
		Find(&lines).Error
	return lines, err
}

func (r *TransactionRepo) AccountBalance(ctx context.Context, tenantID, accountID int64) (decimal.Decimal, error) {
	// 余额 = Σ借 − Σ贷，直接在数据库聚合
	var row struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&domain.TransactionLine{}).
		Select("COALESCE(SUM(transaction_lines.debit), 0) AS debit, COALESCE(SUM(transaction_lines.credit), 0) AS credit").
		Joins("JOIN transactions ON transactions.id = transaction_lines.transaction_id").
		Where("transaction_lines.account_id = ? AND transactions.tenant_id = ?", accountID, tenantID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Debit.Sub(row.Credit), nil
}

func (r *TransactionRepo) HasCorrectionFor(ctx context.Context, db *gorm.DB, originalID int64) (bool, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("corrected_transaction_id = ?", originalID).
		Count(&count).Error
	return count > 0, err
}

func (r *TransactionRepo) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("corrected_transaction_id = ? OR reversal_transaction_id = ?", id, id).
		Count(&count).Error
	return count > 0, err
}

func (r *TransactionRepo) Create(ctx context.Context, db *gorm.DB, t *domain.Transaction) error {
	// GORM 会自动级联插入 Transaction -> Lines
	return db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepo) Save(ctx context.Context, db *gorm.DB, t *domain.Transaction) error {
	// Omit 关联，只更新主表字段（更正链回填、核销标注）
	return db.WithContext(ctx).Omit("Lines").Save(t).Error
}

func (r *TransactionRepo) Delete(ctx context.Context, db *gorm.DB, t *domain.Transaction) error {
	// 先删行再删主表，级联语义
	if err := db.WithContext(ctx).
		Where("transaction_id = ?", t.ID).
		Delete(&domain.TransactionLine{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Delete(t).Error
}
