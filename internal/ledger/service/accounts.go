package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xxz807/sgbooks/backend/internal/ledger/domain"
)

// AccountLedger 科目台账：科目 + 它名下的分录行 + 派生余额
type AccountLedger struct {
	Account *domain.Account
	Lines   []domain.TransactionLine
	Balance decimal.Decimal
}

// AccountService 科目管理
// 租户管理员建科目；名称租户内唯一（不区分大小写）；有分录引用就不许删
type AccountService struct {
	accounts domain.AccountRepository
	txRepo   domain.TransactionRepository
}

func NewAccountService(accounts domain.AccountRepository, txRepo domain.TransactionRepository) *AccountService {
	return &AccountService{accounts: accounts, txRepo: txRepo}
}

// CreateAccount 新建科目，名称先去首尾空白再查重
func (s *AccountService) CreateAccount(ctx context.Context, tenantID int64, name string, accType domain.AccountType) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if tenantID <= 0 {
		return nil, domain.ErrInvalidTenantID
	}
	if name == "" {
		return nil, errors.New("account name is required")
	}
	if !accType.IsValid() {
		return nil, errors.New("invalid account type")
	}

	if err := s.checkNameFree(ctx, tenantID, name, 0); err != nil {
		return nil, err
	}

	account := &domain.Account{
		TenantID: tenantID,
		Name:     name,
		Type:     accType,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount 改名/改类型，改名同样要查重（排除自己）
func (s *AccountService) UpdateAccount(ctx context.Context, tenantID, id int64, name string, accType domain.AccountType) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("account name is required")
	}
	if !accType.IsValid() {
		return nil, errors.New("invalid account type")
	}

	account, err := s.GetAccount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkNameFree(ctx, tenantID, name, id); err != nil {
		return nil, err
	}

	account.Name = name
	account.Type = accType
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount 有任何分录行引用就拒绝
func (s *AccountService) DeleteAccount(ctx context.Context, tenantID, id int64) error {
	account, err := s.GetAccount(ctx, tenantID, id)
	if err != nil {
		return err
	}

	inUse, err := s.accounts.HasLines(ctx, account.ID)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrAccountInUse
	}
	return s.accounts.Delete(ctx, tenantID, id)
}

func (s *AccountService) GetAccount(ctx context.Context, tenantID, id int64) (*domain.Account, error) {
	if tenantID <= 0 || id <= 0 {
		return nil, domain.ErrAccountNotFound
	}
	account, err := s.accounts.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts 科目列表，按名称排序（不区分大小写），给下拉框用
func (s *AccountService) ListAccounts(ctx context.Context, tenantID int64) ([]domain.Account, error) {
	accounts, err := s.accounts.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return strings.ToLower(accounts[i].Name) < strings.ToLower(accounts[j].Name)
	})
	return accounts, nil
}

// GetAccountLedger 科目台账视图：分录行（新的在前）+ 余额 Σ借 − Σ贷
func (s *AccountService) GetAccountLedger(ctx context.Context, tenantID, id int64) (*AccountLedger, error) {
	account, err := s.GetAccount(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	lines, err := s.txRepo.ListLinesByAccount(ctx, tenantID, account.ID)
	if err != nil {
		return nil, err
	}
	balance, err := s.txRepo.AccountBalance(ctx, tenantID, account.ID)
	if err != nil {
		return nil, err
	}

	return &AccountLedger{Account: account, Lines: lines, Balance: balance}, nil
}

func (s *AccountService) checkNameFree(ctx context.Context, tenantID int64, name string, selfID int64) error {
	existing, err := s.accounts.FindByNameFold(ctx, tenantID, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return domain.ErrDuplicateAccountName
	}
	return nil
}
