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

// MappingResult 映射结果：单科目 + 方向 → 完整的借贷对
type MappingResult struct {
	DebitAccountID  int64
	CreditAccountID int64
	PrimaryAccount  *domain.Account
	ContraAccount   *domain.Account
	Direction       domain.FlowDirection
	Amount          decimal.Decimal
	Explanation     string
}

// ContraCandidate 候选对方科目（按优先级排序，给用户手动覆盖时用）
type ContraCandidate struct {
	AccountID   int64
	Name        string
	Type        domain.AccountType
	Priority    int
	Recommended bool
}

// MappingService 科目映射引擎
// 用户只说"花了 R500 买文具"，引擎负责推导最合理的对方科目（现金/银行），
// 并决定谁借谁贷，让不懂会计的用户也能录出平衡的分录。
type MappingService struct {
	accounts domain.AccountRepository
}

func NewMappingService(accounts domain.AccountRepository) *MappingService {
	return &MappingService{accounts: accounts}
}

// DetermineMapping 自动映射：推导对方科目并分配借贷
func (s *MappingService) DetermineMapping(
	ctx context.Context,
	tenantID, selectedAccountID int64,
	direction domain.FlowDirection,
	amount decimal.Decimal,
) (*MappingResult, error) {
	if err := validateMappingInput(tenantID, selectedAccountID, direction, amount); err != nil {
		return nil, err
	}

	selected, err := s.findTenantAccount(ctx, tenantID, selectedAccountID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.possibleContraAccounts(ctx, selected, direction)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoSuitableContraAccount
	}

	// 取最高分；同分时列表顺序（ID 升序）在前者胜出
	best := candidates[0]
	bestScore := contraPriority(&best, direction)
	for i := 1; i < len(candidates); i++ {
		if score := contraPriority(&candidates[i], direction); score > bestScore {
			best = candidates[i]
			bestScore = score
		}
	}
	contra := best

	debitID, creditID := assignDebitCredit(selected, &contra, direction)

	return &MappingResult{
		DebitAccountID:  debitID,
		CreditAccountID: creditID,
		PrimaryAccount:  selected,
		ContraAccount:   &contra,
		Direction:       direction,
		Amount:          amount,
		Explanation:     explanation(selected, &contra, direction, amount),
	}, nil
}

// DetermineManualMapping 手动覆盖：用户自己选了对方科目
// 只校验两个科目都在租户内，借贷分配规则不变，不再跑打分
func (s *MappingService) DetermineManualMapping(
	ctx context.Context,
	tenantID, selectedAccountID, contraAccountID int64,
	direction domain.FlowDirection,
	amount decimal.Decimal,
) (*MappingResult, error) {
	if err := validateMappingInput(tenantID, selectedAccountID, direction, amount); err != nil {
		return nil, err
	}
	if contraAccountID <= 0 || contraAccountID == selectedAccountID {
		return nil, domain.ErrInvalidAccountID
	}

	selected, err := s.findTenantAccount(ctx, tenantID, selectedAccountID)
	if err != nil {
		return nil, err
	}
	contra, err := s.accounts.FindByID(ctx, tenantID, contraAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 手动选的对方科目不在本租户
			return nil, domain.ErrCrossTenantAccount
		}
		return nil, err
	}

	debitID, creditID := assignDebitCredit(selected, contra, direction)

	return &MappingResult{
		DebitAccountID:  debitID,
		CreditAccountID: creditID,
		PrimaryAccount:  selected,
		ContraAccount:   contra,
		Direction:       direction,
		Amount:          amount,
		Explanation:     explanation(selected, contra, direction, amount),
	}, nil
}

// ListContraCandidates 列出全部候选对方科目（带分数和推荐标记）
// 查不到主科目时返回空列表，跟查询接口的语义保持一致
func (s *MappingService) ListContraCandidates(
	ctx context.Context,
	tenantID, primaryAccountID int64,
	direction domain.FlowDirection,
) ([]ContraCandidate, error) {
	if tenantID <= 0 || primaryAccountID <= 0 {
		return []ContraCandidate{}, nil
	}
	if !direction.IsValid() {
		return nil, domain.ErrUnknownDirection
	}

	primary, err := s.accounts.FindByID(ctx, tenantID, primaryAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []ContraCandidate{}, nil
		}
		return nil, err
	}

	accounts, err := s.possibleContraAccounts(ctx, primary, direction)
	if err != nil {
		return nil, err
	}

	candidates := make([]ContraCandidate, 0, len(accounts))
	for i := range accounts {
		acc := accounts[i]
		candidates = append(candidates, ContraCandidate{
			AccountID:   acc.ID,
			Name:        acc.Name,
			Type:        acc.Type,
			Priority:    contraPriority(&acc, direction),
			Recommended: isRecommendedContra(&acc, direction),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})
	return candidates, nil
}

// ---------------------------------------------------------

func validateMappingInput(tenantID, accountID int64, direction domain.FlowDirection, amount decimal.Decimal) error {
	if tenantID <= 0 {
		return domain.ErrInvalidTenantID
	}
	if accountID <= 0 {
		return domain.ErrInvalidAccountID
	}
	if !direction.IsValid() {
		return domain.ErrUnknownDirection
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}
	return nil
}

func (s *MappingService) findTenantAccount(ctx context.Context, tenantID, id int64) (*domain.Account, error) {
	acc, err := s.accounts.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// possibleContraAccounts 按方向构建候选集，排除主科目自身
//   - 收付款：带 cash/bank/petty cash 字样的资产科目；没有就退回全部资产科目
//   - 转账：资产 <-> 资产，或从资产还负债
func (s *MappingService) possibleContraAccounts(
	ctx context.Context,
	selected *domain.Account,
	direction domain.FlowDirection,
) ([]domain.Account, error) {
	all, err := s.accounts.ListByTenant(ctx, selected.TenantID)
	if err != nil {
		return nil, err
	}

	var candidates []domain.Account
	switch direction {
	case domain.MoneyOut, domain.MoneyIn:
		for _, acc := range all {
			if acc.ID == selected.ID || acc.Type != domain.Asset {
				continue
			}
			name := strings.ToLower(acc.Name)
			if strings.Contains(name, "cash") ||
				strings.Contains(name, "bank") ||
				strings.Contains(name, "petty cash") {
				candidates = append(candidates, acc)
			}
		}
		// 没有现金/银行科目时，退级到全部资产科目
		if len(candidates) == 0 {
			for _, acc := range all {
				if acc.ID != selected.ID && acc.Type == domain.Asset {
					candidates = append(candidates, acc)
				}
			}
		}
	case domain.Transfer:
		for _, acc := range all {
			if acc.ID == selected.ID {
				continue
			}
			if isValidTransferContra(&acc, selected) {
				candidates = append(candidates, acc)
			}
		}
	}
	return candidates, nil
}

func isValidTransferContra(candidate, selected *domain.Account) bool {
	// 资产之间转账（现金、银行、设备）
	if candidate.Type == domain.Asset && selected.Type == domain.Asset {
		return true
	}
	// 从资产科目还负债
	if selected.Type == domain.Liability && candidate.Type == domain.Asset {
		return true
	}
	return false
}

// contraPriority 对方科目打分表，分数高者胜出
func contraPriority(account *domain.Account, direction domain.FlowDirection) int {
	name := strings.ToLower(account.Name)

	if name == "cash" {
		return 100
	}
	if name == "bank" {
		return 90
	}
	if strings.Contains(name, "petty cash") {
		return 80
	}
	if strings.Contains(name, "cash") {
		return 70
	}
	if strings.Contains(name, "bank") {
		return 60
	}

	// 转账场景下其它资产科目给中等分
	if direction == domain.Transfer && account.Type == domain.Asset {
		return 50
	}

	if account.Type == domain.Liability {
		return 30
	}
	if account.Type == domain.Equity {
		return 20
	}
	return 10
}

func isRecommendedContra(account *domain.Account, direction domain.FlowDirection) bool {
	switch direction {
	case domain.MoneyOut, domain.MoneyIn:
		// 收付款永远推荐现金/银行
		name := strings.ToLower(account.Name)
		return strings.Contains(name, "cash") || strings.Contains(name, "bank")
	case domain.Transfer:
		return account.Type == domain.Asset
	default:
		return false
	}
}

// assignDebitCredit 按方向分配借贷
//   - MoneyOut: 主科目记借（费用/资产增加），对方科目记贷（现金减少）
//   - MoneyIn:  对方科目记借（现金增加），主科目记贷
//   - Transfer: 主科目记借，对方科目记贷
func assignDebitCredit(selected, contra *domain.Account, direction domain.FlowDirection) (debitID, creditID int64) {
	switch direction {
	case domain.MoneyOut:
		return selected.ID, contra.ID
	case domain.MoneyIn:
		return contra.ID, selected.ID
	case domain.Transfer:
		return selected.ID, contra.ID
	default:
		// 入口处已校验过方向，走到这里属于程序 bug
		panic("unknown transaction direction: " + string(direction))
	}
}

// explanation 生成给用户看的资金流向说明
func explanation(primary, contra *domain.Account, direction domain.FlowDirection, amount decimal.Decimal) string {
	amt := formatRand(amount)
	switch direction {
	case domain.MoneyOut:
		return amt + " flows FROM " + contra.Name + " TO " + primary.Name
	case domain.MoneyIn:
		return amt + " flows FROM " + primary.Name + " TO " + contra.Name
	case domain.Transfer:
		return amt + " transfers FROM " + contra.Name + " TO " + primary.Name
	default:
		return amt + " transaction between " + primary.Name + " and " + contra.Name
	}
}

// formatRand 金额格式化为 R1,234.50（两位小数 + 千分位）
func formatRand(amount decimal.Decimal) string {
	s := amount.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := "R" + b.String() + "." + fracPart
	if neg {
		out = "R-" + b.String() + "." + fracPart
	}
	return out
}
