package domain

// AccountType 科目类型 (1-5)
type AccountType int16

const (
	Asset     AccountType = 1 // 资产
	Liability AccountType = 2 // 负债
	Equity    AccountType = 3 // 权益
	Revenue   AccountType = 4 // 收入
	Expense   AccountType = 5 // 费用
)

// IsValid 校验科目类型合法性
func (t AccountType) IsValid() bool {
	return t >= Asset && t <= Expense
}

func (t AccountType) String() string {
	switch t {
	case Asset:
		return "Asset"
	case Liability:
		return "Liability"
	case Equity:
		return "Equity"
	case Revenue:
		return "Revenue"
	case Expense:
		return "Expense"
	default:
		return "Unknown"
	}
}

// ParseAccountType 按名称解析科目类型
func ParseAccountType(s string) (AccountType, bool) {
	switch s {
	case "Asset":
		return Asset, true
	case "Liability":
		return Liability, true
	case "Equity":
		return Equity, true
	case "Revenue":
		return Revenue, true
	case "Expense":
		return Expense, true
	default:
		return 0, false
	}
}

// FlowDirection 用户视角的资金流向
// 用户只选一个科目 + 一个方向，借贷分配由映射引擎推导
type FlowDirection string

const (
	MoneyOut FlowDirection = "MoneyOut" // 付钱：费用、采购、各类支出
	MoneyIn  FlowDirection = "MoneyIn"  // 收钱：收入、各类进账
	Transfer FlowDirection = "Transfer" // 转账：科目之间挪钱
)

// IsValid 校验方向合法性
func (d FlowDirection) IsValid() bool {
	return d == MoneyOut || d == MoneyIn || d == Transfer
}
