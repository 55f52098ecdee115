package model

import "time"

// CategoryGroup 品类分组（决定毛利底线与校准策略）
type CategoryGroup string

const (
	GroupLargeRolledPanel  CategoryGroup = "Large Rolled Panel"
	GroupSmallRolledPanels CategoryGroup = "Small Rolled Panels"
	GroupCladdingSeries    CategoryGroup = "Cladding Series"
	GroupFasteners         CategoryGroup = "Fasteners"
	GroupParts             CategoryGroup = "Parts"
)

// Category 产品品类
type Category struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Revenue      float64  `json:"revenue"`      // 品类累计收入
	MaterialCost float64  `json:"materialCost"` // 材料成本
	LaborPercent *float64 `json:"laborPercent,omitempty"`
	LaborCost    *float64 `json:"laborCost,omitempty"`
}

// TotalLaborCost 人工成本：显式金额优先，其次按材料成本百分比折算
func (c *Category) TotalLaborCost() float64 {
	if c.LaborCost != nil {
		return *c.LaborCost
	}
	if c.LaborPercent != nil {
		return c.MaterialCost * *c.LaborPercent
	}
	return 0
}

// CostBasis 成本基数 = 材料 + 人工
func (c *Category) CostBasis() float64 {
	return c.MaterialCost + c.TotalLaborCost()
}

// Customer 客户
type Customer struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Group       string  `json:"group"` // Dealer / Commercial / 其他
	Territory   string  `json:"territory"`
	AnnualSpend float64 `json:"annualSpend"` // 人工维护的年度采购目标
}

// SalesTransaction 销售流水（客户名、品类名均为快照文本，不是外键）
type SalesTransaction struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	CategoryName string    `json:"categoryName"`
	Amount       float64   `json:"amount"`
	COGS         float64   `json:"cogs"`
	Date         time.Time `json:"date"`
}

// CustomerAlias 流水中的客户名别名 -> 标准客户名
type CustomerAlias struct {
	Alias        string `json:"alias"`
	CustomerName string `json:"customerName"`
}

// AliasTable 别名表
type AliasTable map[string]string

// NewAliasTable 由别名记录构建别名表，后出现的记录覆盖先出现的
func NewAliasTable(aliases []CustomerAlias) AliasTable {
	t := make(AliasTable, len(aliases))
	for _, a := range aliases {
		t[a.Alias] = a.CustomerName
	}
	return t
}

// Snapshot 一次计算所用的完整数据快照
type Snapshot struct {
	Customers  []*Customer         `json:"customers"`
	Categories []*Category         `json:"categories"`
	Sales      []*SalesTransaction `json:"sales"`
	Aliases    []CustomerAlias     `json:"aliases"`
}

// MultiplierTable 品类键 -> 系数
type MultiplierTable map[string]float64

// PricingStrategy 定价策略文档，结构即与持久层、报表之间的线上契约
type PricingStrategy struct {
	ListMultipliers MultiplierTable                       `json:"listMultipliers"`
	TierMultipliers map[string]map[string]MultiplierTable `json:"tierMultipliers"`
}

// NewPricingStrategy 创建空策略
func NewPricingStrategy() *PricingStrategy {
	return &PricingStrategy{
		ListMultipliers: MultiplierTable{},
		TierMultipliers: map[string]map[string]MultiplierTable{},
	}
}

// Clone 深拷贝
func (s *PricingStrategy) Clone() *PricingStrategy {
	out := NewPricingStrategy()
	if s == nil {
		return out
	}
	for k, v := range s.ListMultipliers {
		out.ListMultipliers[k] = v
	}
	for group, tiers := range s.TierMultipliers {
		tiersCopy := make(map[string]MultiplierTable, len(tiers))
		for tier, table := range tiers {
			tableCopy := make(MultiplierTable, len(table))
			for k, v := range table {
				tableCopy[k] = v
			}
			tiersCopy[tier] = tableCopy
		}
		out.TierMultipliers[group] = tiersCopy
	}
	return out
}

// TierTable 返回 group/tier 下的折扣表，不存在时返回 nil
func (s *PricingStrategy) TierTable(group, tier string) MultiplierTable {
	if s == nil || s.TierMultipliers == nil {
		return nil
	}
	tiers, ok := s.TierMultipliers[group]
	if !ok {
		return nil
	}
	return tiers[tier]
}
