package pricing

import (
	"math"
	"sort"
	"strings"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

const (
	// FallbackListMultiplier 加价系数找不到任何条目时的兜底值
	FallbackListMultiplier = 1.5
	// FallbackDiscountMultiplier 折扣系数找不到任何条目时的兜底值
	FallbackDiscountMultiplier = 1.0
)

// Resolution 系数解析结果（用于报表展示命中的键）
type Resolution struct {
	Value    float64 `json:"value"`
	Key      string  `json:"key"`      // 命中的键，兜底常量时为空
	Fallback bool    `json:"fallback"` // 是否使用了兜底常量
}

// ResolveListMultiplier 按回退链解析加价系数，永不失败
func ResolveListMultiplier(key CategoryKey, list model.MultiplierTable) Resolution {
	for _, candidate := range key.ListCandidates() {
		if v, ok := lookupFinite(list, candidate); ok {
			return Resolution{Value: v, Key: candidate}
		}
	}
	return Resolution{Value: FallbackListMultiplier, Fallback: true}
}

// ResolveDiscountMultiplier 按回退链解析等级折扣系数，永不失败
func ResolveDiscountMultiplier(strategy *model.PricingStrategy, customerGroup, tierName string, key CategoryKey) Resolution {
	table := lookupTierTable(strategy, customerGroup, tierName)
	for _, candidate := range key.DiscountCandidates() {
		if v, ok := lookupFinite(table, candidate); ok {
			return Resolution{Value: v, Key: candidate}
		}
	}
	return Resolution{Value: FallbackDiscountMultiplier, Fallback: true}
}

// lookupTierTable 先精确匹配分组与档位，再忽略大小写匹配
func lookupTierTable(strategy *model.PricingStrategy, customerGroup, tierName string) model.MultiplierTable {
	if table := strategy.TierTable(customerGroup, tierName); table != nil {
		return table
	}
	if g, ok := NormalizeGroup(customerGroup); ok {
		if table := strategy.TierTable(g, tierName); table != nil {
			return table
		}
	}
	if strategy == nil {
		return nil
	}
	group := strings.TrimSpace(customerGroup)
	tier := strings.TrimSpace(tierName)
	for _, g := range sortedKeys(strategy.TierMultipliers) {
		if !strings.EqualFold(g, group) {
			continue
		}
		tiers := strategy.TierMultipliers[g]
		if table, ok := tiers[tierName]; ok {
			return table
		}
		for _, t := range sortedKeys(tiers) {
			if strings.EqualFold(t, tier) {
				return tiers[t]
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListPrice 成本 × 加价系数
func ListPrice(cost float64, categoryKey string, list model.MultiplierTable) float64 {
	m := ResolveListMultiplier(ParseCategoryKey(categoryKey), list)
	return sanitize(cost) * m.Value
}

// NetPrice 目录价 × 等级折扣系数
func NetPrice(listPrice float64, customerGroup, tierName, categoryKey string, strategy *model.PricingStrategy) float64 {
	m := ResolveDiscountMultiplier(strategy, customerGroup, tierName, ParseCategoryKey(categoryKey))
	return sanitize(listPrice) * m.Value
}

// Margin 毛利率；价格为 0 时按定义返回 0
func Margin(price, cost float64) float64 {
	price = sanitize(price)
	if price == 0 {
		return 0
	}
	return (price - sanitize(cost)) / price
}

// Quote 单品报价明细
type Quote struct {
	Cost               float64    `json:"cost"`
	CategoryKey        string     `json:"categoryKey"`
	CategoryGroup      string     `json:"categoryGroup"`
	CustomerGroup      string     `json:"customerGroup"`
	Tier               string     `json:"tier"`
	ListMultiplier     Resolution `json:"listMultiplier"`
	DiscountMultiplier Resolution `json:"discountMultiplier"`
	ListPrice          float64    `json:"listPrice"`
	NetPrice           float64    `json:"netPrice"`
	Margin             float64    `json:"margin"`
	MarginFloor        float64    `json:"marginFloor"`
}

// BuildQuote 计算单品在某客户等级下的完整报价
func BuildQuote(strategy *model.PricingStrategy, cost float64, categoryKey, customerGroup, tierName string) Quote {
	key := ParseCategoryKey(categoryKey)
	group := Classify(key.Category)
	if key.IsFastener() {
		group = model.GroupFasteners
	}

	var list model.MultiplierTable
	if strategy != nil {
		list = strategy.ListMultipliers
	}
	lm := ResolveListMultiplier(key, list)
	dm := ResolveDiscountMultiplier(strategy, customerGroup, tierName, key)

	cost = sanitize(cost)
	listPrice := cost * lm.Value
	netPrice := listPrice * dm.Value

	tierCount := len(TierNames(customerGroup))
	return Quote{
		Cost:               cost,
		CategoryKey:        key.String(),
		CategoryGroup:      string(group),
		CustomerGroup:      customerGroup,
		Tier:               tierName,
		ListMultiplier:     lm,
		DiscountMultiplier: dm,
		ListPrice:          listPrice,
		NetPrice:           netPrice,
		Margin:             Margin(netPrice, cost),
		MarginFloor:        MarginFloor(group, TierIndex(customerGroup, tierName), tierCount),
	}
}

func lookupFinite(table model.MultiplierTable, key string) (float64, bool) {
	if table == nil {
		return 0, false
	}
	v, ok := table[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// sanitize NaN/Inf 一律按 0 处理，避免向下游传播
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
