package pricing

import "strings"

const (
	GroupDealer     = "Dealer"
	GroupCommercial = "Commercial"

	// TierUnknown 客户分组无法识别
	TierUnknown = "Unknown"
	// TierUnassigned 分组可识别但没有任何门槛命中
	TierUnassigned = "Unassigned"
)

// TierRule 等级门槛
type TierRule struct {
	Name     string  `json:"name"`
	MinSpend float64 `json:"minSpend"`
}

// 各客户分组的等级表，必须按 MinSpend 降序排列，且最后一档 MinSpend = 0
var tierTables = map[string][]TierRule{
	GroupDealer: {
		{Name: "Elite Platinum", MinSpend: 1000000},
		{Name: "Authorized Gold", MinSpend: 500000},
		{Name: "Authorized Silver", MinSpend: 250000},
		{Name: "Authorized Bronze", MinSpend: 100000},
		{Name: "Registered Dealer", MinSpend: 25000},
		{Name: "Standard Dealer", MinSpend: 0},
	},
	GroupCommercial: {
		{Name: "Key Account", MinSpend: 750000},
		{Name: "Preferred Commercial", MinSpend: 250000},
		{Name: "Established Commercial", MinSpend: 50000},
		{Name: "Standard Commercial", MinSpend: 0},
	},
}

// customerGroupOrder 固定的分组遍历顺序
var customerGroupOrder = []string{GroupDealer, GroupCommercial}

// CustomerGroups 已知客户分组（固定顺序）
func CustomerGroups() []string {
	out := make([]string, len(customerGroupOrder))
	copy(out, customerGroupOrder)
	return out
}

// NormalizeGroup 去空格、忽略大小写匹配已知分组
func NormalizeGroup(group string) (string, bool) {
	g := strings.TrimSpace(group)
	for _, known := range customerGroupOrder {
		if strings.EqualFold(g, known) {
			return known, true
		}
	}
	return "", false
}

// TierRules 返回分组的等级表副本（从高到低）
func TierRules(group string) []TierRule {
	g, ok := NormalizeGroup(group)
	if !ok {
		return nil
	}
	rules := tierTables[g]
	out := make([]TierRule, len(rules))
	copy(out, rules)
	return out
}

// TierNames 分组下的等级名（从高到低）
func TierNames(group string) []string {
	rules := TierRules(group)
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

// TierIndex 等级在分组内的序号，0 为最高档；找不到返回 -1
func TierIndex(group, tier string) int {
	for i, name := range TierNames(group) {
		if name == tier {
			return i
		}
	}
	return -1
}

// ResolveTier 客户分组 + 年度采购额 -> 等级名
func ResolveTier(customerGroup string, annualSpend float64) string {
	g, ok := NormalizeGroup(customerGroup)
	if !ok {
		return TierUnknown
	}
	for _, rule := range tierTables[g] {
		if rule.MinSpend <= annualSpend {
			return rule.Name
		}
	}
	return TierUnassigned
}
