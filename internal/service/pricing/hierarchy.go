package pricing

import (
	"math"
	"sort"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// EnforcementReport 层级校验报告
type EnforcementReport struct {
	Adjustments   []TierAdjustment `json:"adjustments"`
	SkippedGroups []string         `json:"skippedGroups"`
}

// EnforceHierarchy 保证每个分组内，同一品类键的折扣系数从最高档到最低档单调不减，
// 相邻两档至少相差 TierStep，且全部落在 [0, 1]。缺失条目按 1.0 补齐。
// 没有档位顺序的分组记入 SkippedGroups，其值仍截断到 [0, 1]。
// 返回新策略，输入不被修改；对输出再次执行不会产生任何变化。
func EnforceHierarchy(s *model.PricingStrategy) (*model.PricingStrategy, EnforcementReport) {
	out := s.Clone()
	report := EnforcementReport{
		Adjustments:   []TierAdjustment{},
		SkippedGroups: []string{},
	}

	groups := make([]string, 0, len(out.TierMultipliers))
	for g := range out.TierMultipliers {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		tierNames := TierNames(group)
		if len(tierNames) == 0 {
			report.SkippedGroups = append(report.SkippedGroups, group)
			report.Adjustments = append(report.Adjustments, clampGroup(group, out.TierMultipliers[group])...)
			continue
		}
		tiers := out.TierMultipliers[group]
		for _, key := range unionKeys(tiers) {
			report.Adjustments = append(report.Adjustments, enforceKey(group, tiers, tierNames, key)...)
		}
	}
	return out, report
}

func enforceKey(group string, tiers map[string]model.MultiplierTable, tierNames []string, key string) []TierAdjustment {
	var adjustments []TierAdjustment
	prev := 0.0
	for i, tier := range tierNames {
		table, ok := tiers[tier]
		if !ok {
			table = model.MultiplierTable{}
			tiers[tier] = table
		}
		v, present := table[key]
		if !present || math.IsNaN(v) || math.IsInf(v, 0) {
			present = false
			v = MaxDiscountMultiplier
		}

		next := v
		if i > 0 {
			minAllowed := math.Min(addStep(prev, TierStep), MaxDiscountMultiplier)
			if next < minAllowed {
				next = minAllowed
			}
		}
		next = clamp(next, 0, MaxDiscountMultiplier)

		if !present || next != v {
			adjustments = append(adjustments, TierAdjustment{
				CustomerGroup: group,
				Tier:          tier,
				CategoryKey:   key,
				From:          v,
				To:            next,
				Materialized:  !present,
			})
		}
		table[key] = next
		prev = next
	}
	return adjustments
}

// clampGroup 无档位顺序的分组只做 [0, 1] 截断，非有限值按 1.0 处理
func clampGroup(group string, tiers map[string]model.MultiplierTable) []TierAdjustment {
	var adjustments []TierAdjustment
	tierNames := make([]string, 0, len(tiers))
	for tier := range tiers {
		tierNames = append(tierNames, tier)
	}
	sort.Strings(tierNames)
	for _, tier := range tierNames {
		table := tiers[tier]
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			v := table[key]
			next := v
			if math.IsNaN(v) || math.IsInf(v, 0) {
				next = MaxDiscountMultiplier
			}
			next = clamp(next, 0, MaxDiscountMultiplier)
			if next == v {
				continue
			}
			adjustments = append(adjustments, TierAdjustment{
				CustomerGroup: group,
				Tier:          tier,
				CategoryKey:   key,
				From:          v,
				To:            next,
			})
			table[key] = next
		}
	}
	return adjustments
}

func unionKeys(tiers map[string]model.MultiplierTable) []string {
	seen := map[string]bool{}
	for _, table := range tiers {
		for k := range table {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
