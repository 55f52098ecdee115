package pricing

import (
	"sort"
	"strings"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// CategoryHistory 客户键 -> 品类 -> 历史收入
type CategoryHistory map[string]map[string]float64

// CustomerImpact 单个客户的收入影响
type CustomerImpact struct {
	CustomerID       string  `json:"customerId"`
	CustomerName     string  `json:"customerName"`
	CustomerGroup    string  `json:"customerGroup"`
	Tier             string  `json:"tier"`
	CurrentSpend     float64 `json:"currentSpend"`
	ProjectedRevenue float64 `json:"projectedRevenue"`
	Delta            float64 `json:"delta"`
	DeltaPercent     float64 `json:"deltaPercent"`
	MixSource        string  `json:"mixSource"` // history / global / none
}

// GroupImpact 客户分组汇总
type GroupImpact struct {
	CustomerGroup    string  `json:"customerGroup"`
	Customers        int     `json:"customers"`
	CurrentSpend     float64 `json:"currentSpend"`
	ProjectedRevenue float64 `json:"projectedRevenue"`
	Delta            float64 `json:"delta"`
}

// ImpactReport 策略收入影响报告
type ImpactReport struct {
	Customers        []CustomerImpact `json:"customers"` // Delta 升序：损失最大的在前
	Groups           []GroupImpact    `json:"groups"`
	CurrentSpend     float64          `json:"currentSpend"`
	ProjectedRevenue float64          `json:"projectedRevenue"`
	Delta            float64          `json:"delta"`
}

const (
	mixSourceHistory = "history"
	mixSourceGlobal  = "global"
	mixSourceNone    = "none"
)

func customerKey(c *model.Customer) string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}

// CustomerCategoryHistory 用与聚合相同的名称匹配规则，统计每个客户的品类收入
func CustomerCategoryHistory(transactions []*model.SalesTransaction, customers []*model.Customer, aliases model.AliasTable) CategoryHistory {
	matcher := NewNameMatcher(customers, aliases)
	history := CategoryHistory{}
	for _, tx := range transactions {
		if tx == nil {
			continue
		}
		c, _ := matcher.Match(tx.CustomerName)
		if c == nil {
			continue
		}
		k := customerKey(c)
		if history[k] == nil {
			history[k] = map[string]float64{}
		}
		history[k][strings.TrimSpace(tx.CategoryName)] += sanitize(tx.Amount)
	}
	return history
}

// CategoryRevenueMix 按品类累计收入计算的全局占比
func CategoryRevenueMix(categories []*model.Category) map[string]float64 {
	mix := map[string]float64{}
	for _, c := range categories {
		if c == nil || c.Revenue <= 0 {
			continue
		}
		mix[c.Name] += c.Revenue
	}
	return normalizeShares(mix)
}

// AnalyzeImpact 估算策略下每个客户的收入：
// 按客户自身历史品类占比（没有则用全局占比）拆分当前采购额，
// 每一份乘以 加价系数 × 等级折扣系数 后求和。
func AnalyzeImpact(customers []*model.Customer, strategy *model.PricingStrategy, mix map[string]float64, history CategoryHistory) ImpactReport {
	globalShares := normalizeShares(mix)
	var list model.MultiplierTable
	if strategy != nil {
		list = strategy.ListMultipliers
	}

	report := ImpactReport{Customers: []CustomerImpact{}, Groups: []GroupImpact{}}
	groupTotals := map[string]*GroupImpact{}

	for _, c := range customers {
		if c == nil {
			continue
		}
		tier := ResolveTier(c.Group, c.AnnualSpend)
		group := strings.TrimSpace(c.Group)
		if g, ok := NormalizeGroup(group); ok {
			group = g
		}
		spend := sanitize(c.AnnualSpend)

		shares, source := globalShares, mixSourceGlobal
		if own := normalizeShares(history[customerKey(c)]); len(own) > 0 {
			shares, source = own, mixSourceHistory
		}

		projected := spend
		if len(shares) == 0 {
			source = mixSourceNone
		} else {
			projected = 0
			for category, share := range shares {
				key := ParseCategoryKey(category)
				factor := ResolveListMultiplier(key, list).Value *
					ResolveDiscountMultiplier(strategy, group, tier, key).Value
				projected += spend * share * factor
			}
		}

		delta := projected - spend
		deltaPercent := 0.0
		if spend != 0 {
			deltaPercent = delta / spend
		}
		report.Customers = append(report.Customers, CustomerImpact{
			CustomerID:       c.ID,
			CustomerName:     c.Name,
			CustomerGroup:    group,
			Tier:             tier,
			CurrentSpend:     spend,
			ProjectedRevenue: projected,
			Delta:            delta,
			DeltaPercent:     deltaPercent,
			MixSource:        source,
		})

		gt, ok := groupTotals[group]
		if !ok {
			gt = &GroupImpact{CustomerGroup: group}
			groupTotals[group] = gt
		}
		gt.Customers++
		gt.CurrentSpend += spend
		gt.ProjectedRevenue += projected
		gt.Delta += delta

		report.CurrentSpend += spend
		report.ProjectedRevenue += projected
		report.Delta += delta
	}

	sort.SliceStable(report.Customers, func(i, j int) bool {
		return report.Customers[i].Delta < report.Customers[j].Delta
	})

	for _, g := range orderedGroups(groupTotals) {
		report.Groups = append(report.Groups, *groupTotals[g])
	}
	return report
}

// orderedGroups 已知分组在前（固定顺序），其余按名称排序
func orderedGroups(totals map[string]*GroupImpact) []string {
	var out []string
	seen := map[string]bool{}
	for _, g := range CustomerGroups() {
		if _, ok := totals[g]; ok {
			out = append(out, g)
			seen[g] = true
		}
	}
	var rest []string
	for g := range totals {
		if !seen[g] {
			rest = append(rest, g)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func normalizeShares(weights map[string]float64) map[string]float64 {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += sanitize(w)
		}
	}
	if total <= 0 {
		return nil
	}
	out := make(map[string]float64, len(weights))
	for k, w := range weights {
		if w > 0 {
			out[k] = sanitize(w) / total
		}
	}
	return out
}
