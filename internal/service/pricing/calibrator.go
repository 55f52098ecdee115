package pricing

import (
	"math"
	"strings"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// DefaultBaseline 没有历史数据时最高档的默认折扣系数
const DefaultBaseline = 0.70

// CalibrationInput 一次校准所需的完整快照
type CalibrationInput struct {
	Strategy     *model.PricingStrategy
	Transactions []*model.SalesTransaction
	Customers    []*model.Customer
	Aliases      model.AliasTable
	Categories   []*model.Category
}

// CalibrationResult 校准结果：新策略 + 中间聚合 + 诊断
type CalibrationResult struct {
	Strategy    *model.PricingStrategy `json:"strategy"`
	Aggregates  []AggregateRow         `json:"aggregates"`
	Diagnostics *Diagnostics           `json:"diagnostics"`
}

// Calibrate 聚合 -> 生成折扣矩阵 -> 层级校验。每一步都返回新值，输入策略不被修改。
func Calibrate(in CalibrationInput) *CalibrationResult {
	agg, diag := Aggregate(in.Transactions, in.Customers, in.Aliases)
	matrix := CalibrateMatrix(in.Strategy, agg, in.Categories, diag)
	enforced, report := EnforceHierarchy(matrix)
	diag.TierAdjustments = append(diag.TierAdjustments, report.Adjustments...)
	diag.SkippedGroups = append(diag.SkippedGroups, report.SkippedGroups...)
	return &CalibrationResult{
		Strategy:    enforced,
		Aggregates:  agg.Rows(),
		Diagnostics: diag,
	}
}

// CalibrateMatrix 按 (客户分组, 品类) 逐对生成各等级折扣系数（未做层级校验）。
// diag 可为 nil。
func CalibrateMatrix(strategy *model.PricingStrategy, agg *Aggregates, categories []*model.Category, diag *Diagnostics) *model.PricingStrategy {
	out := strategy.Clone()
	for _, category := range categories {
		if category == nil || strings.TrimSpace(category.Name) == "" {
			continue
		}
		key := ParseCategoryKey(category.Name)
		categoryGroup := Classify(category.Name)
		listMultiplier := ResolveListMultiplier(key, out.ListMultipliers).Value

		for _, customerGroup := range CustomerGroups() {
			tierNames := TierNames(customerGroup)
			if len(tierNames) == 0 {
				continue
			}

			baseline, found := historicalBaseline(agg, customerGroup, tierNames, category.Name, listMultiplier)
			if !found && diag != nil {
				diag.MissingBaselines = append(diag.MissingBaselines, MissingBaseline{
					CustomerGroup: customerGroup,
					Category:      category.Name,
				})
			}

			floorMultiplier := marginFloorMultiplier(listMultiplier, MarginFloor(categoryGroup, 0, len(tierNames)))
			if baseline < floorMultiplier {
				if diag != nil {
					diag.FloorRaises = append(diag.FloorRaises, FloorRaise{
						CustomerGroup: customerGroup,
						Category:      category.Name,
						Baseline:      baseline,
						Floor:         floorMultiplier,
					})
				}
				baseline = floorMultiplier
			}
			baseline = math.Min(baseline, MaxDiscountMultiplier)

			ladder := DiscountLadder(baseline, len(tierNames), IsRolledGroup(categoryGroup))
			tiers, ok := out.TierMultipliers[customerGroup]
			if !ok {
				tiers = make(map[string]model.MultiplierTable)
				out.TierMultipliers[customerGroup] = tiers
			}
			for i, tier := range tierNames {
				table, ok := tiers[tier]
				if !ok {
					table = model.MultiplierTable{}
					tiers[tier] = table
				}
				table[key.String()] = clamp(Round2(ladder[i]), 0, MaxCalibratedMultiplier)
			}
		}
	}
	return out
}

// DiscountLadder 由最高档基准生成逐档折扣系数。
// 卷板类前两档同为基准，其后每档加 TierStep；其他品类从第二档起每档加 TierStep。
func DiscountLadder(baseline float64, tierCount int, rolled bool) []float64 {
	ladder := make([]float64, tierCount)
	for i := range ladder {
		switch {
		case i == 0:
			ladder[i] = baseline
		case i == 1 && rolled:
			ladder[i] = baseline
		default:
			steps := i
			if rolled {
				steps = i - 1
			}
			ladder[i] = math.Min(baseline+float64(steps)*TierStep, MaxDiscountMultiplier)
		}
	}
	return ladder
}

// historicalBaseline 最高档（其次第二档）的实现加价率 / 目录加价系数
func historicalBaseline(agg *Aggregates, customerGroup string, tierNames []string, category string, listMultiplier float64) (float64, bool) {
	if listMultiplier <= 0 {
		return DefaultBaseline, false
	}
	for i := 0; i < len(tierNames) && i < 2; i++ {
		b, ok := agg.Get(customerGroup, tierNames[i], category)
		if ok && b.COGS > 0 {
			return (b.Revenue / b.COGS) / listMultiplier, true
		}
	}
	return DefaultBaseline, false
}

// marginFloorMultiplier 满足毛利底线所需的最低折扣系数
func marginFloorMultiplier(listMultiplier, floor float64) float64 {
	denom := listMultiplier * (1 - floor)
	if denom <= 0 {
		return 0
	}
	return 1 / denom
}
