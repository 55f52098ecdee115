package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

const (
	// TierStep 相邻等级之间的最小折扣系数差
	TierStep = 0.02
	// MaxDiscountMultiplier 折扣系数上限（不高于目录价）
	MaxDiscountMultiplier = 1.0
	// MaxCalibratedMultiplier 校准输出写入前的硬上限
	MaxCalibratedMultiplier = 1.5
)

// 种子策略的加价系数
var seedListMultipliers = model.MultiplierTable{
	KeyDefault:   1.5,
	KeyFasteners: 1.8,
}

// 各分组最高档的种子折扣系数
var seedTopDiscount = map[string]float64{
	GroupDealer:     0.70,
	GroupCommercial: 0.80,
}

// DefaultStrategy 首次使用时的种子策略：
// 每个分组每个等级只有一个 Default 条目，从最高档开始逐档加 TierStep
func DefaultStrategy() *model.PricingStrategy {
	s := model.NewPricingStrategy()
	for k, v := range seedListMultipliers {
		s.ListMultipliers[k] = v
	}
	for _, group := range CustomerGroups() {
		tiers := make(map[string]model.MultiplierTable)
		top := seedTopDiscount[group]
		for i, tier := range TierNames(group) {
			v := math.Min(top+float64(i)*TierStep, MaxDiscountMultiplier)
			tiers[tier] = model.MultiplierTable{KeyDefault: Round2(v)}
		}
		s.TierMultipliers[group] = tiers
	}
	return s
}

// WithListMultiplier 返回设置了某个加价系数的新策略
func WithListMultiplier(s *model.PricingStrategy, categoryKey string, value float64) *model.PricingStrategy {
	out := s.Clone()
	out.ListMultipliers[ParseCategoryKey(categoryKey).String()] = value
	return out
}

// WithTierMultiplier 返回设置了某个等级折扣系数的新策略（不做层级校验）
func WithTierMultiplier(s *model.PricingStrategy, customerGroup, tierName, categoryKey string, value float64) *model.PricingStrategy {
	out := s.Clone()
	group := strings.TrimSpace(customerGroup)
	if g, ok := NormalizeGroup(group); ok {
		group = g
	}
	tiers, ok := out.TierMultipliers[group]
	if !ok {
		tiers = make(map[string]model.MultiplierTable)
		out.TierMultipliers[group] = tiers
	}
	table, ok := tiers[tierName]
	if !ok {
		table = model.MultiplierTable{}
		tiers[tierName] = table
	}
	table[ParseCategoryKey(categoryKey).String()] = value
	return out
}

// ParseMultiplier 把任意输入强制转换为系数。
// 无法解析、NaN、Inf 时返回 1.0 与 false。
func ParseMultiplier(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return FallbackDiscountMultiplier, false
		}
		f = parsed
	default:
		return FallbackDiscountMultiplier, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return FallbackDiscountMultiplier, false
	}
	return f, true
}

// Round2 四舍五入到两位小数
func Round2(v float64) float64 {
	return decimal.NewFromFloat(sanitize(v)).Round(2).InexactFloat64()
}

// addStep prev + step，按十进制精确相加，避免 0.83+0.02 之类的浮点噪声
func addStep(prev, step float64) float64 {
	return decimal.NewFromFloat(prev).Add(decimal.NewFromFloat(step)).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
