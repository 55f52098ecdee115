package pricing

import (
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// PreviewReferenceCost 品类没有成本数据时，预览使用的参考成本
const PreviewReferenceCost = 100.0

// PreviewTier 预览表中的一个等级
type PreviewTier struct {
	CustomerGroup      string  `json:"customerGroup"`
	Tier               string  `json:"tier"`
	DiscountMultiplier float64 `json:"discountMultiplier"`
	NetPrice           float64 `json:"netPrice"`
	Margin             float64 `json:"margin"`
	MarginFloor        float64 `json:"marginFloor"`
	BelowFloor         bool    `json:"belowFloor"`
}

// PreviewRow 预览表中的一个品类
type PreviewRow struct {
	Category       string        `json:"category"`
	CategoryGroup  string        `json:"categoryGroup"`
	Cost           float64       `json:"cost"`
	ListMultiplier float64       `json:"listMultiplier"`
	ListPrice      float64       `json:"listPrice"`
	Tiers          []PreviewTier `json:"tiers"`
}

// PricingPreview 定价表预览：每个品类在每个分组、每个等级下的目录价/净价/毛利。
// costOverride > 0 时所有品类使用同一成本。
func PricingPreview(strategy *model.PricingStrategy, categories []*model.Category, costOverride float64) []PreviewRow {
	rows := make([]PreviewRow, 0, len(categories))
	for _, c := range categories {
		if c == nil {
			continue
		}
		cost := costOverride
		if cost <= 0 {
			cost = c.CostBasis()
		}
		if cost <= 0 {
			cost = PreviewReferenceCost
		}

		row := PreviewRow{
			Category:      c.Name,
			CategoryGroup: string(Classify(c.Name)),
			Cost:          cost,
			Tiers:         []PreviewTier{},
		}
		for _, group := range CustomerGroups() {
			for _, tier := range TierNames(group) {
				q := BuildQuote(strategy, cost, c.Name, group, tier)
				row.ListMultiplier = q.ListMultiplier.Value
				row.ListPrice = q.ListPrice
				row.Tiers = append(row.Tiers, PreviewTier{
					CustomerGroup:      group,
					Tier:               tier,
					DiscountMultiplier: q.DiscountMultiplier.Value,
					NetPrice:           q.NetPrice,
					Margin:             q.Margin,
					MarginFloor:        q.MarginFloor,
					BelowFloor:         q.Margin < q.MarginFloor,
				})
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// MarginAlert 低于毛利底线的 (分组, 等级, 品类)
type MarginAlert struct {
	CustomerGroup      string  `json:"customerGroup"`
	Tier               string  `json:"tier"`
	Category           string  `json:"category"`
	CategoryGroup      string  `json:"categoryGroup"`
	ListMultiplier     float64 `json:"listMultiplier"`
	DiscountMultiplier float64 `json:"discountMultiplier"`
	Margin             float64 `json:"margin"`
	MarginFloor        float64 `json:"marginFloor"`
	Shortfall          float64 `json:"shortfall"`
}

// MarginAlerts 隐含毛利 = margin(加价 × 折扣, 1)，低于底线即告警
func MarginAlerts(strategy *model.PricingStrategy, categories []*model.Category) []MarginAlert {
	alerts := []MarginAlert{}
	for _, row := range PricingPreview(strategy, categories, 1) {
		for _, t := range row.Tiers {
			if !t.BelowFloor {
				continue
			}
			alerts = append(alerts, MarginAlert{
				CustomerGroup:      t.CustomerGroup,
				Tier:               t.Tier,
				Category:           row.Category,
				CategoryGroup:      row.CategoryGroup,
				ListMultiplier:     row.ListMultiplier,
				DiscountMultiplier: t.DiscountMultiplier,
				Margin:             t.Margin,
				MarginFloor:        t.MarginFloor,
				Shortfall:          t.MarginFloor - t.Margin,
			})
		}
	}
	return alerts
}
