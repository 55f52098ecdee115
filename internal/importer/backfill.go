package importer

import (
	"strings"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// backfillCategoryRevenue 品类累计收入为 0 时，用同名（忽略大小写）流水的金额合计补齐。
// 只补缺失值，已有数字不覆盖。返回补齐的品类数。
func backfillCategoryRevenue(snap *model.Snapshot) int {
	totals := map[string]float64{}
	for _, t := range snap.Sales {
		totals[strings.ToLower(strings.TrimSpace(t.CategoryName))] += t.Amount
	}

	filled := 0
	for _, c := range snap.Categories {
		if c.Revenue != 0 {
			continue
		}
		if v := totals[strings.ToLower(strings.TrimSpace(c.Name))]; v > 0 {
			c.Revenue = v
			filled++
		}
	}
	return filled
}
