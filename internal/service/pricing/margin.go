package pricing

import "github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"

const defaultMarginFloor = 0.20

// MarginFloor 品类分组在指定等级下的最低毛利率。
// tierIndex 从 0（最高档）开始；Cladding Series 在 0.30 ~ 0.40 之间线性插值。
func MarginFloor(group model.CategoryGroup, tierIndex, tierCount int) float64 {
	switch group {
	case model.GroupLargeRolledPanel, model.GroupSmallRolledPanels:
		return 0.20
	case model.GroupFasteners, model.GroupParts:
		return 0.40
	case model.GroupCladdingSeries:
		if tierCount <= 1 {
			return 0.30
		}
		if tierIndex < 0 {
			tierIndex = 0
		}
		if tierIndex > tierCount-1 {
			tierIndex = tierCount - 1
		}
		return 0.30 + (float64(tierIndex)/float64(tierCount-1))*0.10
	default:
		return defaultMarginFloor
	}
}
