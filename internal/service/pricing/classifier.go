package pricing

import (
	"strings"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// 三组显式品类名单，顺序即匹配顺序；不在名单中的品类一律归为 Parts
var categoryGroupLists = []struct {
	group model.CategoryGroup
	names []string
}{
	{model.GroupLargeRolledPanel, []string{"FC36", "PBR", "R-Panel", "Tuff Rib", "Max Rib"}},
	{model.GroupSmallRolledPanels, []string{"Snap Lock", "Mech Lock", "Standing Seam", "Board & Batten"}},
	{model.GroupCladdingSeries, []string{"HR36", "Shadow Rib", "Vertical Cladding", "Corrugated"}},
}

// Classify 品类名 -> 品类分组。全函数，默认 Parts。
// 变体键（"FC36:29"）按基础品类归类。
func Classify(categoryName string) model.CategoryGroup {
	name := normalizeName(ParseCategoryKey(categoryName).Category)
	if name == "" {
		return model.GroupParts
	}
	for _, list := range categoryGroupLists {
		for _, n := range list.names {
			if normalizeName(n) == name {
				return list.group
			}
		}
	}
	return model.GroupParts
}

// IsRolledGroup 是否为卷板类分组（大/小卷板）
func IsRolledGroup(group model.CategoryGroup) bool {
	return group == model.GroupLargeRolledPanel || group == model.GroupSmallRolledPanels
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
