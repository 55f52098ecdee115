package pricing

import (
	"testing"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// TestClassify 测试品类分组
func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		expected model.CategoryGroup
	}{
		{"FC36", model.GroupLargeRolledPanel},
		{"fc36", model.GroupLargeRolledPanel},
		{"  R-Panel ", model.GroupLargeRolledPanel},
		{"FC36:29", model.GroupLargeRolledPanel},
		{"Snap Lock", model.GroupSmallRolledPanels},
		{"Board & Batten", model.GroupSmallRolledPanels},
		{"HR36", model.GroupCladdingSeries},
		{"corrugated", model.GroupCladdingSeries},
		{"Sealant Tape", model.GroupParts},
		{"Pancake", model.GroupParts},
		{"", model.GroupParts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.expected {
				t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

// TestMarginFloor 测试毛利底线
func TestMarginFloor(t *testing.T) {
	tests := []struct {
		name     string
		group    model.CategoryGroup
		index    int
		count    int
		expected float64
	}{
		{"大卷板", model.GroupLargeRolledPanel, 3, 6, 0.20},
		{"小卷板", model.GroupSmallRolledPanels, 0, 6, 0.20},
		{"紧固件", model.GroupFasteners, 2, 6, 0.40},
		{"配件", model.GroupParts, 0, 4, 0.40},
		{"挂板最高档", model.GroupCladdingSeries, 0, 6, 0.30},
		{"挂板最低档", model.GroupCladdingSeries, 5, 6, 0.40},
		{"挂板中间档", model.GroupCladdingSeries, 2, 6, 0.34},
		{"挂板单档", model.GroupCladdingSeries, 0, 1, 0.30},
		{"挂板序号越界", model.GroupCladdingSeries, 9, 6, 0.40},
		{"挂板未知等级", model.GroupCladdingSeries, -1, 6, 0.30},
		{"未知分组", model.CategoryGroup("Other"), 0, 6, 0.20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MarginFloor(tt.group, tt.index, tt.count)
			if !floatEquals(result, tt.expected) {
				t.Errorf("MarginFloor(%q, %d, %d) = %v, want %v", tt.group, tt.index, tt.count, result, tt.expected)
			}
		})
	}
}
