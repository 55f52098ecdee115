package pricing

import (
	"testing"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// assertHierarchy 检查每个分组每个键都满足单调与步长约束
func assertHierarchy(t *testing.T, s *model.PricingStrategy) {
	t.Helper()
	for _, group := range CustomerGroups() {
		tiers := s.TierMultipliers[group]
		if tiers == nil {
			continue
		}
		names := TierNames(group)
		for _, key := range unionKeys(tiers) {
			for i, tier := range names {
				v, ok := tiers[tier][key]
				if !ok {
					t.Errorf("%s/%s/%s missing", group, tier, key)
					continue
				}
				if v < 0 || v > MaxDiscountMultiplier {
					t.Errorf("%s/%s/%s = %v out of [0, 1]", group, tier, key, v)
				}
				if i == 0 {
					continue
				}
				prev := tiers[names[i-1]][key]
				minAllowed := addStep(prev, TierStep)
				if minAllowed > MaxDiscountMultiplier {
					minAllowed = MaxDiscountMultiplier
				}
				if v < minAllowed-1e-9 {
					t.Errorf("%s/%s/%s = %v, below %v", group, tier, key, v, minAllowed)
				}
			}
		}
	}
}

// TestEnforceHierarchy 测试层级校验
func TestEnforceHierarchy(t *testing.T) {
	s := model.NewPricingStrategy()
	s.TierMultipliers["Dealer"] = map[string]model.MultiplierTable{
		"Elite Platinum":  {"FC36": 0.90},
		"Authorized Gold": {"FC36": 0.80},
	}

	out, report := EnforceHierarchy(s)

	// 缺失的等级按 1.0 补齐
	expected := []float64{0.90, 0.92, 1.0, 1.0, 1.0, 1.0}
	for i, tier := range TierNames("Dealer") {
		got := out.TierTable("Dealer", tier)["FC36"]
		if !floatEquals(got, expected[i]) {
			t.Errorf("%s = %v, want %v", tier, got, expected[i])
		}
	}
	assertHierarchy(t, out)

	if len(report.Adjustments) != 5 {
		t.Fatalf("Adjustments = %d, want 5: %+v", len(report.Adjustments), report.Adjustments)
	}
	first := report.Adjustments[0]
	if first.Tier != "Authorized Gold" || !floatEquals(first.From, 0.80) || !floatEquals(first.To, 0.92) || first.Materialized {
		t.Errorf("first adjustment = %+v", first)
	}
	if !report.Adjustments[1].Materialized {
		t.Errorf("missing tier should be materialized: %+v", report.Adjustments[1])
	}

	// 输入不被修改
	if len(s.TierMultipliers["Dealer"]) != 2 || !floatEquals(s.TierTable("Dealer", "Authorized Gold")["FC36"], 0.80) {
		t.Error("input strategy was modified")
	}
}

// TestEnforceHierarchyIdempotent 对输出再次执行不产生变化
func TestEnforceHierarchyIdempotent(t *testing.T) {
	s := model.NewPricingStrategy()
	s.TierMultipliers["Dealer"] = map[string]model.MultiplierTable{
		"Elite Platinum":    {"FC36": 0.83, "Default": 0.7},
		"Authorized Gold":   {"FC36": 0.83},
		"Authorized Silver": {"FC36": 1.4, "HR36": -0.2},
	}
	s.TierMultipliers["Commercial"] = map[string]model.MultiplierTable{
		"Key Account": {"Default": 0.97},
	}

	once, _ := EnforceHierarchy(s)
	assertHierarchy(t, once)

	twice, report := EnforceHierarchy(once)
	if len(report.Adjustments) != 0 {
		t.Errorf("second pass adjusted: %+v", report.Adjustments)
	}
	for _, group := range CustomerGroups() {
		for _, tier := range TierNames(group) {
			for k, v := range once.TierTable(group, tier) {
				if twice.TierTable(group, tier)[k] != v {
					t.Errorf("%s/%s/%s changed %v -> %v", group, tier, k, v, twice.TierTable(group, tier)[k])
				}
			}
		}
	}
}

// TestEnforceHierarchyClamp 超出 [0, 1] 的值被截断
func TestEnforceHierarchyClamp(t *testing.T) {
	s := model.NewPricingStrategy()
	s.TierMultipliers["Commercial"] = map[string]model.MultiplierTable{
		"Key Account":          {"PBR": 1.3},
		"Preferred Commercial": {"PBR": 1.4},
	}
	out, _ := EnforceHierarchy(s)
	for _, tier := range TierNames("Commercial") {
		if got := out.TierTable("Commercial", tier)["PBR"]; !floatEquals(got, 1.0) {
			t.Errorf("%s PBR = %v, want 1.0", tier, got)
		}
	}
}

// TestEnforceHierarchySkipsUnknownGroup 未知分组不做档位排序，但越界值仍被截断
func TestEnforceHierarchySkipsUnknownGroup(t *testing.T) {
	s := model.NewPricingStrategy()
	s.TierMultipliers["Wholesale"] = map[string]model.MultiplierTable{
		"Gold":   {"FC36": 0.5, "PBR": 1.3},
		"Silver": {"FC36": -0.4},
	}
	out, report := EnforceHierarchy(s)
	if len(report.SkippedGroups) != 1 || report.SkippedGroups[0] != "Wholesale" {
		t.Errorf("SkippedGroups = %v", report.SkippedGroups)
	}

	tests := []struct {
		tier, key string
		want      float64
	}{
		{"Gold", "FC36", 0.5},
		{"Gold", "PBR", 1.0},
		{"Silver", "FC36", 0},
	}
	for _, tt := range tests {
		if got := out.TierTable("Wholesale", tt.tier)[tt.key]; !floatEquals(got, tt.want) {
			t.Errorf("Wholesale/%s/%s = %v, want %v", tt.tier, tt.key, got, tt.want)
		}
	}

	if len(report.Adjustments) != 2 {
		t.Fatalf("Adjustments = %+v, want 2", report.Adjustments)
	}
	if a := report.Adjustments[0]; a.Tier != "Gold" || a.CategoryKey != "PBR" || !floatEquals(a.From, 1.3) || !floatEquals(a.To, 1.0) {
		t.Errorf("Adjustments[0] = %+v", a)
	}
	if a := report.Adjustments[1]; a.Tier != "Silver" || a.CategoryKey != "FC36" || !floatEquals(a.From, -0.4) || !floatEquals(a.To, 0) {
		t.Errorf("Adjustments[1] = %+v", a)
	}
	if got := s.TierTable("Wholesale", "Gold")["PBR"]; !floatEquals(got, 1.3) {
		t.Errorf("input modified: Gold/PBR = %v", got)
	}

	again, second := EnforceHierarchy(out)
	if len(second.Adjustments) != 0 {
		t.Errorf("second pass adjustments = %+v", second.Adjustments)
	}
	if got := again.TierTable("Wholesale", "Silver")["FC36"]; !floatEquals(got, 0) {
		t.Errorf("second pass Silver/FC36 = %v", got)
	}
}
