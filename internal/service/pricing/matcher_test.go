package pricing

import (
	"testing"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// TestCleanCompanyName 测试公司名清洗
func TestCleanCompanyName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Acme Roofing, Inc.", "acme roofing"},
		{"Acme Co., Inc.", "acme"},
		{"Inc", "inc"},
		{"Incline Metals LLC", "incline metals"},
		{"Co-op Supply", "co-op supply"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CleanCompanyName(tt.input); got != tt.expected {
				t.Errorf("CleanCompanyName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestNameMatcher 测试客户名匹配
func TestNameMatcher(t *testing.T) {
	customers := []*model.Customer{
		{ID: "c1", Name: "Acme Roofing"},
		{ID: "c2", Name: "Abcd"},
		{ID: "c3", Name: "Northern Steel Ltd"},
	}
	aliases := model.AliasTable{"AR Co": "Acme Roofing"}
	m := NewNameMatcher(customers, aliases)

	tests := []struct {
		name       string
		raw        string
		expectedID string
		kind       MatchKind
	}{
		{"忽略大小写精确匹配", "ACME ROOFING", "c1", MatchExact},
		{"去公司后缀", "Acme Roofing, Inc.", "c1", MatchSuffixStripped},
		{"双方都有后缀", "Northern Steel Corp", "c3", MatchSuffixStripped},
		{"子串包含", "Acme Roofing Supply", "c1", MatchContains},
		{"反向包含", "Northern", "c3", MatchContains},
		{"别名", "AR Co", "c1", MatchExact},
		{"别名忽略大小写", "ar co", "c1", MatchExact},
		{"短名称不做包含匹配", "Abcd Metals", "", MatchNone},
		{"空名称", "   ", "", MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, kind := m.Match(tt.raw)
			gotID := ""
			if c != nil {
				gotID = c.ID
			}
			if gotID != tt.expectedID || kind != tt.kind {
				t.Errorf("Match(%q) = %q/%s, want %q/%s", tt.raw, gotID, kind, tt.expectedID, tt.kind)
			}
		})
	}
}

// TestNameMatcherFirstWins 多个候选时取列表中靠前的客户
func TestNameMatcherFirstWins(t *testing.T) {
	customers := []*model.Customer{
		{ID: "c1", Name: "Summit Metal Roofing"},
		{ID: "c2", Name: "Summit Metal Siding"},
	}
	m := NewNameMatcher(customers, nil)
	c, kind := m.Match("Summit Metal")
	if c == nil || c.ID != "c1" || kind != MatchContains {
		t.Errorf("Match = %+v/%s, want c1/contains", c, kind)
	}
}
