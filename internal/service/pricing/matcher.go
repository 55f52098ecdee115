package pricing

import (
	"strings"
	"unicode"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// 去除的公司后缀（只去尾部，可连续去多个："Acme Co., Inc." -> "acme"）
var corporateSuffixes = map[string]bool{
	"inc":  true,
	"llc":  true,
	"co":   true,
	"ltd":  true,
	"corp": true,
}

// containmentMinLen 子串包含匹配时，较短一方清洗后的长度必须大于该值
const containmentMinLen = 4

// MatchKind 命中方式
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchSuffixStripped
	MatchContains
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchSuffixStripped:
		return "suffix"
	case MatchContains:
		return "contains"
	default:
		return "none"
	}
}

type matcherEntry struct {
	customer *model.Customer
	exact    string
	cleaned  string
}

// NameMatcher 流水客户名 -> 客户的模糊匹配。
// 依次尝试：忽略大小写精确匹配、去公司后缀后相等、双向子串包含。
// 同一轮有多个候选时取客户列表中靠前的一个。
type NameMatcher struct {
	entries     []matcherEntry
	aliases     model.AliasTable
	aliasesNorm map[string]string
}

// NewNameMatcher 创建匹配器
func NewNameMatcher(customers []*model.Customer, aliases model.AliasTable) *NameMatcher {
	m := &NameMatcher{
		entries:     make([]matcherEntry, 0, len(customers)),
		aliases:     aliases,
		aliasesNorm: make(map[string]string, len(aliases)),
	}
	for _, c := range customers {
		if c == nil {
			continue
		}
		m.entries = append(m.entries, matcherEntry{
			customer: c,
			exact:    normalizeName(c.Name),
			cleaned:  CleanCompanyName(c.Name),
		})
	}
	for alias, canonical := range aliases {
		m.aliasesNorm[normalizeName(alias)] = canonical
	}
	return m
}

// Canonical 别名解析；没有别名时原样返回
func (m *NameMatcher) Canonical(raw string) string {
	if v, ok := m.aliases[raw]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	if v, ok := m.aliasesNorm[normalizeName(raw)]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return raw
}

// Match 先做别名解析再匹配客户
func (m *NameMatcher) Match(raw string) (*model.Customer, MatchKind) {
	return m.matchName(m.Canonical(raw))
}

func (m *NameMatcher) matchName(name string) (*model.Customer, MatchKind) {
	exact := normalizeName(name)
	if exact == "" {
		return nil, MatchNone
	}
	for _, e := range m.entries {
		if e.exact == exact {
			return e.customer, MatchExact
		}
	}

	cleaned := CleanCompanyName(name)
	if cleaned == "" {
		return nil, MatchNone
	}
	for _, e := range m.entries {
		if e.cleaned != "" && e.cleaned == cleaned {
			return e.customer, MatchSuffixStripped
		}
	}

	for _, e := range m.entries {
		if containsEitherWay(cleaned, e.cleaned) {
			return e.customer, MatchContains
		}
	}
	return nil, MatchNone
}

func containsEitherWay(a, b string) bool {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) <= containmentMinLen {
		return false
	}
	return strings.Contains(longer, shorter)
}

// CleanCompanyName 小写、去标点、去尾部公司后缀
func CleanCompanyName(name string) string {
	s := strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return ' '
		}
		return unicode.ToLower(r)
	}, name)
	tokens := strings.Fields(s)
	for len(tokens) > 1 && corporateSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}
