package pricing

import "sort"

// UnmatchedName 未能匹配到客户的流水名称
type UnmatchedName struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// MissingBaseline 没有历史数据、使用默认基准的 (分组, 品类)
type MissingBaseline struct {
	CustomerGroup string `json:"customerGroup"`
	Category      string `json:"category"`
}

// FloorRaise 基准被毛利底线抬高的 (分组, 品类)
type FloorRaise struct {
	CustomerGroup string  `json:"customerGroup"`
	Category      string  `json:"category"`
	Baseline      float64 `json:"baseline"`
	Floor         float64 `json:"floor"`
}

// TierAdjustment 层级校验调整（抬高、截断或补齐）的条目
type TierAdjustment struct {
	CustomerGroup string  `json:"customerGroup"`
	Tier          string  `json:"tier"`
	CategoryKey   string  `json:"categoryKey"`
	From          float64 `json:"from"`
	To            float64 `json:"to"`
	Materialized  bool    `json:"materialized"` // 原本缺失，按 1.0 补齐
}

// Diagnostics 校准质量报告：把静默兜底暴露出来
type Diagnostics struct {
	TransactionsTotal     int               `json:"transactionsTotal"`
	TransactionsMatched   int               `json:"transactionsMatched"`
	MatchKinds            map[string]int    `json:"matchKinds"`
	UnmatchedNames        []UnmatchedName   `json:"unmatchedNames"`
	UnknownGroupCustomers []string          `json:"unknownGroupCustomers"`
	MissingBaselines      []MissingBaseline `json:"missingBaselines"`
	FloorRaises           []FloorRaise      `json:"floorRaises"`
	TierAdjustments       []TierAdjustment  `json:"tierAdjustments"`
	SkippedGroups         []string          `json:"skippedGroups"` // 策略中无等级表的分组，层级校验未处理
}

// NewDiagnostics 创建空报告
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		MatchKinds:            map[string]int{},
		UnmatchedNames:        []UnmatchedName{},
		UnknownGroupCustomers: []string{},
		MissingBaselines:      []MissingBaseline{},
		FloorRaises:           []FloorRaise{},
		TierAdjustments:       []TierAdjustment{},
		SkippedGroups:         []string{},
	}
}

// UnmatchedCount 未匹配流水条数
func (d *Diagnostics) UnmatchedCount() int {
	n := 0
	for _, u := range d.UnmatchedNames {
		n += u.Count
	}
	return n
}

func sortUnmatched(items []UnmatchedName) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
}
