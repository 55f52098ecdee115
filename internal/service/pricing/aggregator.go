package pricing

import (
	"sort"
	"strings"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// BucketKey 聚合桶：(客户分组, 等级, 品类)
type BucketKey struct {
	CustomerGroup string
	Tier          string
	Category      string // 规范化（小写、去空格）后的品类名
}

// Bucket 桶内汇总
type Bucket struct {
	Revenue float64 `json:"revenue"`
	COGS    float64 `json:"cogs"`
	Count   int     `json:"count"`
}

// AggregateRow 便于输出的扁平行
type AggregateRow struct {
	CustomerGroup string  `json:"customerGroup"`
	Tier          string  `json:"tier"`
	Category      string  `json:"category"`
	Revenue       float64 `json:"revenue"`
	COGS          float64 `json:"cogs"`
	Count         int     `json:"count"`
}

// Aggregates 历史销售聚合结果
type Aggregates struct {
	buckets map[BucketKey]*Bucket
	names   map[BucketKey]string // 首次出现的原始品类名
}

func newAggregates() *Aggregates {
	return &Aggregates{
		buckets: make(map[BucketKey]*Bucket),
		names:   make(map[BucketKey]string),
	}
}

// Get 查询桶；品类名忽略大小写
func (a *Aggregates) Get(customerGroup, tier, category string) (Bucket, bool) {
	if a == nil {
		return Bucket{}, false
	}
	b, ok := a.buckets[BucketKey{CustomerGroup: customerGroup, Tier: tier, Category: normalizeName(category)}]
	if !ok {
		return Bucket{}, false
	}
	return *b, true
}

// Rows 按 分组/等级/品类 排序的扁平结果
func (a *Aggregates) Rows() []AggregateRow {
	rows := make([]AggregateRow, 0, len(a.buckets))
	for k, b := range a.buckets {
		rows = append(rows, AggregateRow{
			CustomerGroup: k.CustomerGroup,
			Tier:          k.Tier,
			Category:      a.names[k],
			Revenue:       b.Revenue,
			COGS:          b.COGS,
			Count:         b.Count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CustomerGroup != rows[j].CustomerGroup {
			return rows[i].CustomerGroup < rows[j].CustomerGroup
		}
		ti, tj := TierIndex(rows[i].CustomerGroup, rows[i].Tier), TierIndex(rows[j].CustomerGroup, rows[j].Tier)
		if ti != tj {
			return ti < tj
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

func (a *Aggregates) add(key BucketKey, rawCategory string, revenue, cogs float64) {
	b, ok := a.buckets[key]
	if !ok {
		b = &Bucket{}
		a.buckets[key] = b
		a.names[key] = strings.TrimSpace(rawCategory)
	}
	b.Revenue += revenue
	b.COGS += cogs
	b.Count++
}

// Aggregate 把销售流水按 (客户分组, 等级, 品类) 汇总收入与成本。
// 等级取客户当前的年度采购额，而非流水发生时的采购额（没有按时点的采购台账）。
// 匹配不到客户的流水不参与汇总，只记入诊断报告。
func Aggregate(transactions []*model.SalesTransaction, customers []*model.Customer, aliases model.AliasTable) (*Aggregates, *Diagnostics) {
	agg := newAggregates()
	diag := NewDiagnostics()
	matcher := NewNameMatcher(customers, aliases)

	unmatched := map[string]*UnmatchedName{}
	var unmatchedOrder []string
	unknownGroups := map[string]bool{}

	for _, tx := range transactions {
		if tx == nil {
			continue
		}
		diag.TransactionsTotal++

		customer, kind := matcher.Match(tx.CustomerName)
		if customer == nil {
			name := strings.TrimSpace(tx.CustomerName)
			u, ok := unmatched[name]
			if !ok {
				u = &UnmatchedName{Name: name}
				unmatched[name] = u
				unmatchedOrder = append(unmatchedOrder, name)
			}
			u.Count++
			u.Revenue += sanitize(tx.Amount)
			continue
		}
		diag.TransactionsMatched++
		diag.MatchKinds[kind.String()]++

		group, ok := NormalizeGroup(customer.Group)
		if !ok {
			group = strings.TrimSpace(customer.Group)
			if !unknownGroups[customer.Name] {
				unknownGroups[customer.Name] = true
				diag.UnknownGroupCustomers = append(diag.UnknownGroupCustomers, customer.Name)
			}
		}
		key := BucketKey{
			CustomerGroup: group,
			Tier:          ResolveTier(customer.Group, customer.AnnualSpend),
			Category:      normalizeName(tx.CategoryName),
		}
		agg.add(key, tx.CategoryName, sanitize(tx.Amount), sanitize(tx.COGS))
	}

	for _, name := range unmatchedOrder {
		diag.UnmatchedNames = append(diag.UnmatchedNames, *unmatched[name])
	}
	sortUnmatched(diag.UnmatchedNames)

	return agg, diag
}
