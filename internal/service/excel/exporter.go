package excel

import (
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/pricing"
)

// 报表工作簿的工作表名
const (
	SheetPricingTable = "Pricing Table"
	SheetMarginAlerts = "Margin Alerts"
	SheetImpact       = "Revenue Impact"
	SheetStrategy     = "Strategy"
)

// ExportInput 报表导出所需数据
type ExportInput struct {
	Strategy *model.PricingStrategy
	Preview  []pricing.PreviewRow
	Alerts   []pricing.MarginAlert
	Impact   *pricing.ImpactReport // 为 nil 时不输出影响分析表
}

// Exporter Excel导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export 导出定价表、毛利告警、收入影响与策略系数
func (e *Exporter) Export(in ExportInput) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetPricingTable)

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, err
	}
	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	// 定价表
	previewRows := [][]any{}
	for _, row := range in.Preview {
		for _, t := range row.Tiers {
			previewRows = append(previewRows, []any{
				row.Category, row.CategoryGroup, t.CustomerGroup, t.Tier,
				row.Cost, row.ListMultiplier, row.ListPrice,
				t.DiscountMultiplier, t.NetPrice, t.Margin, t.MarginFloor, yesNo(t.BelowFloor),
			})
		}
	}
	if err := writeTable(f, SheetPricingTable, []string{
		"Category", "Category Group", "Customer Group", "Tier",
		"Cost", "List Multiplier", "List Price",
		"Discount Multiplier", "Net Price", "Margin", "Margin Floor", "Below Floor",
	}, previewRows, headerStyle); err != nil {
		return nil, err
	}
	if len(previewRows) > 0 {
		last := len(previewRows) + 1
		setColumnStyle(f, SheetPricingTable, "E", last, moneyStyle)
		setColumnStyle(f, SheetPricingTable, "G", last, moneyStyle)
		setColumnStyle(f, SheetPricingTable, "I", last, moneyStyle)
		setColumnStyle(f, SheetPricingTable, "J", last, percentStyle)
		setColumnStyle(f, SheetPricingTable, "K", last, percentStyle)
	}

	// 毛利告警
	if _, err := f.NewSheet(SheetMarginAlerts); err != nil {
		return nil, err
	}
	alertRows := make([][]any, 0, len(in.Alerts))
	for _, a := range in.Alerts {
		alertRows = append(alertRows, []any{
			a.CustomerGroup, a.Tier, a.Category, a.CategoryGroup,
			a.ListMultiplier, a.DiscountMultiplier, a.Margin, a.MarginFloor, a.Shortfall,
		})
	}
	if err := writeTable(f, SheetMarginAlerts, []string{
		"Customer Group", "Tier", "Category", "Category Group",
		"List Multiplier", "Discount Multiplier", "Margin", "Margin Floor", "Shortfall",
	}, alertRows, headerStyle); err != nil {
		return nil, err
	}
	if len(alertRows) > 0 {
		last := len(alertRows) + 1
		for _, col := range []string{"G", "H", "I"} {
			setColumnStyle(f, SheetMarginAlerts, col, last, percentStyle)
		}
	}

	// 收入影响
	if in.Impact != nil {
		if _, err := f.NewSheet(SheetImpact); err != nil {
			return nil, err
		}
		impactRows := make([][]any, 0, len(in.Impact.Customers)+len(in.Impact.Groups)+2)
		for _, c := range in.Impact.Customers {
			impactRows = append(impactRows, []any{
				c.CustomerName, c.CustomerGroup, c.Tier, c.MixSource,
				c.CurrentSpend, c.ProjectedRevenue, c.Delta, c.DeltaPercent,
			})
		}
		impactRows = append(impactRows, []any{})
		for _, g := range in.Impact.Groups {
			impactRows = append(impactRows, []any{
				"Total " + g.CustomerGroup, g.CustomerGroup, nil, nil,
				g.CurrentSpend, g.ProjectedRevenue, g.Delta, ratio(g.Delta, g.CurrentSpend),
			})
		}
		impactRows = append(impactRows, []any{
			"Total", nil, nil, nil,
			in.Impact.CurrentSpend, in.Impact.ProjectedRevenue, in.Impact.Delta, ratio(in.Impact.Delta, in.Impact.CurrentSpend),
		})
		if err := writeTable(f, SheetImpact, []string{
			"Customer", "Customer Group", "Tier", "Mix Source",
			"Current Spend", "Projected Revenue", "Delta", "Delta %",
		}, impactRows, headerStyle); err != nil {
			return nil, err
		}
		last := len(impactRows) + 1
		for _, col := range []string{"E", "F", "G"} {
			setColumnStyle(f, SheetImpact, col, last, moneyStyle)
		}
		setColumnStyle(f, SheetImpact, "H", last, percentStyle)
	}

	// 策略系数
	if _, err := f.NewSheet(SheetStrategy); err != nil {
		return nil, err
	}
	if err := writeTable(f, SheetStrategy, []string{"Scope", "Customer Group", "Tier", "Category Key", "Multiplier"},
		strategyRows(in.Strategy), headerStyle); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// strategyRows 策略展开为扁平行：先加价系数，再按分组/等级顺序的折扣系数
func strategyRows(s *model.PricingStrategy) [][]any {
	if s == nil {
		return nil
	}
	rows := [][]any{}
	for _, k := range sortedKeys(s.ListMultipliers) {
		rows = append(rows, []any{"List", nil, nil, k, s.ListMultipliers[k]})
	}

	groups := make([]string, 0, len(s.TierMultipliers))
	for g := range s.TierMultipliers {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, group := range groups {
		tiers := s.TierMultipliers[group]
		names := pricing.TierNames(group)
		seen := map[string]bool{}
		for _, n := range names {
			seen[n] = true
		}
		// 等级表外的遗留等级排在最后
		var legacy []string
		for t := range tiers {
			if !seen[t] {
				legacy = append(legacy, t)
			}
		}
		sort.Strings(legacy)
		for _, tier := range append(names, legacy...) {
			table, ok := tiers[tier]
			if !ok {
				continue
			}
			for _, k := range sortedKeys(table) {
				rows = append(rows, []any{"Tier", group, tier, k, table[k]})
			}
		}
	}
	return rows
}

func sortedKeys(m model.MultiplierTable) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setColumnStyle(f *excelize.File, sheet, col string, lastRow, style int) {
	_ = f.SetCellStyle(sheet, col+"2", col+strconv.Itoa(lastRow), style)
}

func ratio(delta, base float64) float64 {
	if base == 0 {
		return 0
	}
	return delta / base
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
