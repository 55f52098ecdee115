package excel

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// 数据工作簿的固定工作表名
const (
	SheetCustomers  = "Customers"
	SheetCategories = "Categories"
	SheetSales      = "Sales"
	SheetAliases    = "Aliases"
)

// 固定表头；导入时按列名（忽略大小写）定位，列顺序不限
var (
	customerHeaders = []string{"ID", "Name", "Group", "Territory", "Annual Spend"}
	categoryHeaders = []string{"ID", "Name", "Revenue", "Material Cost", "Labor Percent", "Labor Cost"}
	salesHeaders    = []string{"ID", "Customer", "Category", "Amount", "COGS", "Date"}
	aliasHeaders    = []string{"Alias", "Customer"}
)

// DataSheets 数据工作簿的工作表（固定顺序）
func DataSheets() []string {
	return []string{SheetCustomers, SheetCategories, SheetSales, SheetAliases}
}

// NewDataWorkbook 按导入格式写出完整数据快照；snap 为 nil 时只写表头（导入模板）
func NewDataWorkbook(snap *model.Snapshot) (*excelize.File, error) {
	if snap == nil {
		snap = &model.Snapshot{}
	}
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetCustomers)
	for _, name := range DataSheets()[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		return nil, err
	}

	customerRows := make([][]any, 0, len(snap.Customers))
	for _, c := range snap.Customers {
		customerRows = append(customerRows, []any{c.ID, c.Name, c.Group, c.Territory, c.AnnualSpend})
	}

	categoryRows := make([][]any, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		row := []any{c.ID, c.Name, c.Revenue, c.MaterialCost, nil, nil}
		if c.LaborPercent != nil {
			row[4] = *c.LaborPercent
		}
		if c.LaborCost != nil {
			row[5] = *c.LaborCost
		}
		categoryRows = append(categoryRows, row)
	}

	salesRows := make([][]any, 0, len(snap.Sales))
	for _, t := range snap.Sales {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.Format(dateLayouts[0])
		}
		salesRows = append(salesRows, []any{t.ID, t.CustomerName, t.CategoryName, t.Amount, t.COGS, date})
	}

	aliasRows := make([][]any, 0, len(snap.Aliases))
	for _, a := range snap.Aliases {
		aliasRows = append(aliasRows, []any{a.Alias, a.CustomerName})
	}

	for _, sheet := range []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{SheetCustomers, customerHeaders, customerRows},
		{SheetCategories, categoryHeaders, categoryRows},
		{SheetSales, salesHeaders, salesRows},
		{SheetAliases, aliasHeaders, aliasRows},
	} {
		if err := writeTable(f, sheet.name, sheet.headers, sheet.rows, headerStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// writeTable 写表头 + 数据行；nil 单元格留空
func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", last, 18)
}

func newHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
