package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// ErrSheetMissing 工作簿中没有该工作表
var ErrSheetMissing = eris.New("sheet missing")

// 日期列可接受的格式，第一个为导出格式
var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1/2/06", "2006/01/02", time.RFC3339}

// RowError 单行解析错误（行号从 1 开始，含表头）
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetResult 单个工作表的解析结果
type SheetResult struct {
	Sheet    string     `json:"sheet"`
	Rows     int        `json:"rows"` // 数据行数（不含表头与空行）
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

func (r *SheetResult) fail(row int, format string, args ...any) {
	r.Errors = append(r.Errors, RowError{Row: row, Message: fmt.Sprintf(format, args...)})
}

// Parser 固定格式数据工作簿解析器
type Parser struct {
	file *excelize.File
}

// OpenReader 从流加载工作簿
func OpenReader(reader io.Reader) (*Parser, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open excel")
	}
	return &Parser{file: file}, nil
}

// OpenFile 从文件加载工作簿
func OpenFile(path string) (*Parser, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open %s", path)
	}
	return &Parser{file: file}, nil
}

// NewParser 包装已打开的工作簿
func NewParser(file *excelize.File) *Parser {
	return &Parser{file: file}
}

// Close 关闭工作簿
func (p *Parser) Close() error {
	return p.file.Close()
}

// HasSheet 工作表是否存在（忽略大小写）
func (p *Parser) HasSheet(name string) bool {
	_, ok := p.sheetName(name)
	return ok
}

func (p *Parser) sheetName(name string) (string, bool) {
	for _, s := range p.file.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return s, true
		}
	}
	return "", false
}

// table 定位表头后的数据行读取器
type table struct {
	rows    [][]string
	columns map[string]int
}

func (t *table) cell(row []string, header string) string {
	idx, ok := t.columns[normalizeHeader(header)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (p *Parser) readTable(name string, headers []string, required ...string) (*table, error) {
	sheet, ok := p.sheetName(name)
	if !ok {
		return nil, eris.Wrap(ErrSheetMissing, name)
	}
	rows, err := p.file.GetRows(sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read sheet %s", name)
	}
	t := &table{columns: map[string]int{}}
	if len(rows) == 0 {
		return t, nil
	}
	known := map[string]bool{}
	for _, h := range headers {
		known[normalizeHeader(h)] = true
	}
	for i, h := range rows[0] {
		key := normalizeHeader(h)
		if known[key] {
			if _, dup := t.columns[key]; !dup {
				t.columns[key] = i
			}
		}
	}
	for _, h := range required {
		if _, ok := t.columns[normalizeHeader(h)]; !ok {
			return nil, eris.Errorf("sheet %s: missing column %q", name, h)
		}
	}
	t.rows = rows[1:]
	return t, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseCustomers 解析 Customers 工作表
func (p *Parser) ParseCustomers() ([]*model.Customer, SheetResult, error) {
	result := SheetResult{Sheet: SheetCustomers, Errors: []RowError{}}
	t, err := p.readTable(SheetCustomers, customerHeaders, "Name", "Group")
	if err != nil {
		return nil, result, err
	}

	out := []*model.Customer{}
	for i, row := range t.rows {
		rowNo := i + 2
		if isBlank(row) {
			continue
		}
		result.Rows++
		name := t.cell(row, "Name")
		if name == "" {
			result.fail(rowNo, "name is empty")
			continue
		}
		spend, err := parseNumber(t.cell(row, "Annual Spend"))
		if err != nil {
			result.fail(rowNo, "annual spend: %v", err)
			continue
		}
		out = append(out, &model.Customer{
			ID:          idOrNew(t.cell(row, "ID")),
			Name:        name,
			Group:       t.cell(row, "Group"),
			Territory:   t.cell(row, "Territory"),
			AnnualSpend: spend,
		})
	}
	result.Imported = len(out)
	return out, result, nil
}

// ParseCategories 解析 Categories 工作表
func (p *Parser) ParseCategories() ([]*model.Category, SheetResult, error) {
	result := SheetResult{Sheet: SheetCategories, Errors: []RowError{}}
	t, err := p.readTable(SheetCategories, categoryHeaders, "Name")
	if err != nil {
		return nil, result, err
	}

	out := []*model.Category{}
	for i, row := range t.rows {
		rowNo := i + 2
		if isBlank(row) {
			continue
		}
		result.Rows++
		name := t.cell(row, "Name")
		if name == "" {
			result.fail(rowNo, "name is empty")
			continue
		}
		revenue, err := parseNumber(t.cell(row, "Revenue"))
		if err != nil {
			result.fail(rowNo, "revenue: %v", err)
			continue
		}
		material, err := parseNumber(t.cell(row, "Material Cost"))
		if err != nil {
			result.fail(rowNo, "material cost: %v", err)
			continue
		}
		laborPercent, err := parseOptional(t.cell(row, "Labor Percent"))
		if err != nil {
			result.fail(rowNo, "labor percent: %v", err)
			continue
		}
		laborCost, err := parseOptional(t.cell(row, "Labor Cost"))
		if err != nil {
			result.fail(rowNo, "labor cost: %v", err)
			continue
		}
		out = append(out, &model.Category{
			ID:           idOrNew(t.cell(row, "ID")),
			Name:         name,
			Revenue:      revenue,
			MaterialCost: material,
			LaborPercent: laborPercent,
			LaborCost:    laborCost,
		})
	}
	result.Imported = len(out)
	return out, result, nil
}

// ParseSales 解析 Sales 工作表
func (p *Parser) ParseSales() ([]*model.SalesTransaction, SheetResult, error) {
	result := SheetResult{Sheet: SheetSales, Errors: []RowError{}}
	t, err := p.readTable(SheetSales, salesHeaders, "Customer", "Category", "Amount")
	if err != nil {
		return nil, result, err
	}

	out := []*model.SalesTransaction{}
	for i, row := range t.rows {
		rowNo := i + 2
		if isBlank(row) {
			continue
		}
		result.Rows++
		customer, category := t.cell(row, "Customer"), t.cell(row, "Category")
		if customer == "" || category == "" {
			result.fail(rowNo, "customer and category are required")
			continue
		}
		amount, err := parseNumber(t.cell(row, "Amount"))
		if err != nil {
			result.fail(rowNo, "amount: %v", err)
			continue
		}
		cogs, err := parseNumber(t.cell(row, "COGS"))
		if err != nil {
			result.fail(rowNo, "cogs: %v", err)
			continue
		}
		date, err := parseDate(t.cell(row, "Date"))
		if err != nil {
			result.fail(rowNo, "date: %v", err)
			continue
		}
		out = append(out, &model.SalesTransaction{
			ID:           idOrNew(t.cell(row, "ID")),
			CustomerName: customer,
			CategoryName: category,
			Amount:       amount,
			COGS:         cogs,
			Date:         date,
		})
	}
	result.Imported = len(out)
	return out, result, nil
}

// ParseAliases 解析 Aliases 工作表
func (p *Parser) ParseAliases() ([]model.CustomerAlias, SheetResult, error) {
	result := SheetResult{Sheet: SheetAliases, Errors: []RowError{}}
	t, err := p.readTable(SheetAliases, aliasHeaders, "Alias", "Customer")
	if err != nil {
		return nil, result, err
	}

	out := []model.CustomerAlias{}
	for i, row := range t.rows {
		rowNo := i + 2
		if isBlank(row) {
			continue
		}
		result.Rows++
		alias, customer := t.cell(row, "Alias"), t.cell(row, "Customer")
		if alias == "" || customer == "" {
			result.fail(rowNo, "alias and customer are required")
			continue
		}
		out = append(out, model.CustomerAlias{Alias: alias, CustomerName: customer})
	}
	result.Imported = len(out)
	return out, result, nil
}

// parseNumber 数字单元格：允许 $ 与千分位，"25%" 记为 0.25，空为 0
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.Trim(s, "()")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("invalid number %q", s)
	}
	if percent {
		v /= 100
	}
	return v, nil
}

func parseOptional(s string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseDate 支持常见文本格式与 Excel 日期序列号
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, eris.Errorf("unrecognized date %q", s)
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
