package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/excel"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

// 进度事件类型
const (
	EventStart      = "start"
	EventSheetStart = "sheet_start"
	EventSheetDone  = "sheet_done"
	EventWarning    = "warning"
	EventDone       = "done"
	EventError      = "error"
)

// 导入模式
const (
	ModeReplace = "replace" // 清空后整体写入
	ModeAppend  = "append"  // 客户/品类按 ID 更新，流水追加，别名合并
)

// Coordinator 导入协调器
type Coordinator struct {
	repo   store.Repository
	logger zerolog.Logger
}

// NewCoordinator 创建导入协调器
func NewCoordinator(repo store.Repository, logger zerolog.Logger) *Coordinator {
	return &Coordinator{repo: repo, logger: logger}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath string
	Mode     string
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ImportReport 导入报告
type ImportReport struct {
	LogID      string              `json:"logId"`
	Filename   string              `json:"filename"`
	Mode       string              `json:"mode"`
	Sheets     []excel.SheetResult `json:"sheets"`
	Missing    []string            `json:"missing"` // 工作簿中不存在的工作表
	Customers  int                 `json:"customers"`
	Categories int                 `json:"categories"`
	Sales      int                 `json:"sales"`
	Aliases    int                 `json:"aliases"`
	ErrorRows  int                 `json:"errorRows"`
	Backfilled int                 `json:"backfilled"` // 由流水补齐累计收入的品类数
	Duration   time.Duration       `json:"duration"`
}

// Import 执行导入，返回进度通道；通道在导入结束后关闭
func (c *Coordinator) Import(opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		report, err := c.run(opts, progressChan)
		if err != nil {
			c.logger.Error().Err(err).Str("file", filepath.Base(opts.FilePath)).Msg("import failed")
			c.sendFinal(progressChan, ProgressEvent{
				Type:      EventError,
				Message:   err.Error(),
				Timestamp: time.Now(),
			})
			return
		}
		c.logger.Info().
			Str("file", report.Filename).
			Str("mode", report.Mode).
			Int("customers", report.Customers).
			Int("categories", report.Categories).
			Int("sales", report.Sales).
			Int("aliases", report.Aliases).
			Int("error_rows", report.ErrorRows).
			Int("backfilled", report.Backfilled).
			Dur("duration", report.Duration).
			Msg("import completed")
		c.sendFinal(progressChan, ProgressEvent{
			Type:      EventDone,
			Message:   "import completed",
			Data:      report,
			Timestamp: time.Now(),
		})
	}()

	return progressChan
}

// ImportSync 同步导入（命令行与测试使用）
func (c *Coordinator) ImportSync(opts ImportOptions) (*ImportReport, error) {
	// 无人消费，进度事件在缓冲满后被丢弃
	return c.run(opts, make(chan ProgressEvent, 100))
}

// run 执行导入并记录导入日志；日志写入失败只记录，不影响导入结果
func (c *Coordinator) run(opts ImportOptions, ch chan ProgressEvent) (*ImportReport, error) {
	entry := &model.ImportLog{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(opts.FilePath),
		Mode:      opts.Mode,
		Status:    model.ImportProcessing,
		StartedAt: time.Now(),
	}
	if entry.Mode == "" {
		entry.Mode = ModeReplace
	}
	if fi, err := os.Stat(opts.FilePath); err == nil {
		entry.FileSize = fi.Size()
	}
	if err := c.repo.CreateImportLog(entry); err != nil {
		c.logger.Warn().Err(err).Msg("failed to create import log")
	}

	report, err := c.doImport(opts, ch)

	now := time.Now()
	entry.CompletedAt = &now
	if err != nil {
		entry.Status = model.ImportFailed
		entry.ErrorMessage = err.Error()
	} else {
		report.LogID = entry.ID
		entry.Status = model.ImportCompleted
		entry.ImportedSheets = len(report.Sheets)
		entry.SkippedSheets = len(report.Missing)
		for _, sheet := range report.Sheets {
			entry.TotalRows += sheet.Rows
			entry.ImportedRows += sheet.Imported
		}
		entry.ErrorRows = report.ErrorRows
	}
	if uerr := c.repo.UpdateImportLog(entry); uerr != nil {
		c.logger.Warn().Err(uerr).Str("import_id", entry.ID).Msg("failed to update import log")
	}
	return report, err
}

func (c *Coordinator) doImport(opts ImportOptions, ch chan ProgressEvent) (*ImportReport, error) {
	startTime := time.Now()
	mode := opts.Mode
	if mode == "" {
		mode = ModeReplace
	}
	if mode != ModeReplace && mode != ModeAppend {
		return nil, eris.Errorf("unknown import mode %q", mode)
	}

	report := &ImportReport{
		Filename: filepath.Base(opts.FilePath),
		Mode:     mode,
		Sheets:   []excel.SheetResult{},
		Missing:  []string{},
	}
	c.sendProgress(ch, ProgressEvent{
		Type:      EventStart,
		Message:   fmt.Sprintf("importing %s", report.Filename),
		Data:      map[string]string{"filename": report.Filename, "mode": mode},
		Timestamp: time.Now(),
	})

	p, err := excel.OpenFile(opts.FilePath)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	present := 0
	for _, sheet := range excel.DataSheets() {
		if p.HasSheet(sheet) {
			present++
		}
	}
	if present == 0 {
		return nil, eris.Errorf("workbook has none of the sheets %v", excel.DataSheets())
	}

	snap := &model.Snapshot{
		Customers:  []*model.Customer{},
		Categories: []*model.Category{},
		Sales:      []*model.SalesTransaction{},
		Aliases:    []model.CustomerAlias{},
	}

	if err := c.parseSheet(ch, report, p, excel.SheetCustomers, func() (excel.SheetResult, error) {
		rows, res, err := p.ParseCustomers()
		snap.Customers = append(snap.Customers, rows...)
		return res, err
	}); err != nil {
		return nil, err
	}
	if err := c.parseSheet(ch, report, p, excel.SheetCategories, func() (excel.SheetResult, error) {
		rows, res, err := p.ParseCategories()
		snap.Categories = append(snap.Categories, rows...)
		return res, err
	}); err != nil {
		return nil, err
	}
	if err := c.parseSheet(ch, report, p, excel.SheetSales, func() (excel.SheetResult, error) {
		rows, res, err := p.ParseSales()
		snap.Sales = append(snap.Sales, rows...)
		return res, err
	}); err != nil {
		return nil, err
	}
	if err := c.parseSheet(ch, report, p, excel.SheetAliases, func() (excel.SheetResult, error) {
		rows, res, err := p.ParseAliases()
		snap.Aliases = append(snap.Aliases, rows...)
		return res, err
	}); err != nil {
		return nil, err
	}

	report.Backfilled = backfillCategoryRevenue(snap)

	if err := c.persist(mode, snap); err != nil {
		return nil, err
	}

	report.Customers = len(snap.Customers)
	report.Categories = len(snap.Categories)
	report.Sales = len(snap.Sales)
	report.Aliases = len(snap.Aliases)
	report.Duration = time.Since(startTime)
	return report, nil
}

// parseSheet 解析单个工作表；工作表缺失只记录警告
func (c *Coordinator) parseSheet(ch chan ProgressEvent, report *ImportReport, p *excel.Parser, sheet string, parse func() (excel.SheetResult, error)) error {
	if !p.HasSheet(sheet) {
		report.Missing = append(report.Missing, sheet)
		c.sendProgress(ch, ProgressEvent{
			Type:      EventWarning,
			Message:   fmt.Sprintf("sheet %s not found, skipped", sheet),
			Data:      map[string]string{"sheet_name": sheet},
			Timestamp: time.Now(),
		})
		return nil
	}

	c.sendProgress(ch, ProgressEvent{
		Type:      EventSheetStart,
		Message:   fmt.Sprintf("parsing sheet %s", sheet),
		Data:      map[string]string{"sheet_name": sheet},
		Timestamp: time.Now(),
	})

	result, err := parse()
	if err != nil {
		return err
	}
	report.Sheets = append(report.Sheets, result)
	report.ErrorRows += len(result.Errors)

	c.sendProgress(ch, ProgressEvent{
		Type:      EventSheetDone,
		Message:   fmt.Sprintf("sheet %s: %d/%d rows", sheet, result.Imported, result.Rows),
		Data:      result,
		Timestamp: time.Now(),
	})
	return nil
}

// persist 按模式写入存储
func (c *Coordinator) persist(mode string, snap *model.Snapshot) error {
	if mode == ModeReplace {
		if err := c.repo.ReplaceSnapshot(snap); err != nil {
			return eris.Wrap(err, "failed to replace data")
		}
		return nil
	}

	for _, cu := range snap.Customers {
		if err := c.repo.UpsertCustomer(cu); err != nil {
			return err
		}
	}
	for _, ca := range snap.Categories {
		if err := c.repo.UpsertCategory(ca); err != nil {
			return err
		}
	}
	if err := c.repo.InsertSales(snap.Sales); err != nil {
		return err
	}
	if len(snap.Aliases) > 0 {
		existing, err := c.repo.ListAliases()
		if err != nil {
			return err
		}
		if err := c.repo.ReplaceAliases(append(existing, snap.Aliases...)); err != nil {
			return err
		}
	}
	return nil
}

// sendProgress 发送进度事件，通道已满时丢弃
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
	}
}

// sendFinal 终止事件必须送达
func (c *Coordinator) sendFinal(ch chan ProgressEvent, event ProgressEvent) {
	ch <- event
}
