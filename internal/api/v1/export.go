package v1

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/excel"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/pricing"
)

// ExportResponse 导出结果
type ExportResponse struct {
	Filename    string    `json:"filename"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Export 生成定价报表工作簿，返回一次性下载地址
// POST /api/export?impact=false
func (h *Handler) Export(c *gin.Context) {
	snap, strategy, err := h.reportInput()
	if err != nil {
		h.respondStoreError(c, err, "failed to load report data")
		return
	}

	in := excel.ExportInput{
		Strategy: strategy,
		Preview:  pricing.PricingPreview(strategy, snap.Categories, 0),
		Alerts:   pricing.MarginAlerts(strategy, snap.Categories),
	}
	if c.DefaultQuery("impact", "true") != "false" {
		report := impactReport(snap, strategy)
		in.Impact = &report
	}

	file, err := excel.NewExporter().Export(in)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build export workbook")
		respondError(c, http.StatusInternalServerError, "failed to build workbook")
		return
	}
	defer file.Close()

	now := time.Now()
	filename := fmt.Sprintf("pricing_%s.xlsx", now.Format("20060102_150405"))
	path := filepath.Join(h.exportDir, fmt.Sprintf("export_%d_%s", now.UnixNano(), filename))
	if err := file.SaveAs(path); err != nil {
		_ = os.Remove(path)
		h.logger.Error().Err(err).Str("path", path).Msg("failed to write export file")
		respondError(c, http.StatusInternalServerError, "failed to write export file")
		return
	}

	token, expiresAt := h.downloads.put(path, filename, h.exportTTL)
	prefix := strings.TrimSuffix(c.FullPath(), "/export")
	c.JSON(http.StatusOK, ExportResponse{
		Filename:    filename,
		DownloadURL: fmt.Sprintf("%s/export/download/%s", prefix, token),
		ExpiresAt:   expiresAt,
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	item, ok := h.downloads.take(c.Param("token"))
	if !ok {
		respondError(c, http.StatusNotFound, "download link expired")
		return
	}
	defer os.Remove(item.filePath)

	if _, err := os.Stat(item.filePath); err != nil {
		respondError(c, http.StatusNotFound, "export file not found")
		return
	}

	c.FileAttachment(item.filePath, item.filename)
}
