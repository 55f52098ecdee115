package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/importer"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/excel"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Import 导入 Excel 数据 (SSE 流式响应)
// POST /api/import  multipart: file, mode=replace|append
func (h *Handler) Import(c *gin.Context) {
	uploaded, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing upload file")
		return
	}
	mode := c.DefaultPostForm("mode", importer.ModeReplace)
	if mode != importer.ModeReplace && mode != importer.ModeAppend {
		respondError(c, http.StatusBadRequest, "mode must be replace or append")
		return
	}

	tempFilePath := filepath.Join(h.uploadDir, fmt.Sprintf("import_%d_%s", time.Now().UnixNano(), filepath.Base(uploaded.Filename)))
	if err := c.SaveUploadedFile(uploaded, tempFilePath); err != nil {
		h.logger.Error().Err(err).Msg("failed to save upload")
		respondError(c, http.StatusInternalServerError, "failed to save upload")
		return
	}
	defer os.Remove(tempFilePath)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		respondError(c, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	progressChan := h.coordinator.Import(importer.ImportOptions{
		FilePath: tempFilePath,
		Mode:     mode,
	})

	// SSE 格式: data: {json}\n\n
	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// DownloadTemplate 空白导入模板（四个工作表，仅表头）
// GET /api/import/template
func (h *Handler) DownloadTemplate(c *gin.Context) {
	f, err := excel.NewDataWorkbook(nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build import template")
		respondError(c, http.StatusInternalServerError, "failed to build template")
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to write template")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="tierwise_import_template.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ListImports 最近的导入记录（新的在前）
// GET /api/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		respondError(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	logs, err := h.repo.ListImportLogs(limit)
	if err != nil {
		h.respondStoreError(c, err, "failed to list import logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs, "total": len(logs)})
}
