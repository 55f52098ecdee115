package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized     bool                  `json:"initialized"` // 是否已有数据
	Customers       int                   `json:"customers"`
	Categories      int                   `json:"categories"`
	Transactions    int                   `json:"transactions"`
	Aliases         int                   `json:"aliases"`
	StrategySaved   bool                  `json:"strategySaved"` // 是否已持久化过策略
	LastCalibration *model.CalibrationLog `json:"lastCalibration,omitempty"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	snap, err := h.repo.LoadSnapshot()
	if err != nil {
		h.respondStoreError(c, err, "failed to load data")
		return
	}

	resp := StatusResponse{
		Customers:    len(snap.Customers),
		Categories:   len(snap.Categories),
		Transactions: len(snap.Sales),
		Aliases:      len(snap.Aliases),
	}
	resp.Initialized = resp.Customers > 0 || resp.Categories > 0 || resp.Transactions > 0

	if _, err := h.repo.GetStrategy(); err == nil {
		resp.StrategySaved = true
	} else if !store.IsNotFound(err) {
		h.respondStoreError(c, err, "failed to load strategy")
		return
	}

	logs, err := h.repo.ListCalibrationLogs(1)
	if err != nil {
		h.respondStoreError(c, err, "failed to load calibration logs")
		return
	}
	if len(logs) > 0 {
		resp.LastCalibration = logs[0]
	}

	c.JSON(http.StatusOK, resp)
}
