package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/notify"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/pricing"
)

// CalibrateResponse 校准结果
type CalibrateResponse struct {
	RunID       string                 `json:"runId"`
	Strategy    *model.PricingStrategy `json:"strategy"`
	Diagnostics *pricing.Diagnostics   `json:"diagnostics"`
	Aggregates  []pricing.AggregateRow `json:"aggregates,omitempty"`
}

// Calibrate 依据历史流水重新生成全部折扣系数并整体替换策略
// POST /api/strategy/calibrate?aggregates=true
func (h *Handler) Calibrate(c *gin.Context) {
	if !h.limiter.Allow() {
		respondError(c, http.StatusTooManyRequests, "calibration rate limit exceeded")
		return
	}
	if !h.calibrating.TryLock() {
		respondError(c, http.StatusConflict, "calibration already in progress")
		return
	}
	defer h.calibrating.Unlock()

	runLog := &model.CalibrationLog{
		RunID:     uuid.NewString(),
		Status:    model.CalibrationRunning,
		StartedAt: time.Now(),
	}
	if err := h.repo.CreateCalibrationLog(runLog); err != nil {
		h.respondStoreError(c, err, "failed to create calibration log")
		return
	}

	fail := func(err error, msg string) {
		now := time.Now()
		runLog.Status = model.CalibrationFailed
		runLog.CompletedAt = &now
		runLog.ErrorMessage = err.Error()
		if uerr := h.repo.UpdateCalibrationLog(runLog); uerr != nil {
			h.logger.Error().Err(uerr).Str("run_id", runLog.RunID).Msg("failed to update calibration log")
		}
		h.respondStoreError(c, err, msg)
	}

	snap, err := h.repo.LoadSnapshot()
	if err != nil {
		fail(err, "failed to load data")
		return
	}

	// 读取、计算、保存在同一把锁内完成，期间的手工修改不会被覆盖丢失
	h.strategyMu.Lock()
	defer h.strategyMu.Unlock()

	current, err := h.loadStrategy()
	if err != nil {
		fail(err, "failed to load strategy")
		return
	}

	result := pricing.Calibrate(pricing.CalibrationInput{
		Strategy:     current,
		Transactions: snap.Sales,
		Customers:    snap.Customers,
		Aliases:      model.NewAliasTable(snap.Aliases),
		Categories:   snap.Categories,
	})
	diag := result.Diagnostics

	if err := h.replaceStrategy(c.Request.Context(), result.Strategy, notify.ReasonCalibrate, runLog.RunID); err != nil {
		fail(err, "failed to save strategy")
		return
	}

	now := time.Now()
	runLog.Status = model.CalibrationCompleted
	runLog.CompletedAt = &now
	runLog.TransactionsTotal = diag.TransactionsTotal
	runLog.TransactionsMatched = diag.TransactionsMatched
	runLog.MissingBaselines = len(diag.MissingBaselines)
	runLog.FloorRaises = len(diag.FloorRaises)
	runLog.TierAdjustments = len(diag.TierAdjustments)
	if err := h.repo.UpdateCalibrationLog(runLog); err != nil {
		h.logger.Error().Err(err).Str("run_id", runLog.RunID).Msg("failed to update calibration log")
	}

	h.logger.Info().
		Str("run_id", runLog.RunID).
		Int("transactions", diag.TransactionsTotal).
		Int("matched", diag.TransactionsMatched).
		Int("unmatched_names", len(diag.UnmatchedNames)).
		Int("missing_baselines", runLog.MissingBaselines).
		Int("floor_raises", runLog.FloorRaises).
		Int("tier_adjustments", runLog.TierAdjustments).
		Dur("duration", now.Sub(runLog.StartedAt)).
		Msg("calibration completed")

	resp := CalibrateResponse{
		RunID:       runLog.RunID,
		Strategy:    result.Strategy,
		Diagnostics: diag,
	}
	if c.Query("aggregates") == "true" {
		resp.Aggregates = result.Aggregates
	}
	c.JSON(http.StatusOK, resp)
}

// ListCalibrations 最近的校准记录（新的在前）
// GET /api/calibrations?limit=20
func (h *Handler) ListCalibrations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		respondError(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	logs, err := h.repo.ListCalibrationLogs(limit)
	if err != nil {
		h.respondStoreError(c, err, "failed to list calibration logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs, "total": len(logs)})
}
