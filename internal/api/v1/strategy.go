package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/notify"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/pricing"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

// UpdateListRequest 修改加价系数
type UpdateListRequest struct {
	CategoryKey string `json:"categoryKey"`
	Value       any    `json:"value"`
}

// UpdateTierRequest 修改等级折扣系数
type UpdateTierRequest struct {
	CustomerGroup string `json:"customerGroup"`
	Tier          string `json:"tier"`
	CategoryKey   string `json:"categoryKey"`
	Value         any    `json:"value"`
}

// EnforceResponse 层级校验结果
type EnforceResponse struct {
	Strategy *model.PricingStrategy    `json:"strategy"`
	Report   pricing.EnforcementReport `json:"report"`
}

// loadStrategy 读取当前策略；从未保存过时写入种子策略。调用方需持有 strategyMu。
func (h *Handler) loadStrategy() (*model.PricingStrategy, error) {
	s, err := h.repo.GetStrategy()
	if err == nil {
		return s, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}
	s = pricing.DefaultStrategy()
	if err := h.repo.SaveStrategy(s); err != nil {
		return nil, eris.Wrap(err, "failed to seed strategy")
	}
	h.logger.Info().Msg("seeded default pricing strategy")
	return s, nil
}

// replaceStrategy 持久化新策略并发布事件。发布失败只记日志，不影响已保存的策略。
func (h *Handler) replaceStrategy(ctx context.Context, s *model.PricingStrategy, reason, runID string) error {
	if err := h.repo.SaveStrategy(s); err != nil {
		return err
	}
	ev := notify.NewStrategyReplaced(reason, runID, s)
	if err := h.publisher.PublishStrategyReplaced(ctx, ev); err != nil {
		h.logger.Warn().Err(err).Str("reason", reason).Msg("failed to publish strategy event")
	}
	return nil
}

// GetStrategy 当前定价策略
// GET /api/strategy
func (h *Handler) GetStrategy(c *gin.Context) {
	h.strategyMu.Lock()
	defer h.strategyMu.Unlock()

	s, err := h.loadStrategy()
	if err != nil {
		h.respondStoreError(c, err, "failed to load strategy")
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateListMultiplier 修改单个加价系数
// PATCH /api/strategy/list
func (h *Handler) UpdateListMultiplier(c *gin.Context) {
	var req UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.CategoryKey) == "" {
		respondError(c, http.StatusBadRequest, "categoryKey is required")
		return
	}
	value, ok := pricing.ParseMultiplier(req.Value)
	if !ok || value <= 0 {
		respondError(c, http.StatusBadRequest, "value must be a positive number")
		return
	}

	h.strategyMu.Lock()
	defer h.strategyMu.Unlock()

	current, err := h.loadStrategy()
	if err != nil {
		h.respondStoreError(c, err, "failed to load strategy")
		return
	}
	next := pricing.WithListMultiplier(current, req.CategoryKey, pricing.Round2(value))
	if err := h.replaceStrategy(c.Request.Context(), next, notify.ReasonEdit, ""); err != nil {
		h.respondStoreError(c, err, "failed to save strategy")
		return
	}
	c.JSON(http.StatusOK, next)
}

// UpdateTierMultiplier 修改单个等级折扣系数（不自动做层级校验）
// PATCH /api/strategy/tier
func (h *Handler) UpdateTierMultiplier(c *gin.Context) {
	var req UpdateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	group, ok := pricing.NormalizeGroup(req.CustomerGroup)
	if !ok {
		respondError(c, http.StatusBadRequest, "unknown customerGroup")
		return
	}
	if pricing.TierIndex(group, req.Tier) < 0 {
		respondError(c, http.StatusBadRequest, "unknown tier for "+group)
		return
	}
	if strings.TrimSpace(req.CategoryKey) == "" {
		respondError(c, http.StatusBadRequest, "categoryKey is required")
		return
	}
	value, ok := pricing.ParseMultiplier(req.Value)
	if !ok || value <= 0 || value > pricing.MaxCalibratedMultiplier {
		respondError(c, http.StatusBadRequest, "value must be in (0, 1.5]")
		return
	}

	h.strategyMu.Lock()
	defer h.strategyMu.Unlock()

	current, err := h.loadStrategy()
	if err != nil {
		h.respondStoreError(c, err, "failed to load strategy")
		return
	}
	next := pricing.WithTierMultiplier(current, group, req.Tier, req.CategoryKey, pricing.Round2(value))
	if err := h.replaceStrategy(c.Request.Context(), next, notify.ReasonEdit, ""); err != nil {
		h.respondStoreError(c, err, "failed to save strategy")
		return
	}
	c.JSON(http.StatusOK, next)
}

// EnforceStrategy 对当前策略执行层级校验并保存
// POST /api/strategy/enforce
func (h *Handler) EnforceStrategy(c *gin.Context) {
	h.strategyMu.Lock()
	defer h.strategyMu.Unlock()

	current, err := h.loadStrategy()
	if err != nil {
		h.respondStoreError(c, err, "failed to load strategy")
		return
	}
	next, report := pricing.EnforceHierarchy(current)
	if len(report.Adjustments) > 0 {
		if err := h.replaceStrategy(c.Request.Context(), next, notify.ReasonEnforce, ""); err != nil {
			h.respondStoreError(c, err, "failed to save strategy")
			return
		}
	}
	c.JSON(http.StatusOK, EnforceResponse{Strategy: next, Report: report})
}

// ResetStrategy 恢复种子策略
// POST /api/strategy/reset
func (h *Handler) ResetStrategy(c *gin.Context) {
	h.strategyMu.Lock()
	defer h.strategyMu.Unlock()

	seed := pricing.DefaultStrategy()
	if err := h.replaceStrategy(c.Request.Context(), seed, notify.ReasonReset, ""); err != nil {
		h.respondStoreError(c, err, "failed to save strategy")
		return
	}
	c.JSON(http.StatusOK, seed)
}
