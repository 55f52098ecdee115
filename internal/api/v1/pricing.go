package v1

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/pricing"
)

// ResolveTierResponse 等级判定结果
type ResolveTierResponse struct {
	CustomerGroup string  `json:"customerGroup"`
	AnnualSpend   float64 `json:"annualSpend"`
	Tier          string  `json:"tier"`
	TierIndex     int     `json:"tierIndex"` // 0 为最高档，无法判定时为 -1
}

// parseFinite 解析查询参数中的数值，拒绝 NaN 与 ±Inf
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// ResolveTier 按年度采购额判定等级
// GET /api/tiers/resolve?group=Dealer&spend=120000
func (h *Handler) ResolveTier(c *gin.Context) {
	spend, err := parseFinite(c.Query("spend"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "spend must be a finite number")
		return
	}
	group := c.Query("group")
	if g, ok := pricing.NormalizeGroup(group); ok {
		group = g
	}
	tier := pricing.ResolveTier(group, spend)
	c.JSON(http.StatusOK, ResolveTierResponse{
		CustomerGroup: group,
		AnnualSpend:   spend,
		Tier:          tier,
		TierIndex:     pricing.TierIndex(group, tier),
	})
}

// Quote 单品报价；tier 为空时可用 spend 判定等级
// GET /api/pricing/quote?cost=100&category=FC36&group=Dealer&tier=Authorized%20Gold
func (h *Handler) Quote(c *gin.Context) {
	cost, err := parseFinite(c.Query("cost"))
	if err != nil || cost < 0 {
		respondError(c, http.StatusBadRequest, "cost must be a finite non-negative number")
		return
	}
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		respondError(c, http.StatusBadRequest, "category is required")
		return
	}
	group := c.Query("group")
	tier := c.Query("tier")
	if tier == "" {
		if s := c.Query("spend"); s != "" {
			spend, err := parseFinite(s)
			if err != nil {
				respondError(c, http.StatusBadRequest, "spend must be a finite number")
				return
			}
			tier = pricing.ResolveTier(group, spend)
		}
	}
	if g, ok := pricing.NormalizeGroup(group); ok {
		group = g
	}

	h.strategyMu.Lock()
	strategy, err := h.loadStrategy()
	h.strategyMu.Unlock()
	if err != nil {
		h.respondStoreError(c, err, "failed to load strategy")
		return
	}

	c.JSON(http.StatusOK, pricing.BuildQuote(strategy, cost, category, group, tier))
}
