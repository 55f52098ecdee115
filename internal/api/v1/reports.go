package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/pricing"
)

// reportInput 报表所需的数据快照与当前策略
func (h *Handler) reportInput() (*model.Snapshot, *model.PricingStrategy, error) {
	snap, err := h.repo.LoadSnapshot()
	if err != nil {
		return nil, nil, err
	}
	h.strategyMu.Lock()
	defer h.strategyMu.Unlock()
	strategy, err := h.loadStrategy()
	if err != nil {
		return nil, nil, err
	}
	return snap, strategy, nil
}

// impactReport 用当前数据计算收入影响
func impactReport(snap *model.Snapshot, strategy *model.PricingStrategy) pricing.ImpactReport {
	history := pricing.CustomerCategoryHistory(snap.Sales, snap.Customers, model.NewAliasTable(snap.Aliases))
	mix := pricing.CategoryRevenueMix(snap.Categories)
	return pricing.AnalyzeImpact(snap.Customers, strategy, mix, history)
}

// Preview 定价预览表
// GET /api/reports/preview?cost=100
func (h *Handler) Preview(c *gin.Context) {
	var costOverride float64
	if s := c.Query("cost"); s != "" {
		v, err := parseFinite(s)
		if err != nil || v <= 0 {
			respondError(c, http.StatusBadRequest, "cost must be a finite positive number")
			return
		}
		costOverride = v
	}

	snap, strategy, err := h.reportInput()
	if err != nil {
		h.respondStoreError(c, err, "failed to load report data")
		return
	}
	rows := pricing.PricingPreview(strategy, snap.Categories, costOverride)
	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

// MarginAlerts 低于毛利底线的 (分组, 等级, 品类)
// GET /api/reports/margin-alerts
func (h *Handler) MarginAlerts(c *gin.Context) {
	snap, strategy, err := h.reportInput()
	if err != nil {
		h.respondStoreError(c, err, "failed to load report data")
		return
	}
	alerts := pricing.MarginAlerts(strategy, snap.Categories)
	c.JSON(http.StatusOK, gin.H{"items": alerts, "total": len(alerts)})
}

// Impact 按客户与分组的收入影响
// GET /api/reports/impact
func (h *Handler) Impact(c *gin.Context) {
	snap, strategy, err := h.reportInput()
	if err != nil {
		h.respondStoreError(c, err, "failed to load report data")
		return
	}
	c.JSON(http.StatusOK, impactReport(snap, strategy))
}
