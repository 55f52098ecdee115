package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// ListCustomers 客户列表
// GET /api/customers
func (h *Handler) ListCustomers(c *gin.Context) {
	customers, err := h.repo.ListCustomers()
	if err != nil {
		h.respondStoreError(c, err, "failed to list customers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": customers, "total": len(customers)})
}

// UpsertCustomer 新增或更新客户；未给 ID 时生成
// POST /api/customers
func (h *Handler) UpsertCustomer(c *gin.Context) {
	var req model.Customer
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}
	if req.AnnualSpend < 0 {
		respondError(c, http.StatusBadRequest, "annualSpend must not be negative")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := h.repo.UpsertCustomer(&req); err != nil {
		h.respondStoreError(c, err, "failed to save customer")
		return
	}
	c.JSON(http.StatusOK, req)
}

// DeleteCustomer 删除客户
// DELETE /api/customers/:id
func (h *Handler) DeleteCustomer(c *gin.Context) {
	if err := h.repo.DeleteCustomer(c.Param("id")); err != nil {
		h.respondStoreError(c, err, "failed to delete customer")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCategories 品类列表
// GET /api/categories
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.repo.ListCategories()
	if err != nil {
		h.respondStoreError(c, err, "failed to list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": categories, "total": len(categories)})
}

// UpsertCategory 新增或更新品类
// POST /api/categories
func (h *Handler) UpsertCategory(c *gin.Context) {
	var req model.Category
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := h.repo.UpsertCategory(&req); err != nil {
		h.respondStoreError(c, err, "failed to save category")
		return
	}
	c.JSON(http.StatusOK, req)
}

// DeleteCategory 删除品类
// DELETE /api/categories/:id
func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.repo.DeleteCategory(c.Param("id")); err != nil {
		h.respondStoreError(c, err, "failed to delete category")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSales 销售流水
// GET /api/sales
func (h *Handler) ListSales(c *gin.Context) {
	sales, err := h.repo.ListSales()
	if err != nil {
		h.respondStoreError(c, err, "failed to list sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sales, "total": len(sales)})
}

// InsertSales 追加销售流水（数组）
// POST /api/sales
func (h *Handler) InsertSales(c *gin.Context) {
	var req []*model.SalesTransaction
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	for i, t := range req {
		if t == nil || strings.TrimSpace(t.CustomerName) == "" || strings.TrimSpace(t.CategoryName) == "" {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("item %d: customerName and categoryName are required", i))
			return
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
	}
	if err := h.repo.InsertSales(req); err != nil {
		h.respondStoreError(c, err, "failed to insert sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": len(req)})
}

// ListAliases 客户别名
// GET /api/aliases
func (h *Handler) ListAliases(c *gin.Context) {
	aliases, err := h.repo.ListAliases()
	if err != nil {
		h.respondStoreError(c, err, "failed to list aliases")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": aliases, "total": len(aliases)})
}

// ReplaceAliases 整体替换别名表
// PUT /api/aliases
func (h *Handler) ReplaceAliases(c *gin.Context) {
	var req []model.CustomerAlias
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, a := range req {
		if strings.TrimSpace(a.Alias) == "" || strings.TrimSpace(a.CustomerName) == "" {
			respondError(c, http.StatusBadRequest, "alias and customerName are required")
			return
		}
	}
	if err := h.repo.ReplaceAliases(req); err != nil {
		h.respondStoreError(c, err, "failed to save aliases")
		return
	}
	aliases, err := h.repo.ListAliases()
	if err != nil {
		h.respondStoreError(c, err, "failed to list aliases")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": aliases, "total": len(aliases)})
}
