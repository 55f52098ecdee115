package v1

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/importer"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/notify"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

// Options 处理器依赖
type Options struct {
	Repo      store.Repository
	Publisher notify.Publisher // 为 nil 时不发布事件
	Logger    zerolog.Logger

	UploadDir string        // 导入文件暂存目录，空则使用系统临时目录
	ExportDir string        // 导出文件目录，空则使用系统临时目录
	ExportTTL time.Duration // 下载链接有效期

	CalibrationRate  float64 // 每秒允许的校准次数，<=0 不限制
	CalibrationBurst int
}

// Handler V1 API 处理器
type Handler struct {
	repo        store.Repository
	publisher   notify.Publisher
	logger      zerolog.Logger
	coordinator *importer.Coordinator
	downloads   *exportDownloadStore

	uploadDir string
	exportDir string
	exportTTL time.Duration

	// strategyMu 串行化所有策略的读-改-写
	strategyMu sync.Mutex
	// calibrating 同一时间只允许一次校准
	calibrating sync.Mutex
	limiter     *rate.Limiter
}

// NewHandler 创建 V1 API 处理器
func NewHandler(opts Options) *Handler {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	uploadDir := opts.UploadDir
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = os.TempDir()
	}
	ttl := opts.ExportTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.CalibrationRate > 0 {
		burst := opts.CalibrationBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.CalibrationRate), burst)
	}

	return &Handler{
		repo:        opts.Repo,
		publisher:   publisher,
		logger:      opts.Logger,
		coordinator: importer.NewCoordinator(opts.Repo, opts.Logger),
		downloads:   newExportDownloadStore(),
		uploadDir:   uploadDir,
		exportDir:   exportDir,
		exportTTL:   ttl,
		limiter:     limiter,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 基础数据
	router.GET("/customers", h.ListCustomers)
	router.POST("/customers", h.UpsertCustomer)
	router.DELETE("/customers/:id", h.DeleteCustomer)
	router.GET("/categories", h.ListCategories)
	router.POST("/categories", h.UpsertCategory)
	router.DELETE("/categories/:id", h.DeleteCategory)
	router.GET("/sales", h.ListSales)
	router.POST("/sales", h.InsertSales)
	router.GET("/aliases", h.ListAliases)
	router.PUT("/aliases", h.ReplaceAliases)

	// 定价策略
	router.GET("/strategy", h.GetStrategy)
	router.PATCH("/strategy/list", h.UpdateListMultiplier)
	router.PATCH("/strategy/tier", h.UpdateTierMultiplier)
	router.POST("/strategy/enforce", h.EnforceStrategy)
	router.POST("/strategy/reset", h.ResetStrategy)
	router.POST("/strategy/calibrate", h.Calibrate)
	router.GET("/calibrations", h.ListCalibrations)

	// 报价
	router.GET("/tiers/resolve", h.ResolveTier)
	router.GET("/pricing/quote", h.Quote)

	// 报表
	router.GET("/reports/preview", h.Preview)
	router.GET("/reports/margin-alerts", h.MarginAlerts)
	router.GET("/reports/impact", h.Impact)

	// 导入导出
	router.POST("/import", h.Import)
	router.GET("/import/template", h.DownloadTemplate)
	router.GET("/imports", h.ListImports)
	router.POST("/export", h.Export)
	router.GET("/export/download/:token", h.DownloadExport)
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// respondStoreError 记录不存在返回 404，其余返回 500
func (h *Handler) respondStoreError(c *gin.Context, err error, msg string) {
	if store.IsNotFound(err) {
		respondError(c, http.StatusNotFound, msg+": not found")
		return
	}
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	respondError(c, http.StatusInternalServerError, msg)
}
