package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	v1 "github.com/KirkODooley-ai/my-pricingproject-sub000/internal/api/v1"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/config"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/notify"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	http   *http.Server
	v1     *v1.Handler
	logger zerolog.Logger
}

// NewServer 创建服务器；repo 与 publisher 由调用方负责关闭
func NewServer(cfg *config.AppConfig, repo store.Repository, publisher notify.Publisher, logger zerolog.Logger) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := v1.NewHandler(v1.Options{
		Repo:             repo,
		Publisher:        publisher,
		Logger:           logger,
		UploadDir:        config.GetDataPath(cfg, "uploads", ""),
		ExportDir:        config.GetDataPath(cfg, "exports", ""),
		ExportTTL:        time.Duration(cfg.Excel.ExportTTLMinutes) * time.Minute,
		CalibrationRate:  cfg.Calibration.RatePerSecond,
		CalibrationBurst: cfg.Calibration.Burst,
	})

	s := &Server{
		router: gin.New(),
		v1:     handler,
		logger: logger,
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// setupRoutes 设置中间件与路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), requestLogger(s.logger))

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// requestLogger 用 zerolog 记录每个请求
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		case status >= http.StatusBadRequest:
			evt = logger.Warn()
		}
		evt.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// Handler 返回根路由（测试使用）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，Shutdown 后返回 nil
func (s *Server) Run() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 等待进行中的请求结束后关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
