package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/config"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/importer"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/notify"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/server"
	memstore "github.com/KirkODooley-ai/my-pricingproject-sub000/internal/service/store"
	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/store"
)

var (
	port       = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode    = flag.Bool("dev", false, "开发模式")
	dataDir    = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	configPath = flag.String("config", "", "配置文件路径 (默认为可执行文件旁的 config.toml)")
	importFile = flag.String("import", "", "导入指定 xlsx 后退出")
	importMode = flag.String("mode", importer.ModeReplace, "导入模式: replace | append")
	initConfig = flag.Bool("init-config", false, "把当前生效的配置写入 config.toml 后退出")
)

func main() {
	flag.Parse()

	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg, info, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	if *initConfig {
		if err := config.SaveConfig(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "保存配置失败: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("配置已写入 %s\n", config.ConfigPath())
		return
	}

	logger := newLogger(cfg)
	if info.Path != "" {
		logger.Info().Str("path", info.Path).Msg("config loaded")
	}

	repo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer repo.Close()

	if *importFile != "" {
		if err := runImport(repo, logger, *importFile, *importMode); err != nil {
			logger.Error().Err(err).Str("file", *importFile).Msg("import failed")
			// os.Exit 不执行 defer
			_ = repo.Close()
			os.Exit(1)
		}
		return
	}

	publisher := notify.New(cfg.Events.Brokers, cfg.Events.Topic, logger)
	defer publisher.Close()

	srv := server.NewServer(cfg, repo, publisher, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()
	logger.Info().Str("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)).Msg("tierwise started")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
		return
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func loadConfig() (*config.AppConfig, config.LoadConfigInfo, error) {
	if *configPath != "" {
		return config.LoadFile(*configPath)
	}
	return config.LoadConfigWithInfo()
}

// newLogger 开发模式输出彩色控制台日志，否则输出 JSON
func newLogger(cfg *config.AppConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if cfg.Server.DevMode {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "tierwise").Logger()
}

// openRepository 按配置选择 SQLite 或内存存储
func openRepository(cfg *config.AppConfig, logger zerolog.Logger) (store.Repository, error) {
	// 导入暂存与导出目录两种驱动都需要
	if _, err := config.EnsureDataDir(cfg); err != nil {
		return nil, err
	}
	if cfg.Data.Driver == config.DriverMemory {
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		return memstore.NewMemoryStore(), nil
	}

	dbPath := config.GetDataPath(cfg, "", "tierwise.db")
	logger.Info().Str("path", dbPath).Msg("opening database")
	return store.New(dbPath)
}

// runImport 命令行导入，失败时由调用方关闭存储后退出
func runImport(repo store.Repository, logger zerolog.Logger, file, mode string) error {
	report, err := importer.NewCoordinator(repo, logger).ImportSync(importer.ImportOptions{
		FilePath: file,
		Mode:     mode,
	})
	if err != nil {
		return err
	}
	for _, sheet := range report.Sheets {
		for _, rowErr := range sheet.Errors {
			logger.Warn().Str("sheet", sheet.Sheet).Int("row", rowErr.Row).Str("error", rowErr.Message).Msg("row skipped")
		}
	}
	logger.Info().
		Int("customers", report.Customers).
		Int("categories", report.Categories).
		Int("sales", report.Sales).
		Int("aliases", report.Aliases).
		Strs("missing_sheets", report.Missing).
		Msg("import finished")
	return nil
}
