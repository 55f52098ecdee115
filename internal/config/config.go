package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rotisserie/eris"
)

// 环境变量覆盖
const (
	EnvDataDir      = "TIERWISE_DATA_DIR"
	EnvKafkaBrokers = "TIERWISE_KAFKA_BROKERS"
	EnvLogLevel     = "TIERWISE_LOG_LEVEL"
)

// 存储驱动
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// AppConfig 应用配置
type AppConfig struct {
	Server      ServerConfig      `toml:"server"`
	Data        DataConfig        `toml:"data"`
	Log         LogConfig         `toml:"log"`
	Calibration CalibrationConfig `toml:"calibration"`
	Events      EventsConfig      `toml:"events"`
	Excel       ExcelConfig       `toml:"excel"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	Driver  string `toml:"driver"`
	DataDir string `toml:"data_dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
}

// CalibrationConfig 自动校准触发频率限制
type CalibrationConfig struct {
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

// EventsConfig 策略变更事件
type EventsConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// ExcelConfig Excel 导出相关配置
type ExcelConfig struct {
	ExportTTLMinutes int `toml:"export_ttl_minutes"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
	Path          string
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			Driver:  DriverSQLite,
			DataDir: "data",
		},
		Log: LogConfig{
			Level: "info",
		},
		Calibration: CalibrationConfig{
			RatePerSecond: 0.2,
			Burst:         1,
		},
		Events: EventsConfig{
			Topic: "pricing.strategy.replaced",
		},
		Excel: ExcelConfig{
			ExportTTLMinutes: 10,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// ConfigPath 默认配置文件路径：可执行文件同目录下的 config.toml
func ConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(ConfigPath())
}

// LoadFile 从指定路径加载配置；文件不存在时使用默认配置。环境变量最后覆盖。
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, eris.Wrapf(err, "failed to parse %s", path)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, eris.Wrapf(err, "failed to read %s", path)
	}

	applyEnv(config)
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖（.env 由 cmd 在加载配置前读入）
func applyEnv(config *AppConfig) {
	if v := os.Getenv(EnvDataDir); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv(EnvKafkaBrokers); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		config.Events.Brokers = brokers
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
}

// Validate 检查配置取值
func (c *AppConfig) Validate() error {
	switch c.Data.Driver {
	case DriverSQLite, DriverMemory:
	case "":
		c.Data.Driver = DriverSQLite
	default:
		return eris.Errorf("unknown data driver %q", c.Data.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return eris.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Calibration.RatePerSecond <= 0 {
		return eris.Errorf("calibration.rate_per_second must be positive, got %v", c.Calibration.RatePerSecond)
	}
	if c.Calibration.Burst < 1 {
		c.Calibration.Burst = 1
	}
	if c.Excel.ExportTTLMinutes <= 0 {
		c.Excel.ExportTTLMinutes = DefaultConfig().Excel.ExportTTLMinutes
	}
	return nil
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return eris.Wrap(err, "failed to encode config")
	}
	return os.WriteFile(ConfigPath(), data, 0644)
}

// ResolveDataDir 数据目录：绝对路径原样使用，相对路径相对于可执行文件目录
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", eris.Wrapf(err, "failed to create %s", dataDir)
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", eris.Wrapf(err, "failed to create %s", path)
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
