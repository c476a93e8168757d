package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Console   ConsoleConfig   `mapstructure:"console"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Log       LogConfig       `mapstructure:"log"`
}

// APIConfig 平台转发API的接入配置
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RetryCount 传输层重试次数，0表示失败立即上抛
	RetryCount    int           `mapstructure:"retry_count"`
	RetryWaitTime time.Duration `mapstructure:"retry_wait_time"`
	// Token 平台接入令牌，为空则不携带
	Token string `mapstructure:"token"`
}

// ConsoleConfig 控制台行为配置
type ConsoleConfig struct {
	PageSize int `mapstructure:"page_size"`
	// ExportDir 表格导出文件的输出目录
	ExportDir string `mapstructure:"export_dir"`
}

// CacheConfig 参考选项列表缓存配置
// Host 为空表示不启用Redis缓存，选项列表每次实时拉取
type CacheConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	TTL          time.Duration `mapstructure:"ttl"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SimulatorConfig 本地模拟服务配置
type SimulatorConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	// SeedPath 参考数据（设备/产品/分组）种子文件
	SeedPath string `mapstructure:"seed_path"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

var globalConfig *Config

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	// 设置默认值
	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		// 默认配置文件路径
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("../configs")
		viper.AddConfigPath("../../configs")
	}

	// 设置环境变量前缀
	viper.SetEnvPrefix("FORWARD_CONSOLE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults() {
	// 平台API默认接入本地模拟服务
	viper.SetDefault("api.base_url", "http://127.0.0.1:8089/api/v1")
	viper.SetDefault("api.timeout", 15*time.Second)
	// 默认不在客户端层重试，失败立即上抛由用户决定
	viper.SetDefault("api.retry_count", 0)
	viper.SetDefault("api.retry_wait_time", time.Second)

	viper.SetDefault("console.page_size", 10)
	viper.SetDefault("console.export_dir", "./data/exports")

	// 缓存默认关闭（host为空），TTL默认60秒
	viper.SetDefault("cache.port", 6379)
	viper.SetDefault("cache.ttl", 60*time.Second)
	viper.SetDefault("cache.dial_timeout", 3*time.Second)
	viper.SetDefault("cache.read_timeout", 2*time.Second)
	viper.SetDefault("cache.write_timeout", 2*time.Second)

	viper.SetDefault("simulator.port", 8089)
	viper.SetDefault("simulator.mode", "release")
	viper.SetDefault("simulator.read_timeout", 30*time.Second)
	viper.SetDefault("simulator.write_timeout", 30*time.Second)
	viper.SetDefault("simulator.sqlite_path", "./data/simulator.db")
	viper.SetDefault("simulator.seed_path", "configs/seed.yaml")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "console")
	viper.SetDefault("log.file_path", "./logs/console.log")
	viper.SetDefault("log.max_size", 50)
	viper.SetDefault("log.max_backups", 5)
	viper.SetDefault("log.max_age", 14)
}

// Get 获取全局配置
func Get() *Config {
	return globalConfig
}

// CacheEnabled 是否启用选项缓存
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Cache.Host) != ""
}

// SimulatorAddr 模拟服务监听地址
func (c *Config) SimulatorAddr() string {
	return fmt.Sprintf(":%d", c.Simulator.Port)
}
