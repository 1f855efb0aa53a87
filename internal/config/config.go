// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	API       APIConfig       `yaml:"api"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Hub       HubConfig       `yaml:"hub"`
	Wire      WireConfig      `yaml:"wire"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Addr 返回Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// OptimizerConfig 约束优化器配置
type OptimizerConfig struct {
	DefaultBudget time.Duration `yaml:"default_budget"`
	MaxBudget     time.Duration `yaml:"max_budget"`
	Workers       int           `yaml:"workers"` // main 据此创建交给 Hub 的 optimizer.Pool，≤0 时为 1 个 worker；Optimize 求解时另用自建的 4 worker 池
}

// HubConfig 实时同步中心配置
type HubConfig struct {
	ConflictPolicy          string `yaml:"conflict_policy"` // last|first|merge
	ChangeLogSize           int    `yaml:"change_log_size"`
	BackpressureMaxMessages int    `yaml:"backpressure_max_messages"`
	BackpressureMaxBytes    int    `yaml:"backpressure_max_bytes"`
	PersistFailureThreshold int    `yaml:"persist_failure_threshold"`
}

// WireConfig 线协议编码配置
type WireConfig struct {
	SymbolEncoding string `yaml:"symbol_encoding"` // tag|glyph, 一旦部署不应更改
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置，环境变量始终覆盖文件值
func Load() (*Config, error) {
	cfg := defaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFile 先解析 YAML 部署配置文件，再应用环境变量覆盖
// (环境变量优先，便于容器化部署临时调整而不重新发布配置文件)。
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:     "shiftsync",
			Env:      "development",
			Port:     7012,
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "shiftsync",
			User:            "shiftsync",
			Password:        "shiftsync",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			PoolSize: 10,
		},
		API: APIConfig{
			RateLimit: 100,
			Timeout:   30 * time.Second,
			CORS: CORSConfig{
				Enabled: true,
				Origins: []string{"*"},
			},
		},
		Optimizer: OptimizerConfig{
			DefaultBudget: 10 * time.Second,
			MaxBudget:     60 * time.Second,
			Workers:       0,
		},
		Hub: HubConfig{
			ConflictPolicy:          "last",
			ChangeLogSize:           256,
			BackpressureMaxMessages: 100,
			BackpressureMaxBytes:    1 << 20,
			PersistFailureThreshold: 3,
		},
		Wire: WireConfig{
			SymbolEncoding: "tag",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Port = getEnvInt("APP_PORT", cfg.App.Port)
	cfg.App.LogLevel = getEnv("APP_LOG_LEVEL", cfg.App.LogLevel)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", cfg.Database.SSLMode)
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnvInt("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.PoolSize = getEnvInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize)

	cfg.API.RateLimit = getEnvInt("API_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.Timeout = getEnvDuration("API_TIMEOUT", cfg.API.Timeout)
	cfg.API.CORS.Enabled = getEnvBool("API_CORS_ENABLED", cfg.API.CORS.Enabled)

	cfg.Optimizer.DefaultBudget = getEnvDuration("OPTIMIZER_DEFAULT_BUDGET", cfg.Optimizer.DefaultBudget)
	cfg.Optimizer.MaxBudget = getEnvDuration("OPTIMIZER_MAX_BUDGET", cfg.Optimizer.MaxBudget)
	cfg.Optimizer.Workers = getEnvInt("OPTIMIZER_WORKERS", cfg.Optimizer.Workers)

	cfg.Hub.ConflictPolicy = getEnv("HUB_CONFLICT_POLICY", cfg.Hub.ConflictPolicy)
	cfg.Hub.ChangeLogSize = getEnvInt("HUB_CHANGE_LOG_SIZE", cfg.Hub.ChangeLogSize)
	cfg.Hub.BackpressureMaxMessages = getEnvInt("HUB_BACKPRESSURE_MAX_MESSAGES", cfg.Hub.BackpressureMaxMessages)
	cfg.Hub.BackpressureMaxBytes = getEnvInt("HUB_BACKPRESSURE_MAX_BYTES", cfg.Hub.BackpressureMaxBytes)
	cfg.Hub.PersistFailureThreshold = getEnvInt("HUB_PERSIST_FAILURE_THRESHOLD", cfg.Hub.PersistFailureThreshold)

	cfg.Wire.SymbolEncoding = getEnv("WIRE_SYMBOL_ENCODING", cfg.Wire.SymbolEncoding)

	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Path = getEnv("METRICS_PATH", cfg.Metrics.Path)
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
