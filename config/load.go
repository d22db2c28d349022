package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env        string           `yaml:"env"`
	Calculator CalculatorConfig `yaml:"calculator"`
	Rates      RatesConfig      `yaml:"rates"`
	Cache      CacheConfig      `yaml:"cache"`
	History    HistoryConfig    `yaml:"history"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Alert      AlertConfig      `yaml:"alert"`
}

// CalculatorConfig 选择计算策略（decimal / apd）。
type CalculatorConfig struct {
	Strategy  string `yaml:"strategy"`
	Precision uint32 `yaml:"precision"` // 仅 apd 使用，有效位数
}

type RatesConfig struct {
	Types []string `yaml:"types"` // 需要计算的原始类型，例如 EUR_USD
}

type CacheConfig struct {
	Backend string      `yaml:"backend"` // memory 或 redis
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	Prefix     string `yaml:"prefix"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

type HistoryConfig struct {
	Path string `yaml:"path"` // 为空则不落库
}

type LogConfig struct {
	Level      string   `yaml:"level"`
	Format     string   `yaml:"format"`
	Outputs    []string `yaml:"outputs"`
	OutputFile string   `yaml:"outputFile"`
	ErrorFile  string   `yaml:"errorFile"`
}

type MetricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

type AlertConfig struct {
	ThrottleSeconds int `yaml:"throttleSeconds"`
}

// Load reads YAML config from path, fills defaults and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment-specific fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("RDE_CALCULATOR_STRATEGY"); v != "" {
		cfg.Calculator.Strategy = v
	}
	if v := os.Getenv("RDE_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("RDE_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	return cfg, Validate(cfg)
}

// ApplyDefaults 填充未配置的字段。
func ApplyDefaults(cfg *AppConfig) {
	cfg.Calculator.Strategy = strings.ToLower(strings.TrimSpace(cfg.Calculator.Strategy))
	if cfg.Calculator.Strategy == "" {
		cfg.Calculator.Strategy = "decimal"
	}
	if cfg.Calculator.Precision == 0 {
		cfg.Calculator.Precision = 20
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = "rates"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if len(cfg.Log.Outputs) == 0 {
		cfg.Log.Outputs = []string{"stdout"}
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "rate_engine"
	}
	if cfg.Alert.ThrottleSeconds == 0 {
		cfg.Alert.ThrottleSeconds = 60
	}
}
