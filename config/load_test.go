package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const minimalConfig = `
env: dev
rates:
  types: [USD_TRY, EUR_USD, GBP_USD]
`

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
calculator:
  strategy: APD
  precision: 30
rates:
  types: [USD_TRY, EUR_USD]
cache:
  backend: redis
  redis:
    addr: 127.0.0.1:6379
    db: 2
    ttlSeconds: 600
history:
  path: data/history.db
metrics:
  addr: ":9101"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Calculator.Strategy != "apd" || cfg.Calculator.Precision != 30 {
		t.Fatalf("unexpected calculator config: %+v", cfg.Calculator)
	}
	if cfg.Cache.Redis.Addr != "127.0.0.1:6379" || cfg.Cache.Redis.DB != 2 || cfg.Cache.Redis.Prefix != "rates" {
		t.Fatalf("unexpected redis config: %+v", cfg.Cache.Redis)
	}
	if len(cfg.Rates.Types) != 2 || cfg.History.Path != "data/history.db" {
		t.Fatalf("unexpected cfg values: %+v", cfg)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Calculator.Strategy != "decimal" || cfg.Calculator.Precision != 20 {
		t.Fatalf("calculator defaults not applied: %+v", cfg.Calculator)
	}
	if cfg.Cache.Backend != "memory" || cfg.Log.Level != "info" || cfg.Metrics.Namespace != "rate_engine" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Alert.ThrottleSeconds != 60 {
		t.Fatalf("alert throttle default not applied: %d", cfg.Alert.ThrottleSeconds)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
env: prod
rates:
  types: [EUR_USD]
cache:
  backend: redis
  redis:
    addr: redis:6379
`)
	t.Setenv("RDE_CALCULATOR_STRATEGY", "apd")
	t.Setenv("RDE_REDIS_ADDR", "10.0.0.1:6379")
	t.Setenv("RDE_REDIS_PASSWORD", "env-secret")
	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Calculator.Strategy != "apd" {
		t.Fatalf("strategy override not applied: %+v", cfg.Calculator)
	}
	if cfg.Cache.Redis.Addr != "10.0.0.1:6379" || cfg.Cache.Redis.Password != "env-secret" {
		t.Fatalf("env overrides not applied: %+v", cfg.Cache.Redis)
	}
}

func TestLoadRejectsBadEnvStrategy(t *testing.T) {
	t.Setenv("RDE_CALCULATOR_STRATEGY", "python")
	if _, err := LoadWithEnvOverrides(writeTempConfig(t, minimalConfig)); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(AppConfig{}); err == nil {
		t.Fatalf("expected error for empty config")
	}

	valid := AppConfig{Env: "dev", Rates: RatesConfig{Types: []string{"EUR_USD"}}}
	ApplyDefaults(&valid)
	if err := Validate(valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// strategy keys fold case and whitespace the same way the calculator factory does
	for _, strategy := range []string{" APD ", "Decimal", ""} {
		cfg := valid
		cfg.Calculator.Strategy = strategy
		if err := Validate(cfg); err != nil {
			t.Fatalf("strategy %q: unexpected error: %v", strategy, err)
		}
	}

	cases := map[string]func(*AppConfig){
		"strategy":      func(c *AppConfig) { c.Calculator.Strategy = "javascript" },
		"precision":     func(c *AppConfig) { c.Calculator.Precision = 1000 },
		"bad type":      func(c *AppConfig) { c.Rates.Types = []string{"EUR"} },
		"duplicate":     func(c *AppConfig) { c.Rates.Types = []string{"EUR_USD", "EUR_USD"} },
		"backend":       func(c *AppConfig) { c.Cache.Backend = "memcached" },
		"redis addr":    func(c *AppConfig) { c.Cache.Backend = "redis" },
		"negative ttl":  func(c *AppConfig) { c.Cache.Backend = "redis"; c.Cache.Redis.Addr = "x:1"; c.Cache.Redis.TTLSeconds = -1 },
		"alert":         func(c *AppConfig) { c.Alert.ThrottleSeconds = -5 },
	}
	for name, mutate := range cases {
		cfg := valid
		cfg.Rates.Types = append([]string(nil), valid.Rates.Types...)
		mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
