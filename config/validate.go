package config

import (
	"errors"
	"fmt"
	"strings"

	"rate-engine/calculator"
)

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if !calculator.Supported(cfg.Calculator.Strategy) {
		return fmt.Errorf("calculator.strategy %q is not supported (want one of %s)",
			cfg.Calculator.Strategy, strings.Join(calculator.Strategies(), ", "))
	}
	if cfg.Calculator.Precision > 100 {
		return fmt.Errorf("calculator.precision %d must be <= 100", cfg.Calculator.Precision)
	}
	if len(cfg.Rates.Types) == 0 {
		return errors.New("rates.types is required")
	}
	seen := make(map[string]bool, len(cfg.Rates.Types))
	for _, t := range cfg.Rates.Types {
		if len(t) < 4 || !strings.Contains(t, "_") {
			return fmt.Errorf("rates.types entry %q must look like EUR_USD", t)
		}
		if seen[t] {
			return fmt.Errorf("rates.types entry %q is duplicated", t)
		}
		seen[t] = true
	}
	switch cfg.Cache.Backend {
	case "memory":
	case "redis":
		if cfg.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required (or RDE_REDIS_ADDR)")
		}
		if cfg.Cache.Redis.DB < 0 {
			return errors.New("cache.redis.db must be >= 0")
		}
		if cfg.Cache.Redis.TTLSeconds < 0 {
			return errors.New("cache.redis.ttlSeconds must be >= 0")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", cfg.Cache.Backend)
	}
	if cfg.Alert.ThrottleSeconds < 0 {
		return errors.New("alert.throttleSeconds must be >= 0")
	}
	return nil
}
