package cache

import (
	"context"
	"errors"

	"rate-engine/rate"
)

var ErrUnknownBackend = errors.New("unknown cache backend")

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// RateCache 保存每个 provider 的最新原始报价、计算结果以及 USDMID。
type RateCache interface {
	Name() string

	SaveRawRate(ctx context.Context, r rate.RawRate) error
	// RawRate returns the latest rate of provider for rateType.
	RawRate(ctx context.Context, rateType, provider string) (rate.RawRate, bool, error)
	// RawRatesForType returns the latest rate of every provider, ordered by provider.
	RawRatesForType(ctx context.Context, rateType string) ([]rate.RawRate, error)

	SaveCalculatedRate(ctx context.Context, r rate.CalculatedRate) error
	CalculatedRate(ctx context.Context, rateType string) (rate.CalculatedRate, bool, error)

	SaveUSDMid(ctx context.Context, v float64) error
	USDMid(ctx context.Context) (float64, bool, error)
}
