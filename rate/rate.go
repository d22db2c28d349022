package rate

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// USDTRY is the reference pair; every other calculated rate is derived through its mid.
const USDTRY = "USD_TRY"

var (
	ErrInvalidType = errors.New("invalid rate type")
	ErrInvalidRate = errors.New("invalid raw rate")
)

// RawRate 是某个 provider 对某个交易对的一次报价。
type RawRate struct {
	Type      string    `json:"type"`
	Provider  string    `json:"provider"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Timestamp time.Time `json:"timestamp"`
}

// MeanRate 同一交易对所有缓存报价的 bid/ask 均值。
type MeanRate struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

// CalculatedRate 对外发布的计算结果（例如 EUR_TRY）。
type CalculatedRate struct {
	Type      string    `json:"type"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate rejects rates the calculators cannot work with.
func (r RawRate) Validate() error {
	if r.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidRate)
	}
	if r.Provider == "" {
		return fmt.Errorf("%w: provider is required", ErrInvalidRate)
	}
	if !positive(r.Bid) || !positive(r.Ask) {
		return fmt.Errorf("%w: %s/%s bid=%v ask=%v must be finite and > 0", ErrInvalidRate, r.Type, r.Provider, r.Bid, r.Ask)
	}
	return nil
}

func (r RawRate) String() string {
	return fmt.Sprintf("RawRate[type=%s provider=%s bid=%v ask=%v ts=%s]",
		r.Type, r.Provider, r.Bid, r.Ask, r.Timestamp.Format(time.RFC3339Nano))
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
