package calculator

import (
	"fmt"
	"time"

	"rate-engine/rate"
)

// RateCalculator is what the rate manager needs from a calculation strategy.
type RateCalculator interface {
	Strategy() string
	MeanRate(bids, asks []RateValue) (rate.MeanRate, error)
	USDMid(bids, asks []RateValue) (float64, error)
	HasAtLeastOnePercentDiff(incoming rate.RawRate, mean rate.MeanRate) (bool, error)
	ForRawRateType(rateType string, usdmid float64, bids, asks []RateValue) (rate.CalculatedRate, error)
	ForUSDTRY(bids, asks []RateValue) (rate.CalculatedRate, error)
}

// Arithmetic is the exact-decimal backend of a strategy. Mean returns decimal
// text; everything else converts to float64 on return.
type Arithmetic interface {
	Mean(values []RateValue) (string, error)
	Means(bids, asks []RateValue) (bid, ask float64, err error)
	Mid(bids, asks []RateValue) (float64, error)
	PercentDiff(bid1, ask1, bid2, ask2 RateValue) (bool, error)
	Scale(usdmid RateValue, bids, asks []RateValue) (bid, ask float64, err error)
}

// Calculator adapts an Arithmetic to RateCalculator.
type Calculator struct {
	strategy string
	arith    Arithmetic
	now      func() time.Time
}

func NewCalculator(strategy string, arith Arithmetic, now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{strategy: strategy, arith: arith, now: now}
}

func (c *Calculator) Strategy() string { return c.strategy }

func (c *Calculator) MeanRate(bids, asks []RateValue) (rate.MeanRate, error) {
	bid, ask, err := c.arith.Means(bids, asks)
	if err != nil {
		return rate.MeanRate{}, fmt.Errorf("mean rate: %w", err)
	}
	return rate.MeanRate{Bid: bid, Ask: ask}, nil
}

func (c *Calculator) USDMid(bids, asks []RateValue) (float64, error) {
	mid, err := c.arith.Mid(bids, asks)
	if err != nil {
		return 0, fmt.Errorf("usdmid: %w", err)
	}
	return mid, nil
}

// HasAtLeastOnePercentDiff compares the incoming quote against the mean, with
// the incoming quote as the reference snapshot.
func (c *Calculator) HasAtLeastOnePercentDiff(incoming rate.RawRate, mean rate.MeanRate) (bool, error) {
	ok, err := c.arith.PercentDiff(Num(incoming.Bid), Num(incoming.Ask), Num(mean.Bid), Num(mean.Ask))
	if err != nil {
		return false, fmt.Errorf("percent diff %s/%s: %w", incoming.Type, incoming.Provider, err)
	}
	return ok, nil
}

func (c *Calculator) ForRawRateType(rateType string, usdmid float64, bids, asks []RateValue) (rate.CalculatedRate, error) {
	calcType, err := rate.ToCalculatedType(rateType)
	if err != nil {
		return rate.CalculatedRate{}, err
	}
	bid, ask, err := c.arith.Scale(Num(usdmid), bids, asks)
	if err != nil {
		return rate.CalculatedRate{}, fmt.Errorf("calculate %s: %w", rateType, err)
	}
	return rate.CalculatedRate{Type: calcType, Bid: bid, Ask: ask, Timestamp: c.now()}, nil
}

func (c *Calculator) ForUSDTRY(bids, asks []RateValue) (rate.CalculatedRate, error) {
	bid, ask, err := c.arith.Means(bids, asks)
	if err != nil {
		return rate.CalculatedRate{}, fmt.Errorf("calculate %s: %w", rate.USDTRY, err)
	}
	return rate.CalculatedRate{Type: rate.USDTRY, Bid: bid, Ask: ask, Timestamp: c.now()}, nil
}

var _ RateCalculator = (*Calculator)(nil)
