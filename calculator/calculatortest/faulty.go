// Package calculatortest provides broken calculators for exercising the error
// paths of code that depends on calculator.RateCalculator.
package calculatortest

import (
	"time"

	"rate-engine/calculator"
	"rate-engine/rate"
)

const (
	FaultyStrategy = "faulty"
	BrokenStrategy = "broken"
)

// Faulty behaves like the decimal strategy except that its mean entry point is
// missing.
type Faulty struct {
	*calculator.Calculator
}

func NewFaulty(now func() time.Time) *Faulty {
	arith, _ := calculator.NewFactory(calculator.FactoryConfig{}).NewArithmetic(string(calculator.DecimalStrategy))
	return &Faulty{Calculator: calculator.NewCalculator(FaultyStrategy, arith, now)}
}

func (f *Faulty) MeanRate(bids, asks []calculator.RateValue) (rate.MeanRate, error) {
	return rate.MeanRate{}, calculator.ErrOperationMissing
}

// Broken returns a malformed mean and divides by zero when asked for USDMID.
type Broken struct {
	*calculator.Calculator
}

func NewBroken(now func() time.Time) *Broken {
	arith, _ := calculator.NewFactory(calculator.FactoryConfig{}).NewArithmetic(string(calculator.DecimalStrategy))
	return &Broken{Calculator: calculator.NewCalculator(BrokenStrategy, arith, now)}
}

func (b *Broken) MeanRate(bids, asks []calculator.RateValue) (rate.MeanRate, error) {
	return rate.MeanRate{}, calculator.ErrMalformedResult
}

func (b *Broken) USDMid(bids, asks []calculator.RateValue) (float64, error) {
	return 0, calculator.ErrZeroRate
}

var (
	_ calculator.RateCalculator = (*Faulty)(nil)
	_ calculator.RateCalculator = (*Broken)(nil)
)
