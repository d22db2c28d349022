package calculator

import (
	"errors"
	"testing"
	"time"

	"rate-engine/rate"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCalculator(t *testing.T, strategy string) RateCalculator {
	t.Helper()
	c, err := NewFactory(FactoryConfig{Now: func() time.Time { return fixedNow }}).Create(strategy)
	if err != nil {
		t.Fatalf("create %s: %v", strategy, err)
	}
	return c
}

func TestCalculatorOperations(t *testing.T) {
	for _, strategy := range Strategies() {
		t.Run(strategy, func(t *testing.T) {
			c := newTestCalculator(t, strategy)
			if c.Strategy() != strategy {
				t.Fatalf("strategy = %s", c.Strategy())
			}

			mean, err := c.MeanRate(Strs("1.1", "2.2"), Nums(3, 4))
			if err != nil {
				t.Fatalf("mean rate: %v", err)
			}
			if mean.Bid != 1.65 || mean.Ask != 3.5 {
				t.Fatalf("unexpected mean %+v", mean)
			}

			mid, err := c.USDMid(Nums(1, 2), Nums(3, 4))
			if err != nil || mid != 2.5 {
				t.Fatalf("usdmid = %v, %v", mid, err)
			}

			diverged, err := c.HasAtLeastOnePercentDiff(
				rate.RawRate{Type: "USD_TRY", Provider: "PF1", Bid: 100, Ask: 102},
				rate.MeanRate{Bid: 99, Ask: 101})
			if err != nil || diverged {
				t.Fatalf("diff = %v, %v", diverged, err)
			}

			calc, err := c.ForRawRateType("EUR_USD", 2, Nums(1, 2), Nums(3, 4))
			if err != nil {
				t.Fatalf("for raw type: %v", err)
			}
			want := rate.CalculatedRate{Type: "EUR_TRY", Bid: 3, Ask: 7, Timestamp: fixedNow}
			if calc != want {
				t.Fatalf("got %+v want %+v", calc, want)
			}

			usdtry, err := c.ForUSDTRY(Nums(33, 34), Nums(35, 36))
			if err != nil {
				t.Fatalf("for usd_try: %v", err)
			}
			if usdtry.Type != rate.USDTRY || usdtry.Bid != 33.5 || usdtry.Ask != 35.5 {
				t.Fatalf("unexpected usd_try %+v", usdtry)
			}
		})
	}
}

func TestCalculatorPropagatesErrors(t *testing.T) {
	c := newTestCalculator(t, "decimal")

	if _, err := c.MeanRate(nil, Nums(1)); !errors.Is(err, ErrEmptyRates) {
		t.Fatalf("expected ErrEmptyRates, got %v", err)
	}
	if _, err := c.HasAtLeastOnePercentDiff(rate.RawRate{Bid: 0, Ask: 1}, rate.MeanRate{Bid: 1, Ask: 1}); !errors.Is(err, ErrZeroRate) {
		t.Fatalf("expected ErrZeroRate, got %v", err)
	}
	if _, err := c.ForRawRateType("EU", 1, Nums(1), Nums(1)); !errors.Is(err, rate.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if _, err := c.ForUSDTRY(Nums(1), nil); !errors.Is(err, ErrEmptyRates) {
		t.Fatalf("expected ErrEmptyRates, got %v", err)
	}
}
