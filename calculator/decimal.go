package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DivisionScale is the number of fractional digits a non-terminating quotient
// keeps beyond the finest operand. Every other operation is exact.
const DivisionScale int32 = 20

var (
	hundred    = decimal.NewFromInt(100)
	two        = decimal.NewFromInt(2)
	onePercent = decimal.NewFromInt(1)
)

// quo rounds at DivisionScale digits past the finest operand, so a quotient
// such as x/1 never loses digits of x.
func quo(x, y decimal.Decimal) decimal.Decimal {
	return x.DivRound(y, DivisionScale+max(fracDigits(x), fracDigits(y)))
}

func fracDigits(d decimal.Decimal) int32 {
	if e := d.Exponent(); e < 0 {
		return -e
	}
	return 0
}

// Mean returns the arithmetic mean of values. An empty list is an error, never zero.
func Mean(values []RateValue) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Zero, ErrEmptyRates
	}
	sum := decimal.Zero
	for i, v := range values {
		d, err := v.Decimal()
		if err != nil {
			return decimal.Zero, fmt.Errorf("value %d: %w", i, err)
		}
		sum = sum.Add(d)
	}
	return quo(sum, decimal.NewFromInt(int64(len(values)))), nil
}

// MeansOf averages bids and asks independently.
func MeansOf(bids, asks []RateValue) (bidMean, askMean decimal.Decimal, err error) {
	if bidMean, err = Mean(bids); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("bids: %w", err)
	}
	if askMean, err = Mean(asks); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("asks: %w", err)
	}
	return bidMean, askMean, nil
}

// USDMid is (mean(bids) + mean(asks)) / 2. The float64 conversion on return is
// the only rounding besides DivisionScale.
func USDMid(bids, asks []RateValue) (float64, error) {
	bm, am, err := MeansOf(bids, asks)
	if err != nil {
		return 0, err
	}
	return quo(bm.Add(am), two).InexactFloat64(), nil
}

// HasAtLeastOnePercentDiff reports whether the average of the bid and ask
// percentage changes from snapshot 1 to snapshot 2 is >= 1. Changes are
// relative to snapshot 1, so swapping the snapshots can change the answer.
func HasAtLeastOnePercentDiff(bid1, ask1, bid2, ask2 RateValue) (bool, error) {
	avg, err := averagePercentDiff(bid1, ask1, bid2, ask2)
	if err != nil {
		return false, err
	}
	return avg.GreaterThanOrEqual(onePercent), nil
}

func averagePercentDiff(bid1, ask1, bid2, ask2 RateValue) (decimal.Decimal, error) {
	var ds [4]decimal.Decimal
	for i, v := range [4]RateValue{bid1, ask1, bid2, ask2} {
		d, err := v.Decimal()
		if err != nil {
			return decimal.Zero, err
		}
		ds[i] = d
	}
	pctBid, err := percentChange(ds[0], ds[2])
	if err != nil {
		return decimal.Zero, fmt.Errorf("bid: %w", err)
	}
	pctAsk, err := percentChange(ds[1], ds[3])
	if err != nil {
		return decimal.Zero, fmt.Errorf("ask: %w", err)
	}
	return quo(pctAsk.Add(pctBid), two), nil
}

// percentChange is |ref - other| / ref * 100.
func percentChange(ref, other decimal.Decimal) (decimal.Decimal, error) {
	if ref.IsZero() {
		return decimal.Zero, ErrZeroRate
	}
	return quo(ref.Sub(other), ref).Mul(hundred).Abs(), nil
}

// ScaleByMid multiplies the bid and ask means by usdmid.
func ScaleByMid(usdmid RateValue, bids, asks []RateValue) (bid, ask float64, err error) {
	mid, err := usdmid.Decimal()
	if err != nil {
		return 0, 0, fmt.Errorf("usdmid: %w", err)
	}
	bm, am, err := MeansOf(bids, asks)
	if err != nil {
		return 0, 0, err
	}
	return bm.Mul(mid).InexactFloat64(), am.Mul(mid).InexactFloat64(), nil
}

type decimalArithmetic struct{}

func (decimalArithmetic) Mean(values []RateValue) (string, error) {
	m, err := Mean(values)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

func (decimalArithmetic) Means(bids, asks []RateValue) (float64, float64, error) {
	bm, am, err := MeansOf(bids, asks)
	if err != nil {
		return 0, 0, err
	}
	return bm.InexactFloat64(), am.InexactFloat64(), nil
}

func (decimalArithmetic) Mid(bids, asks []RateValue) (float64, error) {
	return USDMid(bids, asks)
}

func (decimalArithmetic) PercentDiff(bid1, ask1, bid2, ask2 RateValue) (bool, error) {
	return HasAtLeastOnePercentDiff(bid1, ask1, bid2, ask2)
}

func (decimalArithmetic) Scale(usdmid RateValue, bids, asks []RateValue) (float64, float64, error) {
	return ScaleByMid(usdmid, bids, asks)
}
