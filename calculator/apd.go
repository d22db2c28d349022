package calculator

import (
	"fmt"

	"github.com/cockroachdb/apd"
)

// DefaultPrecision is the significant-digit budget of the apd context.
const DefaultPrecision uint32 = 20

// apdArithmetic runs every operation, additions included, inside a context of
// fixed significant digits. Results match decimalArithmetic whenever they fit
// in the precision.
type apdArithmetic struct {
	ctx *apd.Context
}

func newAPDArithmetic(precision uint32) apdArithmetic {
	if precision == 0 {
		precision = DefaultPrecision
	}
	return apdArithmetic{ctx: apd.BaseContext.WithPrecision(precision)}
}

func (a apdArithmetic) parse(v RateValue) (*apd.Decimal, error) {
	s, err := v.text()
	if err != nil {
		return nil, err
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a decimal", ErrInvalidArgument, s)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("%w: %q is not a finite decimal", ErrInvalidArgument, s)
	}
	return d, nil
}

// checked turns an apd condition error (overflow, invalid operation, ...)
// into ErrInvalidArgument.
func checked(_ apd.Condition, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

func (a apdArithmetic) mean(values []RateValue) (*apd.Decimal, error) {
	if len(values) == 0 {
		return nil, ErrEmptyRates
	}
	sum := apd.New(0, 0)
	for i, v := range values {
		d, err := a.parse(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		next := new(apd.Decimal)
		if err := checked(a.ctx.Add(next, sum, d)); err != nil {
			return nil, err
		}
		sum = next
	}
	out := new(apd.Decimal)
	if err := checked(a.ctx.Quo(out, sum, apd.New(int64(len(values)), 0))); err != nil {
		return nil, err
	}
	return out, nil
}

func (a apdArithmetic) means(bids, asks []RateValue) (*apd.Decimal, *apd.Decimal, error) {
	bm, err := a.mean(bids)
	if err != nil {
		return nil, nil, fmt.Errorf("bids: %w", err)
	}
	am, err := a.mean(asks)
	if err != nil {
		return nil, nil, fmt.Errorf("asks: %w", err)
	}
	return bm, am, nil
}

func (a apdArithmetic) Mean(values []RateValue) (string, error) {
	m, err := a.mean(values)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

func (a apdArithmetic) Means(bids, asks []RateValue) (float64, float64, error) {
	bm, am, err := a.means(bids, asks)
	if err != nil {
		return 0, 0, err
	}
	return toFloats(bm, am)
}

func (a apdArithmetic) Mid(bids, asks []RateValue) (float64, error) {
	bm, am, err := a.means(bids, asks)
	if err != nil {
		return 0, err
	}
	sum := new(apd.Decimal)
	if err := checked(a.ctx.Add(sum, bm, am)); err != nil {
		return 0, err
	}
	mid := new(apd.Decimal)
	if err := checked(a.ctx.Quo(mid, sum, apd.New(2, 0))); err != nil {
		return 0, err
	}
	f, err := mid.Float64()
	return f, checked(0, err)
}

func (a apdArithmetic) PercentDiff(bid1, ask1, bid2, ask2 RateValue) (bool, error) {
	var ds [4]*apd.Decimal
	for i, v := range [4]RateValue{bid1, ask1, bid2, ask2} {
		d, err := a.parse(v)
		if err != nil {
			return false, err
		}
		ds[i] = d
	}
	pctBid, err := a.percentChange(ds[0], ds[2])
	if err != nil {
		return false, fmt.Errorf("bid: %w", err)
	}
	pctAsk, err := a.percentChange(ds[1], ds[3])
	if err != nil {
		return false, fmt.Errorf("ask: %w", err)
	}
	sum := new(apd.Decimal)
	if err := checked(a.ctx.Add(sum, pctAsk, pctBid)); err != nil {
		return false, err
	}
	avg := new(apd.Decimal)
	if err := checked(a.ctx.Quo(avg, sum, apd.New(2, 0))); err != nil {
		return false, err
	}
	return avg.Cmp(apd.New(1, 0)) >= 0, nil
}

func (a apdArithmetic) percentChange(ref, other *apd.Decimal) (*apd.Decimal, error) {
	if ref.Sign() == 0 {
		return nil, ErrZeroRate
	}
	diff := new(apd.Decimal)
	if err := checked(a.ctx.Sub(diff, ref, other)); err != nil {
		return nil, err
	}
	ratio := new(apd.Decimal)
	if err := checked(a.ctx.Quo(ratio, diff, ref)); err != nil {
		return nil, err
	}
	pct := new(apd.Decimal)
	if err := checked(a.ctx.Mul(pct, ratio, apd.New(100, 0))); err != nil {
		return nil, err
	}
	abs := new(apd.Decimal)
	if err := checked(a.ctx.Abs(abs, pct)); err != nil {
		return nil, err
	}
	return abs, nil
}

func (a apdArithmetic) Scale(usdmid RateValue, bids, asks []RateValue) (float64, float64, error) {
	mid, err := a.parse(usdmid)
	if err != nil {
		return 0, 0, fmt.Errorf("usdmid: %w", err)
	}
	bm, am, err := a.means(bids, asks)
	if err != nil {
		return 0, 0, err
	}
	bid := new(apd.Decimal)
	if err := checked(a.ctx.Mul(bid, bm, mid)); err != nil {
		return 0, 0, err
	}
	ask := new(apd.Decimal)
	if err := checked(a.ctx.Mul(ask, am, mid)); err != nil {
		return 0, 0, err
	}
	return toFloats(bid, ask)
}

func toFloats(x, y *apd.Decimal) (float64, float64, error) {
	fx, err := x.Float64()
	if err != nil {
		return 0, 0, checked(0, err)
	}
	fy, err := y.Float64()
	if err != nil {
		return 0, 0, checked(0, err)
	}
	return fx, fy, nil
}
