package rate

import "fmt"

// ToCalculatedType maps a raw pair to the TRY pair it is published as:
// USD_TRY stays as is, EUR_USD becomes EUR_TRY.
func ToCalculatedType(rawType string) (string, error) {
	if rawType == USDTRY {
		return rawType, nil
	}
	if len(rawType) < 4 {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, rawType)
	}
	return rawType[:4] + "TRY", nil
}

// BidsAndAsks splits cached rates into parallel bid and ask slices.
func BidsAndAsks(rates []RawRate) (bids, asks []float64) {
	bids = make([]float64, 0, len(rates))
	asks = make([]float64, 0, len(rates))
	for _, r := range rates {
		bids = append(bids, r.Bid)
		asks = append(asks, r.Ask)
	}
	return bids, asks
}
