package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The apd backend must agree with the decimal backend on everything that fits
// in its precision.
func TestAPDMatchesDecimal(t *testing.T) {
	a := newAPDArithmetic(DefaultPrecision)
	d := decimalArithmetic{}

	for _, backend := range []Arithmetic{a, d} {
		s, err := backend.Mean(Strs("1.1", "2.2"))
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString(s).Equal(decimal.RequireFromString("1.65")), "mean %s", s)

		bid, ask, err := backend.Means(Nums(1, 2), Nums(3, 4))
		require.NoError(t, err)
		assert.Equal(t, 1.5, bid)
		assert.Equal(t, 3.5, ask)

		mid, err := backend.Mid(Nums(1, 2), Nums(3, 4))
		require.NoError(t, err)
		assert.Equal(t, 2.5, mid)

		bid, ask, err = backend.Scale(Num(2), Nums(1, 2), Nums(3, 4))
		require.NoError(t, err)
		assert.Equal(t, 3.0, bid)
		assert.Equal(t, 7.0, ask)

		got, err := backend.PercentDiff(Num(100), Num(102), Num(99), Num(101))
		require.NoError(t, err)
		assert.False(t, got)

		got, err = backend.PercentDiff(Num(100), Num(100), Num(98), Num(98))
		require.NoError(t, err)
		assert.True(t, got)

		got, err = backend.PercentDiff(Num(100), Num(100), Num(99), Num(99))
		require.NoError(t, err)
		assert.True(t, got)
	}
}

func TestAPDErrors(t *testing.T) {
	a := newAPDArithmetic(0)

	_, err := a.Mean(nil)
	assert.ErrorIs(t, err, ErrEmptyRates)

	_, err = a.Mean(Strs("1", "one"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = a.PercentDiff(Num(1), Num(0), Num(1), Num(1))
	assert.ErrorIs(t, err, ErrZeroRate)

	_, _, err = a.Means(Nums(1), nil)
	assert.ErrorIs(t, err, ErrEmptyRates)

	for _, s := range []string{"NaN", "sNaN", "Infinity", "-Inf"} {
		_, err = a.Mean(Strs(s))
		assert.ErrorIs(t, err, ErrInvalidArgument, "mean(%s)", s)

		_, err = a.Mid(Strs(s), Strs("1"))
		assert.ErrorIs(t, err, ErrInvalidArgument, "mid(%s)", s)

		_, err = a.PercentDiff(Num(1), Num(1), Str(s), Num(1))
		assert.ErrorIs(t, err, ErrInvalidArgument, "diff(%s)", s)

		_, _, err = a.Scale(Str(s), Strs("1"), Strs("1"))
		assert.ErrorIs(t, err, ErrInvalidArgument, "scale(%s)", s)
	}

	// overflow raised by the context itself
	_, _, err = a.Scale(Str("1e99999"), Strs("1e99999"), Strs("1"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAPDPrecisionRoundsQuotient(t *testing.T) {
	a := newAPDArithmetic(5)
	s, err := a.Mean(Nums(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "0.33333", s)
}
