package calculator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type valueKind uint8

const (
	kindUnset valueKind = iota
	kindNumber
	kindString
)

// RateValue is a bid or ask quote as it crosses into the calculators: either a
// native number or a numeric string. It is turned into an exact decimal once,
// by text(), and nothing downstream looks at which form it came in.
type RateValue struct {
	kind valueKind
	num  float64
	str  string
}

func Num(f float64) RateValue { return RateValue{kind: kindNumber, num: f} }

func Str(s string) RateValue { return RateValue{kind: kindString, str: s} }

func Nums(fs ...float64) []RateValue {
	out := make([]RateValue, len(fs))
	for i, f := range fs {
		out[i] = Num(f)
	}
	return out
}

func Strs(ss ...string) []RateValue {
	out := make([]RateValue, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}

// text returns the decimal text the value is parsed from. Numbers use their
// shortest round-trip form, so Num(0.1) reads as "0.1".
func (v RateValue) text() (string, error) {
	switch v.kind {
	case kindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return "", fmt.Errorf("%w: non-finite number %v", ErrInvalidArgument, v.num)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64), nil
	case kindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return "", fmt.Errorf("%w: empty numeric string", ErrInvalidArgument)
		}
		return s, nil
	default:
		return "", fmt.Errorf("%w: rate value not set", ErrInvalidArgument)
	}
}

// Decimal parses the value into an exact decimal.
func (v RateValue) Decimal() (decimal.Decimal, error) {
	s, err := v.text()
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", ErrInvalidArgument, s)
	}
	return d, nil
}

// Float64 converts at the boundary; string inputs lose whatever precision a
// float64 cannot hold.
func (v RateValue) Float64() (float64, error) {
	if v.kind == kindNumber {
		if _, err := v.text(); err != nil {
			return 0, err
		}
		return v.num, nil
	}
	d, err := v.Decimal()
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

func (v RateValue) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindString:
		return v.str
	default:
		return "<unset>"
	}
}

// UnmarshalJSON accepts a JSON number or a JSON string. Number literals keep
// their exact text.
func (v *RateValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("%w: null rate value", ErrInvalidArgument)
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Str(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, string(b))
	}
	*v = Str(n.String())
	return nil
}

func (v RateValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindNumber:
		return json.Marshal(v.num)
	case kindString:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}
