package calculator

import (
	"fmt"
	"strings"
	"time"
)

type StrategyType string

const (
	DecimalStrategy StrategyType = "decimal"
	APDStrategy     StrategyType = "apd"
)

// Strategies lists the keys Factory understands.
func Strategies() []string {
	return []string{string(DecimalStrategy), string(APDStrategy)}
}

// Supported reports whether Factory accepts strategy, using the same
// case/whitespace folding as Create.
func Supported(strategy string) bool {
	key := string(normalize(strategy))
	for _, s := range Strategies() {
		if s == key {
			return true
		}
	}
	return false
}

// FactoryConfig carries the knobs shared by all strategies.
type FactoryConfig struct {
	Precision uint32 // apd only
	Now       func() time.Time
}

// Factory resolves a configured strategy key to a calculator.
type Factory struct {
	cfg FactoryConfig
}

func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{cfg: cfg}
}

// NewArithmetic returns the backend for strategy; "" selects decimal.
func (f *Factory) NewArithmetic(strategy string) (Arithmetic, error) {
	switch normalize(strategy) {
	case DecimalStrategy:
		return decimalArithmetic{}, nil
	case APDStrategy:
		return newAPDArithmetic(f.cfg.Precision), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// Create builds the RateCalculator for strategy.
func (f *Factory) Create(strategy string) (RateCalculator, error) {
	arith, err := f.NewArithmetic(strategy)
	if err != nil {
		return nil, err
	}
	return NewCalculator(string(normalize(strategy)), arith, f.cfg.Now), nil
}

func normalize(strategy string) StrategyType {
	s := strings.ToLower(strings.TrimSpace(strategy))
	if s == "" {
		return DecimalStrategy
	}
	return StrategyType(s)
}
