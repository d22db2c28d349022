package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rate-engine/cache"
	"rate-engine/calculator"
	"rate-engine/rate"
)

var (
	ErrNoCalculator = errors.New("rate calculator is required")
	ErrNoCache      = errors.New("rate cache is required")

	// ErrRateDropped is returned when an incoming rate diverges at least 1% from
	// the mean of the cached rates of its type.
	ErrRateDropped = errors.New("rate dropped")
)

// Recorder receives pipeline counters; infrastructure/monitor implements it.
type Recorder interface {
	RawRateReceived(rateType, provider string)
	RateDropped(rateType, provider string)
	CalculatedRate(rateType string)
	CalculatorError(operation string)
	CacheError(operation string)
	USDMid(v float64)
	ObserveCalculation(d time.Duration)
}

// Alerter raises operator-facing alerts; infrastructure/alert implements it.
type Alerter interface {
	SendError(message string, fields map[string]interface{}) error
}

// HistoryWriter persists every calculated value.
type HistoryWriter interface {
	InsertCalculatedRate(ctx context.Context, r rate.CalculatedRate) error
	InsertUSDMid(ctx context.Context, v float64, ts time.Time) error
}

// EventSink receives structured log events.
type EventSink func(event string, fields map[string]interface{})

type Config struct {
	Calculator calculator.RateCalculator
	Cache      cache.RateCache

	// RateTypes are the raw types recalculated whenever USD_TRY moves.
	RateTypes []string
	Publisher *Publisher
	History   HistoryWriter
	Recorder  Recorder
	Alerts    Alerter
	Events    EventSink
	Now       func() time.Time
}

// Manager 负责原始报价入缓存、偏离过滤、USDMID 与派生汇率的计算和分发。
type Manager struct {
	mu        sync.Mutex
	calc      calculator.RateCalculator
	cache     cache.RateCache
	rateTypes []string
	publisher *Publisher
	history   HistoryWriter
	recorder  Recorder
	alerts    Alerter
	events    EventSink
	now       func() time.Time
}

func New(cfg Config) (*Manager, error) {
	if cfg.Calculator == nil {
		return nil, ErrNoCalculator
	}
	if cfg.Cache == nil {
		return nil, ErrNoCache
	}
	m := &Manager{
		calc:      cfg.Calculator,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		history:   cfg.History,
		recorder:  cfg.Recorder,
		alerts:    cfg.Alerts,
		events:    cfg.Events,
		now:       cfg.Now,
	}
	for _, t := range cfg.RateTypes {
		if t != rate.USDTRY {
			m.rateTypes = append(m.rateTypes, t)
		}
	}
	if m.publisher == nil {
		m.publisher = NewPublisher(1)
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

func (m *Manager) Publisher() *Publisher { return m.publisher }

// SetCalculator swaps the strategy; in-flight rates finish on the old one.
func (m *Manager) SetCalculator(c calculator.RateCalculator) {
	if c == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calc = c
}

func (m *Manager) Calculator() calculator.RateCalculator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calc
}

// HandleRawRate runs one incoming rate through the pipeline.
func (m *Manager) HandleRawRate(ctx context.Context, incoming rate.RawRate) error {
	if err := incoming.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	start := m.now()
	defer func() { m.recorder.ObserveCalculation(m.now().Sub(start)) }()

	m.recorder.RawRateReceived(incoming.Type, incoming.Provider)
	m.emit("raw_rate", map[string]interface{}{
		"type":     incoming.Type,
		"provider": incoming.Provider,
		"bid":      incoming.Bid,
		"ask":      incoming.Ask,
	})
	m.publisher.PublishRaw(incoming)

	_, seen, err := m.cache.RawRate(ctx, incoming.Type, incoming.Provider)
	if err != nil {
		return m.cacheFailure("get_raw_rate", err)
	}
	if seen {
		if err := m.checkDivergence(ctx, incoming); err != nil {
			return err
		}
	}
	if err := m.cache.SaveRawRate(ctx, incoming); err != nil {
		return m.cacheFailure("save_raw_rate", err)
	}

	if incoming.Type != rate.USDTRY {
		return m.calculateForType(ctx, incoming.Type)
	}

	if err := m.refreshUSDMid(ctx, incoming); err != nil {
		return err
	}
	var errs []error
	if err := m.calculateUSDTRY(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, t := range m.rateTypes {
		if err := m.calculateForType(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) checkDivergence(ctx context.Context, incoming rate.RawRate) error {
	cached, err := m.cache.RawRatesForType(ctx, incoming.Type)
	if err != nil {
		return m.cacheFailure("get_raw_rates", err)
	}
	if len(cached) == 0 {
		return m.cacheFailure("get_raw_rates", fmt.Errorf("no cached rates for %s", incoming.Type))
	}
	bids, asks := values(cached)
	mean, err := m.calc.MeanRate(bids, asks)
	if err != nil {
		return m.calculatorFailure("mean_rate", incoming.Type, err)
	}
	diverged, err := m.calc.HasAtLeastOnePercentDiff(incoming, mean)
	if err != nil {
		return m.calculatorFailure("percent_diff", incoming.Type, err)
	}
	if !diverged {
		return nil
	}
	m.recorder.RateDropped(incoming.Type, incoming.Provider)
	m.emit("rate_dropped", map[string]interface{}{
		"type":     incoming.Type,
		"provider": incoming.Provider,
		"bid":      incoming.Bid,
		"ask":      incoming.Ask,
		"meanBid":  mean.Bid,
		"meanAsk":  mean.Ask,
	})
	return fmt.Errorf("%w: %s from %s differs at least 1%% from mean", ErrRateDropped, incoming.Type, incoming.Provider)
}

// refreshUSDMid seeds USDMID from the first USD_TRY quote, then keeps it at the
// mid of all cached USD_TRY quotes.
func (m *Manager) refreshUSDMid(ctx context.Context, incoming rate.RawRate) error {
	_, ok, err := m.cache.USDMid(ctx)
	if err != nil {
		return m.cacheFailure("get_usdmid", err)
	}
	bids, asks := calculator.Nums(incoming.Bid), calculator.Nums(incoming.Ask)
	if ok {
		cached, err := m.cache.RawRatesForType(ctx, rate.USDTRY)
		if err != nil {
			return m.cacheFailure("get_raw_rates", err)
		}
		if len(cached) == 0 {
			return m.cacheFailure("get_raw_rates", fmt.Errorf("no cached rates for %s", rate.USDTRY))
		}
		bids, asks = values(cached)
	}
	mid, err := m.calc.USDMid(bids, asks)
	if err != nil {
		return m.calculatorFailure("usdmid", rate.USDTRY, err)
	}
	if err := m.cache.SaveUSDMid(ctx, mid); err != nil {
		return m.cacheFailure("save_usdmid", err)
	}
	if m.history != nil {
		if err := m.history.InsertUSDMid(ctx, mid, m.now()); err != nil {
			return m.cacheFailure("history_usdmid", err)
		}
	}
	m.recorder.USDMid(mid)
	m.emit("usdmid", map[string]interface{}{"value": mid, "initial": !ok})
	return nil
}

func (m *Manager) calculateUSDTRY(ctx context.Context) error {
	cached, err := m.cache.RawRatesForType(ctx, rate.USDTRY)
	if err != nil {
		return m.cacheFailure("get_raw_rates", err)
	}
	if len(cached) == 0 {
		m.skip(rate.USDTRY, "no cached rates")
		return nil
	}
	bids, asks := values(cached)
	calc, err := m.calc.ForUSDTRY(bids, asks)
	if err != nil {
		return m.calculatorFailure("for_usd_try", rate.USDTRY, err)
	}
	return m.store(ctx, calc)
}

func (m *Manager) calculateForType(ctx context.Context, rateType string) error {
	mid, ok, err := m.cache.USDMid(ctx)
	if err != nil {
		return m.cacheFailure("get_usdmid", err)
	}
	if !ok {
		m.skip(rateType, "usdmid not available")
		return nil
	}
	cached, err := m.cache.RawRatesForType(ctx, rateType)
	if err != nil {
		return m.cacheFailure("get_raw_rates", err)
	}
	if len(cached) == 0 {
		m.skip(rateType, "no cached rates")
		return nil
	}
	bids, asks := values(cached)
	calc, err := m.calc.ForRawRateType(rateType, mid, bids, asks)
	if err != nil {
		return m.calculatorFailure("for_raw_rate_type", rateType, err)
	}
	return m.store(ctx, calc)
}

func (m *Manager) store(ctx context.Context, calc rate.CalculatedRate) error {
	if err := m.cache.SaveCalculatedRate(ctx, calc); err != nil {
		return m.cacheFailure("save_calculated_rate", err)
	}
	if m.history != nil {
		if err := m.history.InsertCalculatedRate(ctx, calc); err != nil {
			return m.cacheFailure("history_calculated_rate", err)
		}
	}
	m.publisher.PublishCalculated(calc)
	m.recorder.CalculatedRate(calc.Type)
	m.emit("calc_rate", map[string]interface{}{
		"type":     calc.Type,
		"bid":      calc.Bid,
		"ask":      calc.Ask,
		"strategy": m.calc.Strategy(),
	})
	return nil
}

func (m *Manager) skip(rateType, reason string) {
	m.emit("calc_skipped", map[string]interface{}{"type": rateType, "reason": reason})
}

func (m *Manager) calculatorFailure(op, rateType string, err error) error {
	m.recorder.CalculatorError(op)
	fields := map[string]interface{}{
		"strategy":  m.calc.Strategy(),
		"operation": op,
		"type":      rateType,
		"error":     err.Error(),
	}
	m.emit("calculator_error", fields)
	m.alert("calculator error", fields)
	return fmt.Errorf("calculator %s %s: %w", m.calc.Strategy(), op, err)
}

func (m *Manager) cacheFailure(op string, err error) error {
	m.recorder.CacheError(op)
	fields := map[string]interface{}{
		"cache":     m.cache.Name(),
		"operation": op,
		"error":     err.Error(),
	}
	m.emit("cache_error", fields)
	m.alert("cache error", fields)
	return fmt.Errorf("cache %s %s: %w", m.cache.Name(), op, err)
}

func (m *Manager) alert(msg string, fields map[string]interface{}) {
	if m.alerts == nil {
		return
	}
	if err := m.alerts.SendError(msg, fields); err != nil {
		m.emit("alert_failed", map[string]interface{}{"message": msg, "error": err.Error()})
	}
}

func (m *Manager) emit(event string, fields map[string]interface{}) {
	if m.events != nil {
		m.events(event, fields)
	}
}

func values(rates []rate.RawRate) (bids, asks []calculator.RateValue) {
	b, a := rate.BidsAndAsks(rates)
	return calculator.Nums(b...), calculator.Nums(a...)
}

type nopRecorder struct{}

func (nopRecorder) RawRateReceived(string, string)   {}
func (nopRecorder) RateDropped(string, string)       {}
func (nopRecorder) CalculatedRate(string)            {}
func (nopRecorder) CalculatorError(string)           {}
func (nopRecorder) CacheError(string)                {}
func (nopRecorder) USDMid(float64)                   {}
func (nopRecorder) ObserveCalculation(time.Duration) {}
