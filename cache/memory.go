package cache

import (
	"context"
	"sort"
	"sync"

	"rate-engine/rate"
)

// Memory is a process-local RateCache.
type Memory struct {
	mu     sync.RWMutex
	raw    map[string]map[string]rate.RawRate // type -> provider -> rate
	calc   map[string]rate.CalculatedRate
	usdmid float64
	hasMid bool
}

func NewMemory() *Memory {
	return &Memory{
		raw:  make(map[string]map[string]rate.RawRate),
		calc: make(map[string]rate.CalculatedRate),
	}
}

func (m *Memory) Name() string { return BackendMemory }

func (m *Memory) SaveRawRate(_ context.Context, r rate.RawRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byProvider, ok := m.raw[r.Type]
	if !ok {
		byProvider = make(map[string]rate.RawRate)
		m.raw[r.Type] = byProvider
	}
	byProvider[r.Provider] = r
	return nil
}

func (m *Memory) RawRate(_ context.Context, rateType, provider string) (rate.RawRate, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.raw[rateType][provider]
	return r, ok, nil
}

func (m *Memory) RawRatesForType(_ context.Context, rateType string) ([]rate.RawRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byProvider := m.raw[rateType]
	out := make([]rate.RawRate, 0, len(byProvider))
	for _, r := range byProvider {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

func (m *Memory) SaveCalculatedRate(_ context.Context, r rate.CalculatedRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calc[r.Type] = r
	return nil
}

func (m *Memory) CalculatedRate(_ context.Context, rateType string) (rate.CalculatedRate, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.calc[rateType]
	return r, ok, nil
}

func (m *Memory) SaveUSDMid(_ context.Context, v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usdmid = v
	m.hasMid = true
	return nil
}

func (m *Memory) USDMid(_ context.Context) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usdmid, m.hasMid, nil
}

var _ RateCache = (*Memory)(nil)
