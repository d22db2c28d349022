package container

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate-engine/config"
	"rate-engine/rate"
)

func testConfig(t *testing.T) config.AppConfig {
	cfg := config.AppConfig{
		Env:     "test",
		Rates:   config.RatesConfig{Types: []string{"USD_TRY", "EUR_USD"}},
		History: config.HistoryConfig{Path: filepath.Join(t.TempDir(), "history.db")},
		Metrics: config.MetricsConfig{Addr: "127.0.0.1:0"},
	}
	config.ApplyDefaults(&cfg)
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func TestContainerLifecycle(t *testing.T) {
	c := NewWithConfig(testConfig(t))
	require.NoError(t, c.Build())

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.HealthCheck())

	now := time.Now()
	require.NoError(t, c.Manager().HandleRawRate(ctx, rate.RawRate{Type: "USD_TRY", Provider: "PF1", Bid: 33.0, Ask: 33.2, Timestamp: now}))
	require.NoError(t, c.Manager().HandleRawRate(ctx, rate.RawRate{Type: "EUR_USD", Provider: "PF1", Bid: 1.08, Ask: 1.09, Timestamp: now}))

	latest, ok, err := c.history.LatestCalculatedRate(ctx, "EUR_TRY")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 1.08*33.1, latest.Bid, 1e-9)

	require.NoError(t, c.Stop())
}

func TestApplyConfigSwapsStrategy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Addr = ""
	c := NewWithConfig(cfg)
	require.NoError(t, c.Build())
	assert.Equal(t, "decimal", c.Manager().Calculator().Strategy())

	next := cfg
	next.Calculator.Strategy = "apd"
	require.NoError(t, c.ApplyConfig(next))
	assert.Equal(t, "apd", c.Manager().Calculator().Strategy())
	assert.Equal(t, "apd", c.Config().Calculator.Strategy)

	next.Calculator.Strategy = "python"
	assert.Error(t, c.ApplyConfig(next))
	assert.Equal(t, "apd", c.Manager().Calculator().Strategy(), "failed reload keeps previous strategy")

	require.NoError(t, c.Stop())
}

func TestMetricsServerServesRegistry(t *testing.T) {
	c := NewWithConfig(testConfig(t))
	require.NoError(t, c.Build())
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	var srv *httpServerComponent
	for _, comp := range c.lifecycle.components {
		if h, ok := comp.(*httpServerComponent); ok {
			srv = h
		}
	}
	require.NotNil(t, srv)
	c.Monitor().USDMid(34.5)

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "rate_engine_pipeline_usdmid 34.5"))

	require.NoError(t, srv.Health())
	require.NoError(t, srv.Stop())
	assert.Error(t, srv.Health())
}

type fakeComponent struct {
	name     string
	startErr error
	started  bool
	stopped  bool
}

func (f *fakeComponent) Name() string { return f.name }
func (f *fakeComponent) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}
func (f *fakeComponent) Stop() error   { f.stopped = true; return nil }
func (f *fakeComponent) Health() error { return nil }

func TestLifecycleRollsBackOnStartFailure(t *testing.T) {
	m := NewLifecycleManager()
	first := &fakeComponent{name: "first"}
	second := &fakeComponent{name: "second", startErr: errors.New("port in use")}
	m.Register(first)
	m.Register(second)

	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start second failed")
	assert.True(t, first.stopped)
}
