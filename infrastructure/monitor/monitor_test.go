package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	m := New(DefaultConfig())

	m.RawRateReceived("USD_TRY", "PF1")
	m.RawRateReceived("USD_TRY", "PF1")
	m.RateDropped("USD_TRY", "PF1")
	m.CalculatedRate("EUR_TRY")
	m.CalculatorError("usdmid")
	m.CacheError("save_raw_rate")
	m.USDMid(33.1)
	m.ObserveCalculation(2 * time.Millisecond)

	if got := testutil.ToFloat64(m.rawReceived.WithLabelValues("USD_TRY", "PF1")); got != 2 {
		t.Errorf("Expected 2 raw rates, got %f", got)
	}
	if got := testutil.ToFloat64(m.rawDropped.WithLabelValues("USD_TRY", "PF1")); got != 1 {
		t.Errorf("Expected 1 dropped rate, got %f", got)
	}
	if got := testutil.ToFloat64(m.calculated.WithLabelValues("EUR_TRY")); got != 1 {
		t.Errorf("Expected 1 calculated rate, got %f", got)
	}
	if got := testutil.ToFloat64(m.calculatorErrors.WithLabelValues("usdmid")); got != 1 {
		t.Errorf("Expected 1 calculator error, got %f", got)
	}
	if got := testutil.ToFloat64(m.cacheErrors.WithLabelValues("save_raw_rate")); got != 1 {
		t.Errorf("Expected 1 cache error, got %f", got)
	}
	if got := testutil.ToFloat64(m.usdmid); got != 33.1 {
		t.Errorf("Expected USDMID 33.1, got %f", got)
	}
	if got := testutil.CollectAndCount(m.calcLatency); got != 1 {
		t.Errorf("Expected latency histogram, got %d series", got)
	}
}

func TestSetStrategyKeepsOneLabel(t *testing.T) {
	m := New(DefaultConfig())
	m.SetStrategy("decimal")
	m.SetStrategy("apd")

	if got := testutil.CollectAndCount(m.strategyInfo); got != 1 {
		t.Fatalf("Expected one strategy series, got %d", got)
	}
	if got := testutil.ToFloat64(m.strategyInfo.WithLabelValues("apd")); got != 1 {
		t.Fatalf("Expected apd strategy active, got %f", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(DefaultConfig())
	m.USDMid(34.5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "rate_engine_pipeline_usdmid 34.5") {
		t.Fatalf("usdmid missing from /metrics output:\n%s", rec.Body.String())
	}
}
