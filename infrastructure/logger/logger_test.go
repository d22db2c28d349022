package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return FromCore(core, DefaultConfig()), logs
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	l, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, l.Logger)
}

func TestLogEventInfo(t *testing.T) {
	l, logs := newObserved(t)
	fields := map[string]interface{}{"type": "USD_TRY", "provider": "PF1", "bid": 33.0, "ask": 33.2}
	l.LogEvent("raw_rate", fields)
	l.LogEvent("calc_rate", map[string]interface{}{"type": "EUR_TRY", "bid": 35.7, "ask": 36.1, "strategy": "decimal"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "raw_rate", entries[0].ContextMap()["event"])
	assert.Equal(t, "PF1", entries[0].ContextMap()["provider"])
	assert.Equal(t, "decimal", entries[1].ContextMap()["strategy"])
	assert.NotContains(t, fields, "event", "caller map is not modified")
}

func TestLogEventLevels(t *testing.T) {
	l, logs := newObserved(t)
	l.LogEvent("calculator_error", map[string]interface{}{"strategy": "apd", "operation": "usdmid", "error": "boom"})
	l.LogEvent("calc_skipped", map[string]interface{}{"type": "EUR_USD", "reason": "usdmid not available"})
	l.LogEvent("rate_dropped", map[string]interface{}{"type": "USD_TRY"})

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Contains(t, entries[2].ContextMap()["schema_error"], "meanBid")
}

func TestLogErrorAndWithFields(t *testing.T) {
	l, logs := newObserved(t)
	l.WithFields(map[string]interface{}{"component": "cache"}).LogError(errors.New("dial tcp"), nil)

	entries := logs.FilterMessage("error_event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "dial tcp", entries[0].ContextMap()["error"])
	assert.Equal(t, "cache", entries[0].ContextMap()["component"])
}
