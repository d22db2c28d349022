package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器，实现 manager.Recorder
type Monitor struct {
	registry *prometheus.Registry

	// 报价指标
	rawReceived *prometheus.CounterVec
	rawDropped  *prometheus.CounterVec

	// 计算指标
	calculated   *prometheus.CounterVec
	usdmid       prometheus.Gauge
	calcLatency  prometheus.Histogram
	strategyInfo *prometheus.GaugeVec

	// 错误指标
	calculatorErrors *prometheus.CounterVec
	cacheErrors      *prometheus.CounterVec
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "rate_engine",
		Subsystem: "pipeline",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		rawReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "raw_rates_received_total",
			Help:      "收到的原始报价数",
		}, []string{"type", "provider"}),
		rawDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "raw_rates_dropped_total",
			Help:      "偏离均值 1% 以上被丢弃的报价数",
		}, []string{"type", "provider"}),

		calculated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "calculated_rates_total",
			Help:      "发布的计算结果数",
		}, []string{"type"}),
		usdmid: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "usdmid",
			Help:      "当前 USDMID",
		}),
		calcLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "calculation_latency_seconds",
			Help:      "单条报价处理耗时（秒）",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		strategyInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "calculator_strategy",
			Help:      "当前生效的计算策略（值为 1）",
		}, []string{"strategy"}),

		calculatorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "calculator_errors_total",
			Help:      "计算器错误数",
		}, []string{"operation"}),
		cacheErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cache_errors_total",
			Help:      "缓存/历史存储错误数",
		}, []string{"operation"}),
	}
}

func (m *Monitor) RawRateReceived(rateType, provider string) {
	m.rawReceived.WithLabelValues(rateType, provider).Inc()
}

func (m *Monitor) RateDropped(rateType, provider string) {
	m.rawDropped.WithLabelValues(rateType, provider).Inc()
}

func (m *Monitor) CalculatedRate(rateType string) {
	m.calculated.WithLabelValues(rateType).Inc()
}

func (m *Monitor) CalculatorError(operation string) {
	m.calculatorErrors.WithLabelValues(operation).Inc()
}

func (m *Monitor) CacheError(operation string) {
	m.cacheErrors.WithLabelValues(operation).Inc()
}

func (m *Monitor) USDMid(v float64) {
	m.usdmid.Set(v)
}

func (m *Monitor) ObserveCalculation(d time.Duration) {
	m.calcLatency.Observe(d.Seconds())
}

// SetStrategy 切换策略时只保留当前策略的标签。
func (m *Monitor) SetStrategy(strategy string) {
	m.strategyInfo.Reset()
	m.strategyInfo.WithLabelValues(strategy).Set(1)
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
