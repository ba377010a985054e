package pricemcp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label constants.
const (
	labelMethod  = "method"
	labelStatus  = "status"
	labelOutcome = "outcome"
)

// 每个 symbol 的处理结果
const (
	OutcomeEmitted = "emitted"
	OutcomeNoData  = "no_data"
	OutcomeFailed  = "failed"
)

// Metrics 一次运行的指标。每次运行使用独立的 registry，
// 运行结束后可以写成 node_exporter textfile。
// nil *Metrics 的方法都是空操作。
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	symbols         *prometheus.CounterVec
}

// NewMetrics 创建并注册所有指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricemcp_requests_total",
				Help: "Total number of MCP requests sent",
			},
			[]string{labelMethod, labelStatus},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricemcp_request_duration_seconds",
				Help:    "Latency of MCP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{labelMethod},
		),
		symbols: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricemcp_symbols_total",
				Help: "Total number of symbols processed by outcome",
			},
			[]string{labelOutcome},
		),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.symbols)
	return m
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest 记录一次请求
func (m *Metrics) ObserveRequest(method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, status).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveSymbol 记录一个 symbol 的处理结果
func (m *Metrics) ObserveSymbol(outcome string) {
	if m == nil {
		return
	}
	m.symbols.WithLabelValues(outcome).Inc()
}

// WriteTextfile 以 textfile collector 格式写出指标
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
