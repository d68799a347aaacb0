// Package metrics 基于Prometheus的指标收集
//
// 指标分三类:
// - HTTP请求:请求数、耗时、处理中的请求数
// - 账本业务:过账结果、加载来源、保存结果、活跃会话数
// - 远程仓库:调用结果、熔断器状态
//
// 使用方式:
//
//	metrics.InitMetrics()                       // 启动时调用一次
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//	metrics.RecordPosting("SHIP", "success")    // 业务代码中记录
//
// 所有Record*/Set*函数在InitMetrics之前调用是安全的(直接忽略),
// 因此CLI等不暴露指标的场景无需初始化。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal HTTP请求总数
	// 标签:method、path(路由模板)、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// PostingsTotal 过账总数
	// 标签:kind(RECEIVE/SHIP/RETURN)、result(success/rejected/invalid)
	PostingsTotal *prometheus.CounterVec

	// LoadsTotal 数据表加载次数
	// 标签:table、source(remote/local/seed)
	LoadsTotal *prometheus.CounterVec

	// PersistTotal 数据表保存结果
	// 标签:table、target(local/remote)、result(success/failure/conflict)
	PersistTotal *prometheus.CounterVec

	// PersistDuration 一次完整保存(本地+远程)的耗时
	PersistDuration prometheus.Histogram

	// SessionsActive 当前打开的会话数
	SessionsActive prometheus.Gauge

	// RemoteCallsTotal 远程仓库调用
	// 标签:op(get/create/update)、result(success/not_found/conflict/error/rejected)
	RemoteCallsTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态(0=CLOSED, 1=OPEN, 2=HALF_OPEN)
	CircuitBreakerState *prometheus.GaugeVec
)

// InitMetrics 注册所有指标到默认Registry(重复调用无副作用)
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时（秒）",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	PostingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_postings_total",
			Help: "过账总数",
		},
		[]string{"kind", "result"},
	)

	LoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_table_loads_total",
			Help: "数据表加载次数（按最终数据源）",
		},
		[]string{"table", "source"},
	)

	PersistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_persist_total",
			Help: "数据表保存结果",
		},
		[]string{"table", "target", "result"},
	)

	// 远程写入通常在几十毫秒到数秒之间
	PersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_persist_duration_seconds",
			Help:    "保存耗时（秒）",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_sessions_active",
			Help: "当前打开的会话数",
		},
	)

	RemoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_remote_calls_total",
			Help: "远程仓库调用总数",
		},
		[]string{"op", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		},
		[]string{"name"},
	)
}

// RecordPosting 记录一次过账
func RecordPosting(kind, result string) {
	IncCounterVec(PostingsTotal, map[string]string{"kind": kind, "result": result})
}

// RecordLoad 记录一张表的加载来源
func RecordLoad(table, source string) {
	IncCounterVec(LoadsTotal, map[string]string{"table": table, "source": source})
}

// RecordPersist 记录一张表的保存结果
func RecordPersist(table, target, result string) {
	IncCounterVec(PersistTotal, map[string]string{"table": table, "target": target, "result": result})
}

// RecordRemoteCall 记录一次远程仓库调用
func RecordRemoteCall(op, result string) {
	IncCounterVec(RemoteCallsTotal, map[string]string{"op": op, "result": result})
}

// SetBreakerState 更新熔断器状态
func SetBreakerState(name string, state int) {
	SetGaugeVec(CircuitBreakerState, map[string]string{"name": name}, float64(state))
}

// IncCounterVec 递增CounterVec
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram == nil {
		return
	}
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}
