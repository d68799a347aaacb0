package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestInitMetrics 重复初始化不会panic(重复注册)
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()

	if PostingsTotal == nil || PersistTotal == nil || CircuitBreakerState == nil {
		t.Fatal("指标未初始化")
	}
	t.Log("✅ 所有指标初始化成功")
}

// TestRecordPosting 按类型和结果统计过账
func TestRecordPosting(t *testing.T) {
	InitMetrics()

	before := getCounterVecValue(t, PostingsTotal, map[string]string{"kind": "SHIP", "result": "rejected"})
	RecordPosting("SHIP", "rejected")
	RecordPosting("SHIP", "rejected")
	RecordPosting("SHIP", "success")

	got := getCounterVecValue(t, PostingsTotal, map[string]string{"kind": "SHIP", "result": "rejected"})
	if got-before != 2 {
		t.Errorf("rejected计数错误: expected=2, got=%f", got-before)
	}
}

// TestRecordPersist 保存结果带表名和目标
func TestRecordPersist(t *testing.T) {
	InitMetrics()

	labels := map[string]string{"table": "history", "target": "remote", "result": "conflict"}
	before := getCounterVecValue(t, PersistTotal, labels)
	RecordPersist("history", "remote", "conflict")

	if got := getCounterVecValue(t, PersistTotal, labels); got-before != 1 {
		t.Errorf("conflict计数错误: expected=1, got=%f", got-before)
	}
}

// TestSetBreakerState 熔断器状态Gauge
func TestSetBreakerState(t *testing.T) {
	InitMetrics()

	SetBreakerState("remote-redis", 1)
	if v := getGaugeVecValue(t, CircuitBreakerState, map[string]string{"name": "remote-redis"}); v != 1 {
		t.Errorf("GaugeVec值错误: expected=1, got=%f", v)
	}
	SetBreakerState("remote-redis", 0)
	if v := getGaugeVecValue(t, CircuitBreakerState, map[string]string{"name": "remote-redis"}); v != 0 {
		t.Errorf("GaugeVec值错误: expected=0, got=%f", v)
	}
}

// TestHistogram 保存耗时观测
func TestHistogram(t *testing.T) {
	InitMetrics()

	before := getHistogramCount(t, PersistDuration)
	ObserveHistogram(PersistDuration, 0.02)
	ObserveHistogram(PersistDuration, 0.3)

	if got := getHistogramCount(t, PersistDuration); got-before != 2 {
		t.Errorf("Histogram观测次数错误: expected=2, got=%d", got-before)
	}
}

// TestNilSafe 未初始化的指标调用不会panic
func TestNilSafe(t *testing.T) {
	var counter *prometheus.CounterVec
	var gauge prometheus.Gauge
	IncCounterVec(counter, map[string]string{"a": "b"})
	IncGauge(gauge)
	DecGauge(gauge)
	ObserveHistogram(nil, 1)
	t.Log("✅ 空指标调用安全")
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels map[string]string) float64 {
	var metric dto.Metric
	if err := counterVec.With(labels).Write(&metric); err != nil {
		t.Fatalf("读取CounterVec值失败: %v", err)
	}
	return metric.Counter.GetValue()
}

func getGaugeVecValue(t *testing.T, gaugeVec *prometheus.GaugeVec, labels map[string]string) float64 {
	var metric dto.Metric
	if err := gaugeVec.With(labels).Write(&metric); err != nil {
		t.Fatalf("读取GaugeVec值失败: %v", err)
	}
	return metric.Gauge.GetValue()
}

func getHistogramCount(t *testing.T, histogram prometheus.Histogram) uint64 {
	var metric dto.Metric
	if err := histogram.Write(&metric); err != nil {
		t.Fatalf("读取Histogram值失败: %v", err)
	}
	return metric.Histogram.GetSampleCount()
}
