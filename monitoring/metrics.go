package monitoring

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
)

// Metric 指标
type Metric struct {
	Name   string            `json:"name"`
	Type   MetricType        `json:"type"`
	Value  float64           `json:"value"`
	Labels map[string]string `json:"labels,omitempty"`
	Help   string            `json:"help,omitempty"`
}

// MetricsCollector 指标收集器，同名同标签的指标只保留最新值
type MetricsCollector struct {
	metrics     map[string]*Metric
	metricsLock sync.RWMutex

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:   make(map[string]*Metric),
		startTime: time.Now(),
	}
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name, help string, value float64, labels map[string]string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	key := metricKey(name, labels)
	metric, ok := mc.metrics[key]
	if !ok {
		metric = &Metric{Name: name, Type: MetricTypeCounter, Labels: copyLabels(labels), Help: help}
		mc.metrics[key] = metric
	}
	metric.Value += value
}

// SetGauge 设置仪表
func (mc *MetricsCollector) SetGauge(name, help string, value float64, labels map[string]string) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	mc.metrics[metricKey(name, labels)] = &Metric{
		Name:   name,
		Type:   MetricTypeGauge,
		Value:  value,
		Labels: copyLabels(labels),
		Help:   help,
	}
}

// Value 返回指标当前值
func (mc *MetricsCollector) Value(name string, labels map[string]string) float64 {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	if metric, ok := mc.metrics[metricKey(name, labels)]; ok {
		return metric.Value
	}
	return 0
}

// GetAllMetrics 获取所有指标副本，按名称与标签排序
func (mc *MetricsCollector) GetAllMetrics() []Metric {
	mc.metricsLock.RLock()
	result := make([]Metric, 0, len(mc.metrics))
	for _, metric := range mc.metrics {
		m := *metric
		m.Labels = copyLabels(metric.Labels)
		result = append(result, m)
	}
	mc.metricsLock.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return formatLabels(result[i].Labels) < formatLabels(result[j].Labels)
	})
	return result
}

// collectSystemMetrics 收集内存与协程指标
func (mc *MetricsCollector) collectSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mc.SetGauge("memory_heap_alloc_bytes", "Memory heap allocated in bytes", float64(m.HeapAlloc), nil)
	mc.SetGauge("memory_gc_count", "Number of garbage collections", float64(m.NumGC), nil)
	mc.SetGauge("system_goroutines", "Number of goroutines", float64(runtime.NumGoroutine()), nil)
	mc.SetGauge("uptime_seconds", "Seconds since the collector started", mc.GetUptime().Seconds(), nil)
}

// ExportPrometheus 导出Prometheus文本格式
func (mc *MetricsCollector) ExportPrometheus() string {
	mc.collectSystemMetrics()

	var b strings.Builder
	lastName := ""
	for _, metric := range mc.GetAllMetrics() {
		if metric.Name != lastName {
			help := metric.Help
			if help == "" {
				help = fmt.Sprintf("Metric %s", metric.Name)
			}
			fmt.Fprintf(&b, "# HELP %s %s\n", metric.Name, help)
			fmt.Fprintf(&b, "# TYPE %s %s\n", metric.Name, metric.Type)
			lastName = metric.Name
		}
		fmt.Fprintf(&b, "%s%s %g\n", metric.Name, formatLabels(metric.Labels), metric.Value)
	}
	return b.String()
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

func metricKey(name string, labels map[string]string) string {
	return name + formatLabels(labels)
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, labels[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
