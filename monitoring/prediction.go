package monitoring

import (
	"time"
)

// Outcome 一次预测请求的结果分类
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeInvalid     Outcome = "invalid_input"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeError       Outcome = "error"
)

const (
	metricPredictions     = "fish_predictions_total"
	metricSpecies         = "fish_predicted_species_total"
	metricLatencySum      = "fish_prediction_duration_seconds_sum"
	metricLatencyCount    = "fish_prediction_duration_seconds_count"
	metricArtifactsLoaded = "fish_artifacts_loaded"
)

// PredictionMetrics 预测业务指标
type PredictionMetrics struct {
	collector *MetricsCollector
}

// NewPredictionMetrics 创建预测指标
func NewPredictionMetrics() *PredictionMetrics {
	return &PredictionMetrics{collector: NewMetricsCollector()}
}

// RecordPrediction 记录一次预测，source区分页面、API与WebSocket
func (pm *PredictionMetrics) RecordPrediction(source string, outcome Outcome, species string, elapsed time.Duration) {
	if pm == nil {
		return
	}
	pm.collector.IncrCounter(metricPredictions, "Predictions by source and outcome", 1,
		map[string]string{"source": source, "outcome": string(outcome)})
	if outcome != OutcomeOK {
		return
	}
	pm.collector.IncrCounter(metricSpecies, "Predicted species", 1, map[string]string{"species": species})
	pm.collector.IncrCounter(metricLatencySum, "Total prediction time in seconds", elapsed.Seconds(), nil)
	pm.collector.IncrCounter(metricLatencyCount, "Number of timed predictions", 1, nil)
}

// SetArtifactsLoaded 记录产物是否可用
func (pm *PredictionMetrics) SetArtifactsLoaded(loaded bool) {
	if pm == nil {
		return
	}
	value := 0.0
	if loaded {
		value = 1
	}
	pm.collector.SetGauge(metricArtifactsLoaded, "Whether model and label encoder are loaded", value, nil)
}

// SpeciesCount 返回某物种被预测的次数
func (pm *PredictionMetrics) SpeciesCount(species string) float64 {
	return pm.collector.Value(metricSpecies, map[string]string{"species": species})
}

// PredictionCount 返回某来源某结果的预测次数
func (pm *PredictionMetrics) PredictionCount(source string, outcome Outcome) float64 {
	return pm.collector.Value(metricPredictions, map[string]string{"source": source, "outcome": string(outcome)})
}

// Export 导出Prometheus文本
func (pm *PredictionMetrics) Export() string {
	return pm.collector.ExportPrometheus()
}
