package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/chart"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/monitoring"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/predict"
	"go.uber.org/zap"
)

// Predictor 预测服务接口
type Predictor interface {
	Predict(ctx context.Context, row ml.FeatureRow) (*predict.Result, error)
}

// ArtifactSource 模型与标签编码器来源
type ArtifactSource interface {
	Load() (*ml.Artifacts, error)
	Config() ml.StoreConfig
}

// Dependencies 处理器依赖
type Dependencies struct {
	Predictor    Predictor
	Artifacts    ArtifactSource
	Logger       *zap.Logger
	ChartOptions chart.Options
	Metrics      *monitoring.PredictionMetrics
}

type handlers struct {
	predictor Predictor
	artifacts ArtifactSource
	logger    *zap.Logger
	chartOpts chart.Options
	metrics   *monitoring.PredictionMetrics
}

func newHandlers(deps Dependencies) *handlers {
	opts := deps.ChartOptions
	if opts == (chart.Options{}) {
		opts = chart.DefaultOptions()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = monitoring.NewPredictionMetrics()
	}
	return &handlers{
		predictor: deps.Predictor,
		artifacts: deps.Artifacts,
		logger:    deps.Logger,
		chartOpts: opts,
		metrics:   metrics,
	}
}

// RegisterHandlers 注册基础API
func RegisterHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/model", h.handleModel)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type modelInfo struct {
	ModelType    string    `json:"model_type"`
	ModelFile    string    `json:"model_file"`
	EncoderFile  string    `json:"encoder_file"`
	Classes      []int     `json:"classes"`
	Species      []string  `json:"species"`
	FeatureNames []string  `json:"feature_names"`
	LoadedAt     time.Time `json:"loaded_at"`
}

func (h *handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.artifacts.Load()
	h.metrics.SetArtifactsLoaded(err == nil)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err)
		return
	}
	classes := artifacts.Model.Classes()
	species, err := artifacts.Decoder.InverseTransform(classes)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	config := h.artifacts.Config()
	modelType := artifacts.ModelType
	if modelType == "" {
		modelType = ml.ModelTypeRandomForest
	}
	respondJSON(w, modelInfo{
		ModelType:    modelType,
		ModelFile:    filepath.Base(config.ModelPath),
		EncoderFile:  filepath.Base(config.EncoderPath),
		Classes:      classes,
		Species:      species,
		FeatureNames: artifacts.Model.FeatureNames(),
		LoadedAt:     artifacts.LoadedAt,
	})
}

func (h *handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.Write([]byte(h.metrics.Export()))
}

// record 记录一次预测的结果与耗时
func (h *handlers) record(source string, start time.Time, result *predict.Result, err error) {
	if err == nil {
		h.metrics.SetArtifactsLoaded(true)
		h.metrics.RecordPrediction(source, monitoring.OutcomeOK, result.Species, time.Since(start))
		return
	}
	outcome := monitoring.OutcomeError
	switch statusFor(err) {
	case http.StatusBadRequest:
		outcome = monitoring.OutcomeInvalid
	case http.StatusServiceUnavailable:
		outcome = monitoring.OutcomeUnavailable
		h.metrics.SetArtifactsLoaded(false)
	}
	h.metrics.RecordPrediction(source, outcome, "", time.Since(start))
}

// statusFor 将领域错误映射为HTTP状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, ml.ErrInvalidFeature):
		return http.StatusBadRequest
	case errors.Is(err, predict.ErrPredictionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error     string   `json:"error"`
	Artifacts []string `json:"missing_artifacts,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Error:     err.Error(),
		Artifacts: missingArtifacts(err),
	})
}

// missingArtifacts 列出缺失的产物文件名
func missingArtifacts(err error) []string {
	var loadErr *ml.LoadError
	if !errors.As(err, &loadErr) {
		return nil
	}
	var missing []string
	for _, e := range loadErr.Errors {
		var artifactErr *ml.ArtifactError
		if errors.As(e, &artifactErr) && artifactErr.Missing() {
			missing = append(missing, filepath.Base(artifactErr.Path))
		}
	}
	return missing
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON", zap.Error(err))
	}
}
