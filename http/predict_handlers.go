package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/chart"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/predict"
	"go.uber.org/zap"
)

// 指标中的请求来源
const (
	sourcePage   = "page"
	sourceAPI    = "api"
	sourceChart  = "chart"
	sourceSocket = "websocket"
)

// RegisterPredictHandlers 注册预测API
func RegisterPredictHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/chart.svg", h.handleChart(chart.FormatSVG))
	mux.HandleFunc("GET /api/chart.png", h.handleChart(chart.FormatPNG))
	mux.HandleFunc("GET /api/ws/predict", h.handlePredictSocket)
}

func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	row := ml.DefaultFeatureRow()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&row); err != nil {
		err = fmt.Errorf("%w: %v", ml.ErrInvalidFeature, err)
		h.record(sourceAPI, start, nil, err)
		respondError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.predictor.Predict(r.Context(), row)
	h.record(sourceAPI, start, result, err)
	if err != nil {
		h.logPredictError(r, err)
		respondError(w, statusFor(err), err)
		return
	}
	respondJSON(w, result)
}

func (h *handlers) handleChart(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		row, err := parseFeatureRow(r.URL.Query())
		if err != nil {
			h.record(sourceChart, start, nil, err)
			respondError(w, http.StatusBadRequest, err)
			return
		}
		result, err := h.predictor.Predict(r.Context(), row)
		h.record(sourceChart, start, result, err)
		if err != nil {
			h.logPredictError(r, err)
			respondError(w, statusFor(err), err)
			return
		}

		opts := h.chartOpts
		opts.Format = format
		var buf bytes.Buffer
		if err := chart.Render(&buf, chartBars(result), opts); err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", chart.ContentType(format))
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}

func (h *handlers) logPredictError(r *http.Request, err error) {
	fields := []zap.Field{zap.String("request_id", GetRequestID(r.Context())), zap.Error(err)}
	switch statusFor(err) {
	case http.StatusBadRequest:
		h.logger.Debug("invalid input", fields...)
	case http.StatusServiceUnavailable:
		h.logger.Warn("prediction unavailable", fields...)
	default:
		h.logger.Error("prediction failed", fields...)
	}
}

// parseFeatureRow 从表单/查询参数读取特征，缺省字段使用默认值
func parseFeatureRow(values url.Values) (ml.FeatureRow, error) {
	row := ml.DefaultFeatureRow()
	fields := map[string]*float64{
		ml.ColumnLength:  &row.Length,
		ml.ColumnWeight:  &row.Weight,
		ml.ColumnWLRatio: &row.WLRatio,
	}
	for _, name := range ml.FeatureNames() {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return row, fmt.Errorf("%w: %s is not a number", ml.ErrInvalidFeature, name)
		}
		*fields[name] = value
	}
	return row, row.Validate()
}

func chartBars(result *predict.Result) []chart.Bar {
	bars := make([]chart.Bar, len(result.Probabilities))
	for i, p := range result.Probabilities {
		bars[i] = chart.Bar{Label: p.Label, Value: p.Percentage}
	}
	return bars
}
