package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/chart"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/predict"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type inputField struct {
	Name  string
	Label string
	Value string
	Min   string
	Step  string
}

type probabilityRow struct {
	Label   string
	Percent string
}

type pageData struct {
	Lang   string
	Inputs []inputField
	Errors []string
	Result *predict.Result
	Rows   []probabilityRow
	Chart  template.HTML
}

// RegisterPageHandlers 注册交互页面
func RegisterPageHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("GET /{$}", h.handlePage)
}

// handlePage 一次完整渲染：读取输入、加载模型、预测、解码、绘图
func (h *handlers) handlePage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()
	lang, printer := localeFor(r.Header.Get("Accept-Language"))
	data := pageData{
		Lang:   lang.String(),
		Inputs: formInputs(query),
	}

	row, err := parseFeatureRow(query)
	if err != nil {
		h.record(sourcePage, start, nil, err)
		data.Errors = append(data.Errors, fmt.Sprintf("Input tidak valid: %v", err))
		h.render(w, r, data)
		return
	}

	result, err := h.predictor.Predict(r.Context(), row)
	h.record(sourcePage, start, result, err)
	if err != nil {
		h.logPredictError(r, err)
		data.Errors = append(data.Errors, errorMessages(err)...)
		h.render(w, r, data)
		return
	}

	var svg bytes.Buffer
	opts := h.chartOpts
	opts.Format = chart.FormatSVG
	if err := chart.Render(&svg, chartBars(result), opts); err != nil {
		h.logger.Error("chart render failed", zap.Error(err))
		data.Errors = append(data.Errors, "Grafik probabilitas tidak dapat dibuat.")
	} else {
		data.Chart = template.HTML(inlineSVG(svg.Bytes()))
	}

	data.Result = result
	for _, p := range result.Probabilities {
		data.Rows = append(data.Rows, probabilityRow{Label: p.Label, Percent: formatPercent(printer, p.Percentage)})
	}
	h.render(w, r, data)
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("template render failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())

	if start := GetStartTime(r.Context()); !start.IsZero() {
		h.logger.Debug("page rendered",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Bool("prediction", data.Result != nil),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// formInputs 回显用户输入，未提供时使用默认值
func formInputs(query map[string][]string) []inputField {
	inputs := ml.FeatureInputs()
	fields := make([]inputField, len(inputs))
	for i, input := range inputs {
		value := strconv.FormatFloat(input.Default, 'f', -1, 64)
		if submitted, ok := query[input.Name]; ok && len(submitted) > 0 && submitted[0] != "" {
			value = submitted[0]
		}
		fields[i] = inputField{
			Name:  input.Name,
			Label: input.Label,
			Value: value,
			Min:   strconv.FormatFloat(input.Min, 'f', -1, 64),
			Step:  input.Step,
		}
	}
	return fields
}

// errorMessages 将加载错误转为页面提示
func errorMessages(err error) []string {
	var loadErr *ml.LoadError
	if !errors.As(err, &loadErr) {
		return []string{fmt.Sprintf("Prediksi gagal: %v", err)}
	}
	messages := make([]string, 0, len(loadErr.Errors))
	for _, e := range loadErr.Errors {
		var artifactErr *ml.ArtifactError
		if !errors.As(e, &artifactErr) {
			messages = append(messages, fmt.Sprintf("Model dan LabelEncoder tidak cocok: %v", e))
			continue
		}
		name := "Model"
		if artifactErr.Artifact == ml.ArtifactLabelEncoder {
			name = "LabelEncoder"
		}
		file := filepath.Base(artifactErr.Path)
		if artifactErr.Missing() {
			messages = append(messages, fmt.Sprintf("%s tidak ditemukan! Pastikan file '%s' ada di direktori.", name, file))
		} else {
			messages = append(messages, fmt.Sprintf("%s tidak valid: file '%s' tidak dapat dibaca.", name, file))
		}
	}
	return messages
}

// inlineSVG 去掉XML声明以便嵌入HTML
func inlineSVG(svg []byte) string {
	if i := bytes.Index(svg, []byte("<svg")); i > 0 {
		svg = svg[i:]
	}
	return string(svg)
}
