// Package predict turns a feature row into a decoded species prediction.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var ErrPredictionUnavailable = errors.New("prediction unavailable")

const DefaultCacheSize = 256

type ArtifactSource interface {
	Load() (*ml.Artifacts, error)
}

type ClassProbability struct {
	ClassID    int     `json:"class_id"`
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
}

type Result struct {
	Input         ml.FeatureRow      `json:"input"`
	Species       string             `json:"species"`
	ClassID       int                `json:"class_id"`
	Probabilities []ClassProbability `json:"probabilities"`
}

// Percentages returns the chart values in class order.
func (r *Result) Percentages() []float64 {
	values := make([]float64, len(r.Probabilities))
	for i, p := range r.Probabilities {
		values[i] = p.Percentage
	}
	return values
}

// cacheKey ties a cached result to the artifact pair that produced it, so a
// result computed while the artifacts were being replaced is never served
// for the new pair.
type cacheKey struct {
	artifacts *ml.Artifacts
	row       ml.FeatureRow
}

type Predictor struct {
	source ArtifactSource
	cache  *lru.Cache[cacheKey, *Result]
	logger *zap.Logger
}

func NewPredictor(source ArtifactSource, cacheSize int, logger *zap.Logger) (*Predictor, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, *Result](cacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{source: source, cache: cache, logger: logger}, nil
}

// Purge drops cached results. Call it whenever the artifacts change.
func (p *Predictor) Purge() {
	p.cache.Purge()
}

// Predict runs one render's worth of inference. When either artifact is
// unavailable it returns ErrPredictionUnavailable and no partial result.
func (p *Predictor) Predict(ctx context.Context, row ml.FeatureRow) (*Result, error) {
	if err := row.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifacts, err := p.source.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPredictionUnavailable, err)
	}
	key := cacheKey{artifacts: artifacts, row: row}
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	result, err := predict(artifacts, row)
	if err != nil {
		p.logger.Error("prediction failed", zap.Any("input", row), zap.Error(err))
		return nil, err
	}
	p.cache.Add(key, result)
	p.logger.Debug("prediction",
		zap.Any("input", row),
		zap.String("species", result.Species),
		zap.Float64s("percentages", result.Percentages()),
	)
	return result, nil
}

func predict(artifacts *ml.Artifacts, row ml.FeatureRow) (*Result, error) {
	classID, err := artifacts.Model.Predict(row)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	proba, err := artifacts.Model.PredictProba(row)
	if err != nil {
		return nil, fmt.Errorf("predict_proba: %w", err)
	}
	classes := artifacts.Model.Classes()
	if len(proba) != len(classes) {
		return nil, fmt.Errorf("model returned %d probabilities for %d classes", len(proba), len(classes))
	}

	species, err := artifacts.Decoder.InverseTransform([]int{classID})
	if err != nil {
		return nil, fmt.Errorf("decode predicted class: %w", err)
	}

	probabilities := make([]ClassProbability, len(classes))
	for i, id := range classes {
		probabilities[i] = ClassProbability{
			ClassID:    id,
			Label:      classLabel(artifacts.Decoder, id),
			Percentage: RoundPercent(proba[i]),
		}
	}

	return &Result{
		Input:         row,
		Species:       species[0],
		ClassID:       classID,
		Probabilities: probabilities,
	}, nil
}

// classLabel names a class for the chart axis, falling back to the numeric id
// when the encoder does not know it.
func classLabel(decoder ml.Decoder, id int) string {
	names, err := decoder.InverseTransform([]int{id})
	if err != nil {
		return strconv.Itoa(id)
	}
	return names[0]
}

// RoundPercent converts a probability to a percentage with two decimals.
// Ties round to even, like numpy's round.
func RoundPercent(p float64) float64 {
	return math.RoundToEven(p*100*100) / 100
}
