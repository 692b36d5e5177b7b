package http

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/predict"
)

type fakePredictor struct {
	result *predict.Result
	err    error
	rows   []ml.FeatureRow
}

func (f *fakePredictor) Predict(ctx context.Context, row ml.FeatureRow) (*predict.Result, error) {
	f.rows = append(f.rows, row)
	return f.result, f.err
}

type fakeArtifacts struct {
	artifacts *ml.Artifacts
	err       error
}

func (f *fakeArtifacts) Load() (*ml.Artifacts, error) {
	return f.artifacts, f.err
}

func (f *fakeArtifacts) Config() ml.StoreConfig {
	return ml.StoreConfig{ModelPath: "iwakRf.json", EncoderPath: "label_encoder.json"}
}

func bandengResult() *predict.Result {
	return &predict.Result{
		Input:   ml.FeatureRow{Length: 50, Weight: 10, WLRatio: 0.2},
		Species: "Bandeng",
		ClassID: 2,
		Probabilities: []predict.ClassProbability{
			{ClassID: 0, Label: "0", Percentage: 10},
			{ClassID: 1, Label: "1", Percentage: 10},
			{ClassID: 2, Label: "Bandeng", Percentage: 80},
		},
	}
}

// storeDeps wires a real artifact store and predictor over dir.
func storeDeps(t *testing.T, dir string) Dependencies {
	t.Helper()
	store := ml.NewArtifactStore(ml.StoreConfig{
		ModelType:   ml.ModelTypeRandomForest,
		ModelPath:   filepath.Join(dir, "iwakRf.json"),
		EncoderPath: filepath.Join(dir, "label_encoder.json"),
	}, nil)
	predictor, err := predict.NewPredictor(store, 4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return Dependencies{Predictor: predictor, Artifacts: store}
}

// writeArtifacts saves a two-class forest and its encoder into dir.
func writeArtifacts(t *testing.T, dir string) {
	t.Helper()
	forest, err := ml.NewRandomForest([]int{0, 1}, ml.FeatureNames(), []*ml.DecisionTree{
		ml.NewDecisionTree([]ml.TreeNode{
			{FeatureIdx: 0, Threshold: 30, LeftChild: 1, RightChild: 2},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: []float64{9, 1}, IsLeaf: true},
			{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: []float64{1, 4}, IsLeaf: true},
		}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := forest.Save(filepath.Join(dir, "iwakRf.json")); err != nil {
		t.Fatalf("save forest: %v", err)
	}
	encoder := &ml.LabelEncoder{Classes: []string{"Lele", "Nila"}}
	if err := encoder.Save(filepath.Join(dir, "label_encoder.json")); err != nil {
		t.Fatalf("save encoder: %v", err)
	}
}
