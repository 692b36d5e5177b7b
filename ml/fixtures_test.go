package ml

import (
	"path/filepath"
	"testing"
)

func testForest(t *testing.T) *RandomForest {
	t.Helper()
	first := NewDecisionTree([]TreeNode{
		{FeatureIdx: 0, Threshold: 30, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: []float64{10, 0, 0}, IsLeaf: true},
		{FeatureIdx: 1, Threshold: 5, LeftChild: 3, RightChild: 4},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: []float64{0, 8, 2}, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: []float64{0, 1, 9}, IsLeaf: true},
	})
	second := NewDecisionTree([]TreeNode{
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: []float64{1, 1, 8}, IsLeaf: true},
	})
	forest, err := NewRandomForest([]int{0, 1, 2}, FeatureNames(), []*DecisionTree{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return forest
}

func testEncoder() *LabelEncoder {
	return &LabelEncoder{Classes: []string{"Bandeng", "Lele", "Nila"}}
}

// writeArtifacts saves the test forest and encoder into dir and returns
// their paths.
func writeArtifacts(t *testing.T, dir string) (string, string) {
	t.Helper()
	modelPath := filepath.Join(dir, "iwakRf.json")
	encoderPath := filepath.Join(dir, "label_encoder.json")
	if err := testForest(t).Save(modelPath); err != nil {
		t.Fatalf("save forest: %v", err)
	}
	if err := testEncoder().Save(encoderPath); err != nil {
		t.Fatalf("save encoder: %v", err)
	}
	return modelPath, encoderPath
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
