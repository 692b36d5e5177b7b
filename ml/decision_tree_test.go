package ml

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDecisionTreeDistribution(t *testing.T) {
	tree := NewDecisionTree([]TreeNode{
		{FeatureIdx: 0, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: []float64{3, 1}, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: []float64{0, 4}, IsLeaf: true},
	})

	dist, err := tree.Distribution([]float64{0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(dist[0], 0.75) || !almostEqual(dist[1], 0.25) {
		t.Fatalf("unexpected distribution: %v", dist)
	}

	dist, err = tree.Distribution([]float64{0.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dist[1] != 1 {
		t.Fatalf("expected right leaf, got %v", dist)
	}
}

func TestDecisionTreeFeatureOutOfRange(t *testing.T) {
	tree := NewDecisionTree([]TreeNode{
		{FeatureIdx: 3, Threshold: 0.5, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: []float64{1}},
		{IsLeaf: true, Value: []float64{1}},
	})
	if _, err := tree.Distribution([]float64{0.1}); err == nil {
		t.Fatal("expected error for feature index out of range")
	}
}

func TestDecisionTreeValidateRejectsBackwardChild(t *testing.T) {
	tree := NewDecisionTree([]TreeNode{
		{FeatureIdx: 0, Threshold: 1, LeftChild: 0, RightChild: 1},
		{IsLeaf: true, Value: []float64{1, 0}},
	})
	if err := tree.validate(1, 2); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSingleTreeLoadPredict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	payload := `{
		"classes": [0, 1],
		"feature_names": ["weight"],
		"nodes": [
			{"feature_idx": 0, "threshold": 5, "left_child": 1, "right_child": 2},
			{"feature_idx": -1, "left_child": -1, "right_child": -1, "value": [4, 0], "is_leaf": true},
			{"feature_idx": -1, "left_child": -1, "right_child": -1, "value": [1, 3], "is_leaf": true}
		]
	}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	tree := &SingleTree{}
	if err := tree.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := tree.Predict(FeatureRow{Length: 100, Weight: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}
