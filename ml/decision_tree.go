package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type DecisionTree struct {
	nodes []TreeNode
}

// TreeNode is one entry of the flattened tree. Value holds the class weights
// at the node, indexed like the owning model's classes.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	Value      []float64 `json:"value"`
	IsLeaf     bool      `json:"is_leaf"`
}

func NewDecisionTree(nodes []TreeNode) *DecisionTree {
	return &DecisionTree{nodes: nodes}
}

func (dt *DecisionTree) Nodes() []TreeNode {
	return dt.nodes
}

// Distribution walks the tree and returns the normalized class distribution
// of the reached leaf.
func (dt *DecisionTree) Distribution(features []float64) ([]float64, error) {
	if len(dt.nodes) == 0 {
		return nil, errors.New("empty tree")
	}
	idx := 0
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return normalize(node.Value)
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
	return nil, errors.New("tree contains a cycle")
}

func (dt *DecisionTree) validate(featureCount, classCount int) error {
	if len(dt.nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range dt.nodes {
		if node.IsLeaf {
			if len(node.Value) != classCount {
				return fmt.Errorf("node %d: leaf has %d class weights, want %d", i, len(node.Value), classCount)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(dt.nodes) {
			return fmt.Errorf("node %d: left child %d out of range", i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(dt.nodes) {
			return fmt.Errorf("node %d: right child %d out of range", i, node.RightChild)
		}
	}
	return nil
}

// SingleTree adapts one tree into a Classifier, mainly for artifacts exported
// from a plain DecisionTreeClassifier.
type SingleTree struct {
	ClassIDs []int      `json:"classes"`
	Features []string   `json:"feature_names"`
	Nodes    []TreeNode `json:"nodes"`

	tree *DecisionTree
}

func (st *SingleTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, st); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	st.tree = NewDecisionTree(st.Nodes)
	if err := validateClasses(st.ClassIDs, st.Features); err != nil {
		return err
	}
	if err := st.tree.validate(len(st.Features), len(st.ClassIDs)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	return nil
}

func (st *SingleTree) Classes() []int {
	return append([]int(nil), st.ClassIDs...)
}

func (st *SingleTree) FeatureNames() []string {
	return append([]string(nil), st.Features...)
}

func (st *SingleTree) PredictProba(row FeatureRow) ([]float64, error) {
	vector, err := row.Vector(st.Features)
	if err != nil {
		return nil, err
	}
	return st.tree.Distribution(vector)
}

func (st *SingleTree) Predict(row FeatureRow) (int, error) {
	proba, err := st.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return st.ClassIDs[argmax(proba)], nil
}

func normalize(weights []float64) ([]float64, error) {
	total := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, errors.New("negative class weight")
		}
		total += w
	}
	out := make([]float64, len(weights))
	if total == 0 {
		return out, nil
	}
	for i, w := range weights {
		out[i] = w / total
	}
	return out, nil
}

// argmax returns the first index of the largest value, matching numpy.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

func validateClasses(classes []int, features []string) error {
	if len(classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidArtifact)
	}
	seen := make(map[int]bool, len(classes))
	for _, class := range classes {
		if seen[class] {
			return fmt.Errorf("%w: duplicate class %d", ErrInvalidArtifact, class)
		}
		seen[class] = true
	}
	if len(features) == 0 {
		return fmt.Errorf("%w: no feature names", ErrInvalidArtifact)
	}
	for _, name := range features {
		if _, err := (FeatureRow{}).Value(name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
		}
	}
	return nil
}
