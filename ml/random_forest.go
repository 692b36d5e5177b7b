package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// RandomForest is a forest exported from scikit-learn's
// RandomForestClassifier. Probabilities are the mean of the per-tree leaf
// distributions, the same rule predict_proba uses.
type RandomForest struct {
	trees    []*DecisionTree
	classes  []int
	features []string
}

type forestArtifact struct {
	Classes      []int        `json:"classes"`
	FeatureNames []string     `json:"feature_names"`
	Trees        [][]TreeNode `json:"trees"`
}

func NewRandomForest(classes []int, features []string, trees []*DecisionTree) (*RandomForest, error) {
	rf := &RandomForest{
		trees:    trees,
		classes:  append([]int(nil), classes...),
		features: append([]string(nil), features...),
	}
	if err := rf.validate(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *RandomForest) Classes() []int {
	return append([]int(nil), rf.classes...)
}

func (rf *RandomForest) FeatureNames() []string {
	return append([]string(nil), rf.features...)
}

func (rf *RandomForest) TreeCount() int {
	return len(rf.trees)
}

func (rf *RandomForest) PredictProba(row FeatureRow) ([]float64, error) {
	if len(rf.trees) == 0 {
		return nil, errors.New("model not loaded")
	}
	vector, err := row.Vector(rf.features)
	if err != nil {
		return nil, err
	}
	proba := make([]float64, len(rf.classes))
	for i, tree := range rf.trees {
		dist, err := tree.Distribution(vector)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		for j, p := range dist {
			proba[j] += p
		}
	}
	for j := range proba {
		proba[j] /= float64(len(rf.trees))
	}
	return proba, nil
}

func (rf *RandomForest) Predict(row FeatureRow) (int, error) {
	proba, err := rf.PredictProba(row)
	if err != nil {
		return 0, err
	}
	return rf.classes[argmax(proba)], nil
}

func (rf *RandomForest) Save(path string) error {
	if len(rf.trees) == 0 {
		return errors.New("model not loaded")
	}
	artifact := forestArtifact{
		Classes:      rf.classes,
		FeatureNames: rf.features,
		Trees:        make([][]TreeNode, len(rf.trees)),
	}
	for i, tree := range rf.trees {
		artifact.Trees[i] = tree.Nodes()
	}
	payload, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (rf *RandomForest) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact forestArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	rf.classes = artifact.Classes
	rf.features = artifact.FeatureNames
	rf.trees = make([]*DecisionTree, len(artifact.Trees))
	for i, nodes := range artifact.Trees {
		rf.trees[i] = NewDecisionTree(nodes)
	}
	return rf.validate()
}

func (rf *RandomForest) validate() error {
	if err := validateClasses(rf.classes, rf.features); err != nil {
		return err
	}
	if len(rf.trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrInvalidArtifact)
	}
	for i, tree := range rf.trees {
		if err := tree.validate(len(rf.features), len(rf.classes)); err != nil {
			return fmt.Errorf("%w: tree %d: %v", ErrInvalidArtifact, i, err)
		}
	}
	return nil
}
