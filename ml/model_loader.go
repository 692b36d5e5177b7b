package ml

import (
	"errors"
	"fmt"
	"io/fs"
)

const (
	ModelTypeRandomForest = "random_forest"
	ModelTypeDecisionTree = "decision_tree"
	ModelTypeONNX         = "onnx"
)

const (
	ArtifactModel        = "model"
	ArtifactLabelEncoder = "label encoder"
)

// ArtifactError reports a model or label encoder that could not be loaded.
// It matches ErrMissingArtifact when the file is absent and
// ErrInvalidArtifact otherwise.
type ArtifactError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactError) Missing() bool {
	return errors.Is(e.Err, fs.ErrNotExist)
}

func (e *ArtifactError) Unwrap() []error {
	if e.Missing() {
		return []error{ErrMissingArtifact, e.Err}
	}
	return []error{ErrInvalidArtifact, e.Err}
}

func LoadModel(modelType, path string) (Classifier, error) {
	var (
		model Classifier
		err   error
	)
	switch modelType {
	case ModelTypeRandomForest, "":
		forest := &RandomForest{}
		err = forest.Load(path)
		model = forest
	case ModelTypeDecisionTree:
		tree := &SingleTree{}
		err = tree.Load(path)
		model = tree
	case ModelTypeONNX:
		model, err = NewONNXClassifier(path)
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
	if err != nil {
		return nil, &ArtifactError{Artifact: ArtifactModel, Path: path, Err: err}
	}
	return model, nil
}

func LoadLabelEncoder(path string) (Decoder, error) {
	encoder := &LabelEncoder{}
	if err := encoder.Load(path); err != nil {
		return nil, &ArtifactError{Artifact: ArtifactLabelEncoder, Path: path, Err: err}
	}
	return encoder, nil
}

// CheckCompatible makes sure every class the model can emit has a name.
func CheckCompatible(model Classifier, decoder Decoder) error {
	if _, err := decoder.InverseTransform(model.Classes()); err != nil {
		return fmt.Errorf("%w: model classes do not match label encoder: %v", ErrInvalidArtifact, err)
	}
	return nil
}
