package ml

import "errors"

var (
	ErrMissingArtifact = errors.New("artifact not found")
	ErrInvalidArtifact = errors.New("invalid artifact")
	ErrUnknownLabel    = errors.New("unknown label")
)

// Classifier is the shape every loaded model artifact must satisfy.
// PredictProba returns one probability per entry of Classes, in that order.
type Classifier interface {
	Predict(row FeatureRow) (int, error)
	PredictProba(row FeatureRow) ([]float64, error)
	Classes() []int
	FeatureNames() []string
}

// Decoder maps class ids back to species names.
type Decoder interface {
	InverseTransform(ids []int) ([]string, error)
	Transform(names []string) ([]int, error)
}

// Closer is implemented by classifiers that hold native resources.
type Closer interface {
	Close()
}
