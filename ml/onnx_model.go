package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXMetadata is the JSON sidecar stored next to an ONNX export. The model
// must be converted with skl2onnx using zipmap=False so probabilities come
// back as a plain float tensor.
type ONNXMetadata struct {
	Classes           []int    `json:"classes"`
	FeatureNames      []string `json:"feature_names"`
	InputName         string   `json:"input_name"`
	LabelOutput       string   `json:"label_output"`
	ProbabilityOutput string   `json:"probability_output"`
}

// ONNXMetadataPath is where the sidecar for modelPath is expected.
func ONNXMetadataPath(modelPath string) string {
	return modelPath + ".meta.json"
}

func LoadONNXMetadata(path string) (*ONNXMetadata, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta ONNXMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := validateClasses(meta.Classes, meta.FeatureNames); err != nil {
		return nil, err
	}
	if meta.InputName == "" {
		meta.InputName = "float_input"
	}
	if meta.LabelOutput == "" {
		meta.LabelOutput = "label"
	}
	if meta.ProbabilityOutput == "" {
		meta.ProbabilityOutput = "probabilities"
	}
	return &meta, nil
}

type ONNXClassifier struct {
	mu          sync.Mutex
	session     *ort.AdvancedSession
	meta        ONNXMetadata
	inputTensor *ort.Tensor[float32]
	labelTensor *ort.Tensor[int64]
	probaTensor *ort.Tensor[float32]
}

var onnxEnvMu sync.Mutex

var initONNXEnv = func() error {
	if ort.IsInitialized() {
		return nil
	}
	return ort.InitializeEnvironment()
}

// ensureONNXEnvironment initializes onnxruntime unless it is already running.
// A failed attempt is not remembered, so fixing the library and reloading the
// artifacts retries without a restart.
func ensureONNXEnvironment() error {
	onnxEnvMu.Lock()
	defer onnxEnvMu.Unlock()
	return initONNXEnv()
}

// SetONNXLibraryPath points onnxruntime_go at the shared library. It must be
// called before the first ONNX model is loaded.
func SetONNXLibraryPath(path string) {
	if path != "" {
		ort.SetSharedLibraryPath(path)
	}
}

func NewONNXClassifier(modelPath string) (*ONNXClassifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, err
	}
	meta, err := LoadONNXMetadata(ONNXMetadataPath(modelPath))
	if err != nil {
		return nil, err
	}

	if err := ensureONNXEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	featureCount := int64(len(meta.FeatureNames))
	classCount := int64(len(meta.Classes))

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, featureCount))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	labelTensor, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create label tensor: %w", err)
	}
	probaTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, classCount))
	if err != nil {
		inputTensor.Destroy()
		labelTensor.Destroy()
		return nil, fmt.Errorf("failed to create probability tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.LabelOutput, meta.ProbabilityOutput},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{labelTensor, probaTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		labelTensor.Destroy()
		probaTensor.Destroy()
		return nil, fmt.Errorf("%w: failed to create ONNX session: %v", ErrInvalidArtifact, err)
	}

	return &ONNXClassifier{
		session:     session,
		meta:        *meta,
		inputTensor: inputTensor,
		labelTensor: labelTensor,
		probaTensor: probaTensor,
	}, nil
}

func (c *ONNXClassifier) Classes() []int {
	return append([]int(nil), c.meta.Classes...)
}

func (c *ONNXClassifier) FeatureNames() []string {
	return append([]string(nil), c.meta.FeatureNames...)
}

func (c *ONNXClassifier) run(row FeatureRow) (int, []float64, error) {
	vector, err := row.Vector(c.meta.FeatureNames)
	if err != nil {
		return 0, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0, nil, errors.New("model closed")
	}

	input := c.inputTensor.GetData()
	for i, v := range vector {
		input[i] = float32(v)
	}
	if err := c.session.Run(); err != nil {
		return 0, nil, fmt.Errorf("inference failed: %w", err)
	}

	label := int(c.labelTensor.GetData()[0])
	raw := c.probaTensor.GetData()
	proba := make([]float64, len(raw))
	for i, p := range raw {
		proba[i] = float64(p)
	}
	return label, proba, nil
}

func (c *ONNXClassifier) Predict(row FeatureRow) (int, error) {
	label, _, err := c.run(row)
	return label, err
}

func (c *ONNXClassifier) PredictProba(row FeatureRow) ([]float64, error) {
	_, proba, err := c.run(row)
	return proba, err
}

func (c *ONNXClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inputTensor != nil {
		c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.labelTensor != nil {
		c.labelTensor.Destroy()
		c.labelTensor = nil
	}
	if c.probaTensor != nil {
		c.probaTensor.Destroy()
		c.probaTensor = nil
	}
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
}
