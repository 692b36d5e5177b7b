package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// LabelEncoder mirrors scikit-learn's LabelEncoder: Classes[i] is the name
// encoded as i.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

func (le *LabelEncoder) InverseTransform(ids []int) ([]string, error) {
	names := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= len(le.Classes) {
			return nil, fmt.Errorf("%w: class id %d", ErrUnknownLabel, id)
		}
		names[i] = le.Classes[id]
	}
	return names, nil
}

func (le *LabelEncoder) Transform(names []string) ([]int, error) {
	index := make(map[string]int, len(le.Classes))
	for i, name := range le.Classes {
		index[name] = i
	}
	ids := make([]int, len(names))
	for i, name := range names {
		id, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
		}
		ids[i] = id
	}
	return ids, nil
}

func (le *LabelEncoder) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var decoded LabelEncoder
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := decoded.validate(); err != nil {
		return err
	}
	le.Classes = decoded.Classes
	return nil
}

func (le *LabelEncoder) Save(path string) error {
	if err := le.validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(le)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (le *LabelEncoder) validate() error {
	if len(le.Classes) == 0 {
		return fmt.Errorf("%w: label encoder has no classes", ErrInvalidArtifact)
	}
	seen := make(map[string]bool, len(le.Classes))
	for _, name := range le.Classes {
		if name == "" {
			return fmt.Errorf("%w: empty class name", ErrInvalidArtifact)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate class name %q", ErrInvalidArtifact, name)
		}
		seen[name] = true
	}
	return nil
}
