package ml

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidFeature = errors.New("invalid feature value")

// Column names the forest was trained with. The training notebook lowercased
// the original Length/Weight/W_L_Ratio headers.
const (
	ColumnLength  = "length"
	ColumnWeight  = "weight"
	ColumnWLRatio = "w_l_ratio"
)

type FeatureRow struct {
	Length  float64 `json:"length"`
	Weight  float64 `json:"weight"`
	WLRatio float64 `json:"w_l_ratio"`
}

// FeatureInput describes one numeric form control. Step is the HTML step
// attribute; "any" lets the browser accept every decimal value.
type FeatureInput struct {
	Name    string
	Label   string
	Default float64
	Min     float64
	Step    string
}

func DefaultFeatureRow() FeatureRow {
	return FeatureRow{Length: 50.0, Weight: 10.0, WLRatio: 0.2}
}

func FeatureInputs() []FeatureInput {
	def := DefaultFeatureRow()
	return []FeatureInput{
		{Name: ColumnLength, Label: "Panjang (cm)", Default: def.Length, Min: 0, Step: "any"},
		{Name: ColumnWeight, Label: "Berat (kg)", Default: def.Weight, Min: 0, Step: "any"},
		{Name: ColumnWLRatio, Label: "Rasio Berat-Tinggi", Default: def.WLRatio, Min: 0, Step: "any"},
	}
}

func FeatureNames() []string {
	return []string{ColumnLength, ColumnWeight, ColumnWLRatio}
}

func (r FeatureRow) Validate() error {
	values := map[string]float64{
		ColumnLength:  r.Length,
		ColumnWeight:  r.Weight,
		ColumnWLRatio: r.WLRatio,
	}
	for _, name := range FeatureNames() {
		value := values[name]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidFeature, name)
		}
		if value < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %g", ErrInvalidFeature, name, value)
		}
	}
	return nil
}

func (r FeatureRow) Value(name string) (float64, error) {
	switch name {
	case ColumnLength:
		return r.Length, nil
	case ColumnWeight:
		return r.Weight, nil
	case ColumnWLRatio:
		return r.WLRatio, nil
	default:
		return 0, fmt.Errorf("unknown feature column %q", name)
	}
}

// Vector lays the row out in the column order a model expects.
func (r FeatureRow) Vector(names []string) ([]float64, error) {
	if len(names) == 0 {
		names = FeatureNames()
	}
	vector := make([]float64, len(names))
	for i, name := range names {
		value, err := r.Value(name)
		if err != nil {
			return nil, err
		}
		vector[i] = value
	}
	return vector, nil
}
