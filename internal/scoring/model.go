// Package scoring loads predictive model artifacts and scores feature
// vectors with them. Artifacts are read once at process start and are
// immutable, shared, read-only resources for the process lifetime.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/smaliarov/post-recommender/internal/features"
)

var (
	// ErrModelLoad indicates a model artifact is missing or corrupt.
	// Fatal at startup: the process must not begin serving without both
	// group models.
	ErrModelLoad = errors.New("model load failed")
	// ErrInvalidFeatureVector indicates a vector does not carry the
	// features the model declares. This is a contract violation between
	// the assembler and the deployed artifact, not a user error.
	ErrInvalidFeatureVector = errors.New("invalid feature vector")
)

// artifact is the on-disk JSON representation of a trained model:
// a calibrated logistic model exported by the offline training
// pipeline, with its feature schema embedded.
type artifact struct {
	Version            string                        `json:"version"`
	Bias               float64                       `json:"bias"`
	NumericWeights     map[string]float64            `json:"numeric_weights"`
	CategoricalWeights map[string]map[string]float64 `json:"categorical_weights"`
	Schema             struct {
		Numeric     []string `json:"numeric"`
		Categorical []string `json:"categorical"`
	} `json:"schema"`
}

// Model is one loaded, immutable predictive model.
type Model struct {
	version            string
	bias               float64
	numericWeights     map[string]float64
	categoricalWeights map[string]map[string]float64
	schema             features.Schema
}

// LoadModel reads and validates a model artifact from disk.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, path, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: malformed artifact: %v", ErrModelLoad, path, err)
	}

	if len(a.Schema.Numeric) == 0 && len(a.Schema.Categorical) == 0 {
		return nil, fmt.Errorf("%w: %s: artifact declares no feature schema", ErrModelLoad, path)
	}

	// The declared schema and the weight tables must agree: a weight
	// for an undeclared feature, or a declared numeric feature without
	// a weight, means the artifact is internally inconsistent.
	declaredNumeric := make(map[string]bool, len(a.Schema.Numeric))
	for _, name := range a.Schema.Numeric {
		if _, ok := a.NumericWeights[name]; !ok {
			return nil, fmt.Errorf("%w: %s: schema declares numeric feature %q with no weight", ErrModelLoad, path, name)
		}
		declaredNumeric[name] = true
	}
	for name := range a.NumericWeights {
		if !declaredNumeric[name] {
			return nil, fmt.Errorf("%w: %s: weight for undeclared numeric feature %q", ErrModelLoad, path, name)
		}
	}

	declaredCategorical := make(map[string]bool, len(a.Schema.Categorical))
	for _, name := range a.Schema.Categorical {
		declaredCategorical[name] = true
	}
	for name := range a.CategoricalWeights {
		if !declaredCategorical[name] {
			return nil, fmt.Errorf("%w: %s: weight table for undeclared categorical feature %q", ErrModelLoad, path, name)
		}
	}

	return &Model{
		version:            a.Version,
		bias:               a.Bias,
		numericWeights:     a.NumericWeights,
		categoricalWeights: a.CategoricalWeights,
		schema: features.Schema{
			Numeric:     a.Schema.Numeric,
			Categorical: a.Schema.Categorical,
		},
	}, nil
}

// Version returns the artifact's version string.
func (m *Model) Version() string {
	return m.version
}

// Schema returns the feature schema the model expects.
func (m *Model) Schema() features.Schema {
	return m.schema
}

// Predict returns the relevance score for one vector: the logistic of
// the weighted feature sum. Category values unseen at training time
// contribute zero, matching how the trainer encodes them.
func (m *Model) Predict(v features.Vector) (float64, error) {
	z := m.bias

	for _, name := range m.schema.Numeric {
		x, ok := v.Numeric[name]
		if !ok {
			return 0, fmt.Errorf("%w: numeric feature %q missing", ErrInvalidFeatureVector, name)
		}
		z += m.numericWeights[name] * x
	}

	for _, name := range m.schema.Categorical {
		value, ok := v.Categorical[name]
		if !ok {
			return 0, fmt.Errorf("%w: categorical feature %q missing", ErrInvalidFeatureVector, name)
		}
		if table, ok := m.categoricalWeights[name]; ok {
			z += table[value]
		}
	}

	return 1.0 / (1.0 + math.Exp(-z)), nil
}
