package scoring

import (
	"fmt"
	"path/filepath"

	"github.com/smaliarov/post-recommender/internal/experiment"
	"github.com/smaliarov/post-recommender/internal/features"
)

// Engine holds one loaded model per experiment group.
type Engine struct {
	models map[experiment.Group]*Model
}

// NewEngine creates a scoring engine over pre-loaded models.
func NewEngine(models map[experiment.Group]*Model) (*Engine, error) {
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no models provided", ErrModelLoad)
	}
	for group, m := range models {
		if m == nil {
			return nil, fmt.Errorf("%w: nil model for group %q", ErrModelLoad, group)
		}
	}
	return &Engine{models: models}, nil
}

// LoadEngine loads one artifact per group from dir. Artifacts are named
// model_<group>.json.
func LoadEngine(dir string, groups []experiment.Group) (*Engine, error) {
	models := make(map[experiment.Group]*Model, len(groups))
	for _, group := range groups {
		m, err := LoadModel(ModelPath(dir, group))
		if err != nil {
			return nil, err
		}
		models[group] = m
	}
	return NewEngine(models)
}

// ModelPath returns the artifact location for a group.
func ModelPath(dir string, group experiment.Group) string {
	return filepath.Join(dir, fmt.Sprintf("model_%s.json", group))
}

// Model returns the loaded model for a group.
func (e *Engine) Model(group experiment.Group) (*Model, error) {
	m, ok := e.models[group]
	if !ok {
		return nil, fmt.Errorf("%w: no model loaded for group %q", ErrInvalidFeatureVector, group)
	}
	return m, nil
}

// Score produces one relevance score per input vector using the
// group's model. The batch either scores fully or fails as a whole.
func (e *Engine) Score(group experiment.Group, vectors []features.Vector) ([]float64, error) {
	m, err := e.Model(group)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		score, err := m.Predict(v)
		if err != nil {
			return nil, err
		}
		scores[i] = score
	}
	return scores, nil
}
