package classifier

import (
	"fmt"
	"math"

	"github.com/ppiankov/credence/internal/features"
	"github.com/ppiankov/credence/internal/model"
)

// Classifier produces an uncalibrated decision value; larger means
// more likely low-credibility
type Classifier interface {
	Kind() string
	Decision(v features.Vector) float64
}

// Logistic is a linear decision function
type Logistic struct {
	intercept float64
	weights   []float64 // Aligned with the artifact's feature order
}

func newLogistic(names []string, p *LogisticParams) (*Logistic, error) {
	if p == nil {
		return nil, fmt.Errorf("logistic model without parameters")
	}
	if len(p.Weights) != len(names) {
		return nil, fmt.Errorf("logistic model has %d weights for %d features", len(p.Weights), len(names))
	}
	weights := make([]float64, len(names))
	for i, name := range names {
		w, ok := p.Weights[name]
		if !ok {
			return nil, fmt.Errorf("logistic model has no weight for %s", name)
		}
		weights[i] = w
	}
	return &Logistic{intercept: p.Intercept, weights: weights}, nil
}

// Kind returns "logistic"
func (l *Logistic) Kind() string {
	return KindLogistic
}

// Decision returns intercept + w·x
func (l *Logistic) Decision(v features.Vector) float64 {
	z := l.intercept
	for i, w := range l.weights {
		z += w * v.Values[i]
	}
	return z
}

// StumpEnsemble sums the outputs of single-split trees
type StumpEnsemble struct {
	base   float64
	stumps []stump
}

type stump struct {
	feature   int
	threshold float64
	left      float64
	right     float64
}

func newStumpEnsemble(names []string, p *EnsembleParams) (*StumpEnsemble, error) {
	if p == nil || len(p.Trees) == 0 {
		return nil, fmt.Errorf("ensemble model without trees")
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	e := &StumpEnsemble{base: p.Base, stumps: make([]stump, len(p.Trees))}
	for i, t := range p.Trees {
		idx, ok := index[t.Feature]
		if !ok {
			return nil, fmt.Errorf("tree %d splits on unknown feature %s", i, t.Feature)
		}
		e.stumps[i] = stump{feature: idx, threshold: t.Threshold, left: t.Left, right: t.Right}
	}
	return e, nil
}

// Kind returns "ensemble"
func (e *StumpEnsemble) Kind() string {
	return KindEnsemble
}

// Decision returns base + Σ stump outputs
func (e *StumpEnsemble) Decision(v features.Vector) float64 {
	z := e.base
	for _, s := range e.stumps {
		if v.Values[s.feature] <= s.threshold {
			z += s.left
		} else {
			z += s.right
		}
	}
	return z
}

// Prediction is the calibrated model output
type Prediction struct {
	ProbLow    float64 `json:"prob_low"`   // Probability the article is low-credibility
	Confidence float64 `json:"confidence"` // max(p, 1-p)
	Decision   float64 `json:"decision"`   // Raw classifier output
}

// Model is a loaded, read-only classifier with its calibration
type Model struct {
	artifact   Artifact
	classifier Classifier
}

// Version returns the model version
func (m *Model) Version() string {
	return m.artifact.ModelVersion
}

// SchemaVersion returns the feature schema the model was trained on
func (m *Model) SchemaVersion() int {
	return m.artifact.SchemaVersion
}

// Kind returns the classifier variant
func (m *Model) Kind() string {
	return m.classifier.Kind()
}

// Artifact returns a copy of the artifact metadata
func (m *Model) Artifact() Artifact {
	return m.artifact
}

// Predict scores a feature vector.
// Returns *model.SchemaMismatchError when the vector was built under another schema.
func (m *Model) Predict(v features.Vector) (Prediction, error) {
	if v.SchemaVersion != m.artifact.SchemaVersion {
		return Prediction{}, &model.SchemaMismatchError{Got: v.SchemaVersion, Want: m.artifact.SchemaVersion}
	}
	if len(v.Values) != len(m.artifact.FeatureNames) {
		return Prediction{}, fmt.Errorf("feature vector has %d values, model expects %d", len(v.Values), len(m.artifact.FeatureNames))
	}

	z := m.classifier.Decision(v)
	p := m.calibrate(z)

	return Prediction{
		ProbLow:    p,
		Confidence: math.Max(p, 1-p),
		Decision:   z,
	}, nil
}

func (m *Model) calibrate(z float64) float64 {
	if m.artifact.Calibration.Method == CalibrationPlatt {
		return sigmoid(m.artifact.Calibration.A*z + m.artifact.Calibration.B)
	}
	return sigmoid(z)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
