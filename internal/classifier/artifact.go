package classifier

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/credence/internal/features"
	"github.com/ppiankov/credence/internal/model"
)

// ArtifactFormat tags model files this package can read
const ArtifactFormat = "credence-model/v1"

// Classifier kinds
const (
	KindLogistic = "logistic"
	KindEnsemble = "ensemble"
)

// Calibration methods
const (
	CalibrationPlatt = "platt"
	CalibrationNone  = "none"
)

//go:embed default_model.json
var defaultModelJSON []byte

// Artifact is the on-disk description of a trained model
type Artifact struct {
	Format        string          `json:"format"`
	ModelVersion  string          `json:"model_version"`
	SchemaVersion int             `json:"schema_version"`
	Kind          string          `json:"kind"`
	TrainedAt     string          `json:"trained_at,omitempty"`
	FeatureNames  []string        `json:"feature_names"`
	Logistic      *LogisticParams `json:"logistic,omitempty"`
	Ensemble      *EnsembleParams `json:"ensemble,omitempty"`
	Calibration   Calibration     `json:"calibration"`
}

// LogisticParams holds a linear model over named features
type LogisticParams struct {
	Intercept float64            `json:"intercept"`
	Weights   map[string]float64 `json:"weights"`
}

// EnsembleParams holds an additive ensemble of decision stumps
type EnsembleParams struct {
	Base  float64 `json:"base"`
	Trees []Stump `json:"trees"`
}

// Stump contributes Left when feature <= Threshold, Right otherwise
type Stump struct {
	Feature   string  `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
}

// Calibration maps a raw decision value to a probability
type Calibration struct {
	Method string  `json:"method"`
	A      float64 `json:"a,omitempty"`
	B      float64 `json:"b,omitempty"`
}

// Load reads a model artifact from disk
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ModelLoadError{Path: path, Reason: "read artifact", Err: err}
	}
	return Parse(data, path)
}

// LoadDefault returns the embedded model
func LoadDefault() (*Model, error) {
	return Parse(defaultModelJSON, "")
}

// Parse decodes and validates an artifact. path is used for error reporting only.
func Parse(data []byte, path string) (*Model, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &model.ModelLoadError{Path: path, Reason: "corrupt artifact", Err: err}
	}

	if err := a.validate(); err != nil {
		return nil, &model.ModelLoadError{Path: path, Reason: "invalid artifact", Err: err}
	}

	var clf Classifier
	var err error
	switch a.Kind {
	case KindLogistic:
		clf, err = newLogistic(a.FeatureNames, a.Logistic)
	case KindEnsemble:
		clf, err = newStumpEnsemble(a.FeatureNames, a.Ensemble)
	default:
		err = fmt.Errorf("unknown classifier kind %q", a.Kind)
	}
	if err != nil {
		return nil, &model.ModelLoadError{Path: path, Reason: "invalid artifact", Err: err}
	}

	return &Model{artifact: a, classifier: clf}, nil
}

func (a *Artifact) validate() error {
	if a.Format != ArtifactFormat {
		return fmt.Errorf("unsupported format %q", a.Format)
	}
	if a.ModelVersion == "" {
		return errors.New("missing model_version")
	}
	if a.SchemaVersion != features.SchemaVersion {
		return fmt.Errorf("unsupported feature schema version %d (this build extracts v%d)", a.SchemaVersion, features.SchemaVersion)
	}
	if len(a.FeatureNames) != len(features.Names) {
		return fmt.Errorf("feature_names has %d entries, schema v%d has %d", len(a.FeatureNames), a.SchemaVersion, len(features.Names))
	}
	for i, name := range features.Names {
		if a.FeatureNames[i] != name {
			return fmt.Errorf("feature_names[%d] is %q, expected %q", i, a.FeatureNames[i], name)
		}
	}
	switch a.Calibration.Method {
	case CalibrationPlatt:
		if a.Calibration.A == 0 {
			return errors.New("platt calibration requires a non-zero slope")
		}
	case CalibrationNone, "":
	default:
		return fmt.Errorf("unknown calibration method %q", a.Calibration.Method)
	}
	return nil
}
