package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/credence/internal/claims"
	"github.com/ppiankov/credence/internal/classifier"
	"github.com/ppiankov/credence/internal/emotion"
	"github.com/ppiankov/credence/internal/features"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/patterns"
	"github.com/ppiankov/credence/internal/preprocess"
	"github.com/ppiankov/credence/internal/score"
)

// Analyzer runs the credibility stages over raw article text.
// It holds only read-only tables and a loaded model, so one instance is
// safe to share across goroutines.
type Analyzer struct {
	preprocessor *preprocess.Preprocessor
	detector     *patterns.Detector
	emotions     *emotion.Analyzer
	highlighter  *claims.Highlighter
	extractor    *features.Extractor
	model        *classifier.Model
	scorer       *score.Scorer
}

// Components are the loaded tables and model an Analyzer is built from
type Components struct {
	Rules    *patterns.RuleTable
	Lexicon  *emotion.Lexicon
	Model    *classifier.Model
	MaxChars int // <= 0 selects model.DefaultMaxChars
}

// NewAnalyzer assembles an analyzer from loaded components
func NewAnalyzer(c Components) *Analyzer {
	return &Analyzer{
		preprocessor: preprocess.NewPreprocessor(c.MaxChars),
		detector:     patterns.NewDetector(c.Rules),
		emotions:     emotion.NewAnalyzer(c.Lexicon),
		highlighter:  claims.NewHighlighter(),
		extractor:    features.NewExtractor(),
		model:        c.Model,
		scorer:       score.NewScorer(score.DefaultWeights),
	}
}

// LoadComponents loads rule table, lexicon and model from configured paths,
// falling back to the embedded defaults for empty paths.
func LoadComponents(cfg *model.Config) (Components, error) {
	var (
		c   Components
		err error
	)

	if cfg.Rules.Path != "" {
		c.Rules, err = patterns.LoadRules(cfg.Rules.Path)
	} else {
		c.Rules, err = patterns.DefaultRules()
	}
	if err != nil {
		return Components{}, fmt.Errorf("load rules: %w", err)
	}

	if cfg.Lexicon.Path != "" {
		c.Lexicon, err = emotion.LoadLexicon(cfg.Lexicon.Path)
	} else {
		c.Lexicon, err = emotion.DefaultLexicon()
	}
	if err != nil {
		return Components{}, fmt.Errorf("load lexicon: %w", err)
	}

	if cfg.Model.Path != "" {
		c.Model, err = classifier.Load(cfg.Model.Path)
	} else {
		c.Model, err = classifier.LoadDefault()
	}
	if err != nil {
		return Components{}, err
	}

	c.MaxChars = cfg.Input.MaxChars
	return c, nil
}

// NewAnalyzerFromConfig loads components and builds an analyzer.
// A *model.ModelLoadError means the service must not start.
func NewAnalyzerFromConfig(cfg *model.Config) (*Analyzer, error) {
	c, err := LoadComponents(cfg)
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(c), nil
}

// Analyze scores one article text.
//
// Returns *model.EmptyInputError or *model.InputTooLargeError for rejected
// input and *model.SchemaMismatchError when the model was trained on another
// feature schema. Same text and same Fingerprint give the same result.
func (a *Analyzer) Analyze(text string) (*model.CredibilityResult, error) {
	doc, err := a.preprocessor.Process(text)
	if err != nil {
		return nil, err
	}

	matches := a.detector.Detect(doc)
	profile := a.emotions.Analyze(doc)
	spans := a.highlighter.Highlight(doc)

	vec, err := a.extractor.Extract(doc, matches, profile, spans)
	if err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}

	prediction, err := a.model.Predict(vec)
	if err != nil {
		return nil, err
	}

	result := a.scorer.Calculate(score.Input{
		Prediction:   prediction,
		ModelVersion: a.model.Version(),
		Features:     vec,
		Patterns:     matches,
		Claims:       spans,
		Emotion:      profile,
		Sentences:    len(doc.Sentences),
		ProseChars:   doc.ProseChars(),
	})
	return &result, nil
}

// Fingerprint identifies everything that can change a result for a given text
func (a *Analyzer) Fingerprint() string {
	return strings.Join([]string{
		a.model.Version(),
		strconv.Itoa(a.extractor.SchemaVersion()),
		a.detector.Version(),
		a.emotions.Version(),
		score.FusionVersion,
		strconv.Itoa(a.preprocessor.MaxChars()),
	}, "|")
}

// ModelInfo describes the loaded model and tables
type ModelInfo struct {
	ModelVersion   string   `json:"model_version" yaml:"model_version"`
	Kind           string   `json:"kind" yaml:"kind"`
	SchemaVersion  int      `json:"schema_version" yaml:"schema_version"`
	TrainedAt      string   `json:"trained_at,omitempty" yaml:"trained_at,omitempty"`
	Calibration    string   `json:"calibration" yaml:"calibration"`
	Features       []string `json:"features" yaml:"features"`
	RulesVersion   string   `json:"rules_version" yaml:"rules_version"`
	Rules          int      `json:"rules" yaml:"rules"`
	LexiconVersion string   `json:"lexicon_version" yaml:"lexicon_version"`
	FusionVersion  string   `json:"fusion_version" yaml:"fusion_version"`
	MaxChars       int      `json:"max_chars" yaml:"max_chars"`
}

// ModelInfo returns metadata about the loaded model and tables
func (a *Analyzer) ModelInfo() ModelInfo {
	art := a.model.Artifact()
	return ModelInfo{
		ModelVersion:   art.ModelVersion,
		Kind:           a.model.Kind(),
		SchemaVersion:  art.SchemaVersion,
		TrainedAt:      art.TrainedAt,
		Calibration:    art.Calibration.Method,
		Features:       append([]string(nil), art.FeatureNames...),
		RulesVersion:   a.detector.Version(),
		Rules:          a.detector.Rules(),
		LexiconVersion: a.emotions.Version(),
		FusionVersion:  score.FusionVersion,
		MaxChars:       a.preprocessor.MaxChars(),
	}
}
